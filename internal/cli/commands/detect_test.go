package commands

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ccollicutt/fwtriage/pkg/config"
	"github.com/ccollicutt/fwtriage/pkg/detector"
)

func TestRunDetect_Text(t *testing.T) {
	log := writeFile(t, t.TempDir(), "fw.log", acceptedLog)

	out, err := execute(t, NewDetectCommand(), log, "--all")
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	for _, want := range []string{
		"Lines sampled: 4",
		"Timestamp format: Bracketed datetime",
		"Recommended mode: structured",
		"fwtriage analyze --mode structured",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDetect_JSON(t *testing.T) {
	log := writeFile(t, t.TempDir(), "fw.log", "2025-05-21 10:00:00 sensor failed\nboot ok\n")

	out, err := execute(t, NewDetectCommand(), "-o", "json", log)
	if err != nil {
		t.Fatal(err)
	}

	var result JSONOutput
	if err := json.Unmarshal([]byte(out), &result); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if result.RecommendedMode != "keyword" || result.SampledLines != 2 || result.ParsedLines != 1 {
		t.Errorf("result = %+v", result)
	}
	if len(result.Matches) != 1 || !result.Matches[0].Supported {
		t.Errorf("matches = %+v", result.Matches)
	}
}

func TestRunDetect_MissingFile(t *testing.T) {
	_, err := execute(t, NewDetectCommand(), filepath.Join(t.TempDir(), "nope.log"))
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("err = %v, want not found", err)
	}
}

func TestRunDetect_WriteConfig(t *testing.T) {
	dir := t.TempDir()
	log := writeFile(t, dir, "fw.log", acceptedLog)
	cfgPath := filepath.Join(dir, "fwtriage.yaml")

	out, err := execute(t, NewDetectCommand(), "-w", cfgPath, log)
	if err != nil {
		t.Fatalf("detect failed: %v", err)
	}
	if !strings.Contains(out, "Wrote starter config") {
		t.Errorf("output = %s", out)
	}

	// the generated file must load as a valid config
	cfg, err := config.Load(context.Background(), cfgPath)
	if err != nil {
		t.Fatalf("generated config does not load: %v", err)
	}
	if cfg.Mode != "structured" || cfg.Acceptance.FirmwareIssue != 2 {
		t.Errorf("cfg = %+v", cfg)
	}

	if _, err := execute(t, NewDetectCommand(), "-w", cfgPath, log); err == nil {
		t.Error("expected error when config already exists")
	}
}

func TestWriteStarterConfig_NoLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fwtriage.yaml")
	err := writeStarterConfig(&detector.DetectionResult{}, "fw.log", path)
	if err == nil {
		t.Error("expected error for empty sample")
	}
	if _, statErr := os.Stat(path); !os.IsNotExist(statErr) {
		t.Error("config should not be written")
	}
}
