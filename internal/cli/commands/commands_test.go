package commands

import (
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"gopkg.in/yaml.v3"

	"github.com/ccollicutt/fwtriage/pkg/table"
)

func TestNewVersionCommand(t *testing.T) {
	out, err := execute(t, NewVersionCommand())
	if err != nil {
		t.Fatal(err)
	}
	if out != "fwtriage dev\n" {
		t.Errorf("version output = %q", out)
	}
}

func TestRunCompare(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "run1.log", acceptedLog)
	writeFile(t, dir, "run2.txt", rejectedLog)
	writeFile(t, dir, "quiet.log", "[2025-05-21 10:00:00] INFO all good\n")
	writeFile(t, dir, "notes.md", "sensor failed\n")
	exportPath := filepath.Join(dir, "comparison.csv")

	out, err := execute(t, NewCompareCommand(quiet()), dir, "--export", exportPath)
	if err != nil {
		t.Fatalf("compare failed: %v", err)
	}

	for _, want := range []string{"run1.log", "run2.txt", "skipped quiet.log: no_events", "2 file(s), 1 skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
	if strings.Contains(out, "notes.md") {
		t.Error("files with other extensions should be ignored")
	}

	data, err := os.ReadFile(exportPath)
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	if lines[0] != "filename,category,count" {
		t.Errorf("header = %q", lines[0])
	}
	// run1: communication, firmware, voltage; run2: firmware, sensor
	if len(lines) != 6 {
		t.Errorf("comparison.csv =\n%s", data)
	}
}

func TestRunCompare_JSONAndErrors(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "run1.log", rejectedLog)

	out, err := execute(t, NewCompareCommand(quiet()), "-o", "json", dir)
	if err != nil {
		t.Fatal(err)
	}
	var res struct {
		Rows []struct {
			File     string `json:"filename"`
			Category string `json:"category"`
			Count    int    `json:"count"`
		} `json:"rows"`
	}
	if err := json.Unmarshal([]byte(out), &res); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(res.Rows) != 2 || res.Rows[0].Category != "firmware_issue" || res.Rows[0].Count != 2 {
		t.Errorf("rows = %+v", res.Rows)
	}

	if _, err := execute(t, NewCompareCommand(quiet()), filepath.Join(dir, "missing")); err == nil {
		t.Error("expected error for missing directory")
	}
	if _, err := execute(t, NewCompareCommand(quiet()), "--format", "parquet", dir); err == nil {
		t.Error("expected error for unsupported export format")
	}

	xlsx := filepath.Join(t.TempDir(), "comparison.xlsx")
	if _, err := execute(t, NewCompareCommand(quiet()), "--export", xlsx, dir); !errors.Is(err, table.ErrUnsupportedFormat) {
		t.Errorf("err = %v, want ErrUnsupportedFormat", err)
	}
	if _, err := os.Stat(xlsx); !os.IsNotExist(err) {
		t.Error("export file should not be created")
	}
}

const unclassifiedLog = `[2025-05-21 10:00:00] ERROR Watchdog reset triggered by core 1
[2025-05-21 10:01:00] ERROR Watchdog reset triggered by core 2
[2025-05-21 10:02:00] ERROR Watchdog reset triggered by core 1
[2025-05-21 10:03:00] ERROR Sensor failed: ID 3
[2025-05-21 10:04:00] WARN Flash wear level high
free-form line without a level
`

func TestRunSuggest(t *testing.T) {
	dir := t.TempDir()
	log := writeFile(t, dir, "fw.log", unclassifiedLog)
	rulesPath := filepath.Join(dir, "custom.yaml")
	jsonPath := filepath.Join(dir, "suggested_classes.json")

	out, err := execute(t, NewSuggestCommand(quiet()), log, "--promote", rulesPath, "--json-out", jsonPath)
	if err != nil {
		t.Fatalf("suggest failed: %v", err)
	}

	if !strings.Contains(out, "Structured lines: 5") {
		t.Errorf("output missing structured line count:\n%s", out)
	}
	if !strings.Contains(out, "watchdog reset triggered by core") {
		t.Errorf("output missing watchdog suggestion:\n%s", out)
	}
	if strings.Contains(out, "sensor failed") {
		t.Error("classified messages should not be suggested")
	}

	data, err := os.ReadFile(rulesPath)
	if err != nil {
		t.Fatal(err)
	}
	var promoted map[string]string
	if err := yaml.Unmarshal(data, &promoted); err != nil {
		t.Fatal(err)
	}
	if _, ok := promoted["watchdog_reset_triggered_by_core"]; !ok {
		t.Errorf("promoted rules = %v", promoted)
	}

	data, err = os.ReadFile(jsonPath)
	if err != nil {
		t.Fatal(err)
	}
	var phrases []string
	if err := json.Unmarshal(data, &phrases); err != nil {
		t.Fatal(err)
	}
	if len(phrases) != 2 || phrases[0] != "watchdog reset triggered by core" {
		t.Errorf("phrases = %v", phrases)
	}
}

func TestRunSuggest_JSONAndErrors(t *testing.T) {
	log := writeFile(t, t.TempDir(), "fw.log", unclassifiedLog)

	out, err := execute(t, NewSuggestCommand(quiet()), "-o", "json", "--limit", "1", log)
	if err != nil {
		t.Fatal(err)
	}
	var suggestions []map[string]any
	if err := json.Unmarshal([]byte(out), &suggestions); err != nil {
		t.Fatalf("output is not JSON: %v", err)
	}
	if len(suggestions) != 1 || suggestions[0]["count"] != float64(3) {
		t.Errorf("suggestions = %v", suggestions)
	}

	if _, err := execute(t, NewSuggestCommand(quiet()), "--limit", "0", log); err == nil {
		t.Error("expected error for zero limit")
	}
	if _, err := execute(t, NewSuggestCommand(quiet()), filepath.Join(t.TempDir(), "missing.log")); err == nil {
		t.Error("expected error for missing file")
	}
}

func TestRunRules(t *testing.T) {
	dir := t.TempDir()
	custom := writeFile(t, dir, "custom.yaml", "voltage_drop: 'voltage\\s+sag'\nbrownout: 'brownout'\n")
	broken := writeFile(t, dir, "broken.yaml", "bad: '('\n")
	cfgPath := writeFile(t, dir, "fwtriage.yaml", "rule_files:\n  - "+custom+"\n  - "+broken+"\n")

	g := quiet()
	g.ConfigPath = cfgPath
	out, err := execute(t, NewRulesCommand(g))
	if err != nil {
		t.Fatalf("rules failed: %v", err)
	}
	for _, want := range []string{"brownout", `voltage\s+sag`, "builtin: 6 rule(s)", custom + ": 2 rule(s)", broken + ": skipped"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}

	out, err = execute(t, NewRulesCommand(g), "-o", "json")
	if err != nil {
		t.Fatal(err)
	}
	var listing struct {
		Rules []struct {
			Label  string `json:"label"`
			Source string `json:"source"`
		} `json:"rules"`
		Sources []struct {
			Error string `json:"error"`
		} `json:"sources"`
	}
	if err := json.Unmarshal([]byte(out), &listing); err != nil {
		t.Fatal(err)
	}
	if len(listing.Rules) != 7 || listing.Rules[len(listing.Rules)-1].Label != "generic_error" {
		t.Errorf("rules = %+v", listing.Rules)
	}
	if len(listing.Sources) != 3 || listing.Sources[2].Error == "" {
		t.Errorf("sources = %+v", listing.Sources)
	}
}

func TestRunValidate(t *testing.T) {
	dir := t.TempDir()
	good := writeFile(t, dir, "good.yaml", "mode: structured\nwindow_threshold: 4\n")

	out, err := execute(t, NewValidateCommand(quiet()), good)
	if err != nil {
		t.Fatalf("validate failed: %v", err)
	}
	for _, want := range []string{"Configuration valid!", "Mode:             structured", "4/hour", "builtin: 6 rule(s)"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunValidate_Errors(t *testing.T) {
	dir := t.TempDir()
	badMode := writeFile(t, dir, "mode.yaml", "mode: fuzzy\n")
	badRules := writeFile(t, dir, "rules.yaml", "rule_files:\n  - "+filepath.Join(dir, "missing.yaml")+"\n")

	tests := map[string][]string{
		"no path":      nil,
		"missing file": {filepath.Join(dir, "nope.yaml")},
		"bad mode":     {badMode},
		"bad rules":    {badRules},
	}
	for name, args := range tests {
		t.Run(name, func(t *testing.T) {
			if _, err := execute(t, NewValidateCommand(quiet()), args...); err == nil {
				t.Error("expected validation error")
			}
		})
	}
}

func TestRunValidate_UsesGlobalConfig(t *testing.T) {
	g := quiet()
	g.ConfigPath = writeFile(t, t.TempDir(), "fwtriage.yaml", "window_threshold: 7\n")

	out, err := execute(t, NewValidateCommand(g))
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out, "7/hour") {
		t.Errorf("output = %s", out)
	}
}
