package commands

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
)

func diagnose(t *testing.T, g *GlobalOptions, verbose bool, files ...string) string {
	t.Helper()
	var buf bytes.Buffer
	if err := runDiagnose(context.Background(), &buf, g, files, &DiagnoseOptions{Verbose: verbose}); err != nil {
		t.Fatalf("runDiagnose() error = %v", err)
	}
	return buf.String()
}

func TestRunDiagnose_Defaults(t *testing.T) {
	out := diagnose(t, quiet(), false)

	for _, want := range []string{"[PASS] Config", "using defaults", "[PASS] Rule Source: builtin", "0 errors"} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDiagnose_MissingConfig(t *testing.T) {
	g := quiet()
	g.ConfigPath = filepath.Join(t.TempDir(), "nope.yaml")

	out := diagnose(t, g, false)
	if !strings.Contains(out, "[FAIL] Config") || !strings.Contains(out, "fwtriage detect") {
		t.Errorf("output = %s", out)
	}
	if strings.Contains(out, "Rule Source") {
		t.Error("later checks should not run without a config")
	}
}

func TestRunDiagnose_InvalidConfig(t *testing.T) {
	g := quiet()
	g.ConfigPath = writeFile(t, t.TempDir(), "bad.yaml", "mode: [\n")

	out := diagnose(t, g, false)
	if !strings.Contains(out, "[FAIL] Config") || !strings.Contains(out, "YAML syntax") {
		t.Errorf("output = %s", out)
	}
}

func TestRunDiagnose_RuleSourcesAndLogs(t *testing.T) {
	dir := t.TempDir()
	g := quiet()
	g.ConfigPath = writeFile(t, dir, "fwtriage.yaml", "rule_files:\n  - "+filepath.Join(dir, "missing.yaml")+"\n")

	good := writeFile(t, dir, "good.log", acceptedLog)
	noTS := writeFile(t, dir, "nots.log", "boot ok\nsensor failed\n")
	empty := writeFile(t, dir, "empty.log", "")

	out := diagnose(t, g, false, good, noTS, empty, dir)

	for _, want := range []string{
		"[FAIL] Rule Source: " + filepath.Join(dir, "missing.yaml"),
		"[PASS] Log File: " + good,
		"recommended mode: structured",
		"[FAIL] Log File: " + noTS,
		"[WARN] Log File: " + empty,
		"Path is a directory",
		"Fix the errors above",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

func TestRunDiagnose_Webhooks(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusMethodNotAllowed)
	}))
	defer server.Close()

	dir := t.TempDir()
	g := quiet()
	g.ConfigPath = writeFile(t, dir, "fwtriage.yaml", `webhooks:
  - name: gate
    url: `+server.URL+`
    token: secret
`)

	out := diagnose(t, g, true)
	for _, want := range []string{
		"[PASS] Webhook: gate",
		"Token: configured",
		"Webhook Connectivity: gate",
		"status 405",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}
