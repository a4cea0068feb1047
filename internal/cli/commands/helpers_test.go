package commands

import (
	"bytes"
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
)

const acceptedLog = `[2025-05-21 10:01:00] ERROR CAN-Bus timeout on channel 4
[2025-05-21 10:01:30] INFO System nominal
[2025-05-21 10:02:00] ERROR Firmware exception at address 0x5C4F
[2025-05-21 10:05:00] WARN Voltage drop detected: 10.49V
`

const rejectedLog = `[2025-05-21 10:01:00] ERROR Firmware exception at address 0x5C4F
[2025-05-21 10:02:00] ERROR Firmware exception at address 0x5C50
[2025-05-21 10:03:00] ERROR Sensor failed: ID 3
`

// quiet keeps command logs out of test output.
func quiet() *GlobalOptions {
	return &GlobalOptions{LogLevel: "error"}
}

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing %s: %v", name, err)
	}
	return path
}

func execute(t *testing.T, cmd *cobra.Command, args ...string) (string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), err
}

func resetExitCode(t *testing.T) {
	t.Helper()
	ExitCode = 0
	t.Cleanup(func() { ExitCode = 0 })
}
