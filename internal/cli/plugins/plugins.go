// Package plugins runs external fwtriage-<command> binaries.
//
// Rendering collaborators (charts, heatmaps, PDF bundles) live outside the
// core binary. They read the CSV/JSON tables exported by analyze and compare
// and are invoked as subcommands, the way kubectl and git handle plugins.
package plugins

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
)

// Prefix is prepended to a command name to form the plugin binary name.
const Prefix = "fwtriage-"

// EnvPluginDir overrides the per-user plugin directory.
const EnvPluginDir = "FWTRIAGE_PLUGIN_DIR"

// EnvConfig is passed to plugins with the path given to --config, if any.
const EnvConfig = "FWTRIAGE_CONFIG"

// KnownPlugins lists plugins that have official implementations available.
// These get special error messages directing users where to obtain them.
var KnownPlugins = map[string]string{
	"render": "Renders heatmaps, category charts and PDF release bundles from exported tables.\n" +
		"Usage: fwtriage analyze fw.log --export events.csv && fwtriage render events.csv",
}

// ErrPluginNotFound is returned when no plugin binary can be located.
var ErrPluginNotFound = errors.New("plugin not found")

// Dir returns the per-user plugin directory.
func Dir() (string, error) {
	if dir := os.Getenv(EnvPluginDir); dir != "" {
		return dir, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, ".fwtriage", "plugins"), nil
}

// FindPlugin searches for a plugin binary named fwtriage-<command> in:
//  1. the directory of the fwtriage binary
//  2. the plugin directory (see Dir)
//  3. PATH
func FindPlugin(command string) (string, error) {
	if command == "" || strings.ContainsAny(command, `/\`) {
		return "", ErrPluginNotFound
	}
	pluginName := Prefix + command

	if execPath, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(execPath), pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if dir, err := Dir(); err == nil {
		candidate := filepath.Join(dir, pluginName)
		if isExecutable(candidate) {
			return candidate, nil
		}
	}

	if path, err := exec.LookPath(pluginName); err == nil {
		return path, nil
	}

	return "", ErrPluginNotFound
}

// Execute runs a plugin with stdio attached and returns its exit code.
// configPath, when set, is exported to the plugin as FWTRIAGE_CONFIG.
func Execute(ctx context.Context, pluginPath string, args []string, configPath string) int {
	cmd := exec.CommandContext(ctx, pluginPath, args...) // #nosec G204 -- plugin path comes from FindPlugin
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	if configPath != "" {
		cmd.Env = append(cmd.Env, EnvConfig+"="+configPath)
	}

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr.ExitCode()
		}
		fmt.Fprintf(os.Stderr, "Error executing plugin: %v\n", err)
		return 2
	}

	return 0
}

// FormatNotFoundError returns a helpful error message when a plugin is not found.
func FormatNotFoundError(command string) string {
	var sb strings.Builder

	fmt.Fprintf(&sb, "unknown command %q for \"fwtriage\"\n", command)

	if info, ok := KnownPlugins[command]; ok {
		fmt.Fprintf(&sb, "\n%q is available as a plugin.\n", command)
		sb.WriteString(info)
		sb.WriteString("\n\nInstall the plugin binary as one of:\n")
	} else {
		sb.WriteString("\nIf this is a plugin, install the binary as one of:\n")
	}

	fmt.Fprintf(&sb, "  - %s%s in the same directory as fwtriage\n", Prefix, command)
	fmt.Fprintf(&sb, "  - ~/.fwtriage/plugins/%s%s (or $%s)\n", Prefix, command, EnvPluginDir)
	fmt.Fprintf(&sb, "  - %s%s anywhere in your PATH\n", Prefix, command)

	sb.WriteString("\nRun 'fwtriage --help' for usage.")

	return sb.String()
}

func isExecutable(path string) bool {
	info, err := os.Stat(path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular() && info.Mode()&0o111 != 0
}
