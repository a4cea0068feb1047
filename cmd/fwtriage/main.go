// fwtriage - firmware log triage and release gate
//
// fwtriage classifies the errors in firmware test logs, reports hourly
// critical windows, and decides whether a build may be released.
package main

import (
	"os"

	"github.com/ccollicutt/fwtriage/internal/cli"
)

func main() {
	os.Exit(cli.Execute())
}
