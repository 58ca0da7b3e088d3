// Package main provides the entry point for the devc CLI.
package main

import (
	"os"

	"github.com/s-retlaw/devc/internal/cli"
	devcerrors "github.com/s-retlaw/devc/internal/errors"
	"github.com/s-retlaw/devc/internal/ui"
)

func main() {
	err := cli.Execute()
	if err != nil {
		ui.PrintError(err)
	}
	os.Exit(devcerrors.ExitCode(err))
}
