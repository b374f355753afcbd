package cmd

import (
	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"

	"github.com/marineinst/doimint/internal/cmd/base"
	"github.com/marineinst/doimint/internal/cmd/commands/mint"
	"github.com/marineinst/doimint/internal/cmd/commands/scan"
	verscmd "github.com/marineinst/doimint/internal/cmd/commands/version"
)

// Commands is the mapping of all available CLI commands.
var Commands map[string]cli.CommandFactory

func initCommands(log hclog.Logger, ui cli.Ui) {
	baseCommand := &base.Command{
		UI:  ui,
		Log: log,
	}

	Commands = map[string]cli.CommandFactory{
		"mint": func() (cli.Command, error) {
			return &mint.Command{Command: baseCommand}, nil
		},
		"scan": func() (cli.Command, error) {
			return &scan.Command{Command: baseCommand}, nil
		},
		"version": func() (cli.Command, error) {
			return &verscmd.Command{Command: baseCommand}, nil
		},
	}
}
