// Package base carries the plumbing shared by all CLI commands.
package base

import (
	"bytes"
	"flag"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"github.com/mitchellh/cli"
)

// Command is embedded by every subcommand to share the UI and logger.
type Command struct {
	UI  cli.Ui
	Log hclog.Logger
}

// FlagSet wraps flag.FlagSet with help rendering for command Help() output.
type FlagSet struct {
	*flag.FlagSet
}

// NewFlagSet creates a new wrapped flag set.
func NewFlagSet(fs *flag.FlagSet) *FlagSet {
	return &FlagSet{FlagSet: fs}
}

// Help renders the flag defaults as an indented block for appending to a
// command's help text.
func (f *FlagSet) Help() string {
	var buf bytes.Buffer
	buf.WriteString("\n\nOptions:\n")

	f.VisitAll(func(fl *flag.Flag) {
		fmt.Fprintf(&buf, "  -%s\n      %s", fl.Name, fl.Usage)
		if fl.DefValue != "" {
			fmt.Fprintf(&buf, " (default: %s)", fl.DefValue)
		}
		buf.WriteString("\n")
	})

	return buf.String()
}
