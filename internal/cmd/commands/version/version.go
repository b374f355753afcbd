package version

import (
	"github.com/marineinst/doimint/internal/cmd/base"
	"github.com/marineinst/doimint/internal/version"
)

type Command struct {
	*base.Command
}

func (c *Command) Synopsis() string {
	return "Print the version"
}

func (c *Command) Help() string {
	return "Usage: doimint version"
}

func (c *Command) Run(args []string) int {
	c.UI.Output(version.Version)
	return 0
}
