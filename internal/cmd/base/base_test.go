package base

import (
	"flag"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFlagSet_Help(t *testing.T) {
	f := NewFlagSet(flag.NewFlagSet("test", flag.ContinueOnError))

	var cfg string
	var strict bool
	f.StringVar(&cfg, "config", "", "Path to the configuration file")
	f.BoolVar(&strict, "strict", false, "Fail the run on any error")

	help := f.Help()
	assert.Contains(t, help, "Options:")
	assert.Contains(t, help, "-config")
	assert.Contains(t, help, "Path to the configuration file")
	assert.Contains(t, help, "-strict")
	assert.Contains(t, help, "(default: false)")
}
