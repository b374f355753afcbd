package scan

import (
	"flag"
	"fmt"
	"os"

	"github.com/marineinst/doimint/internal/cmd/base"
	"github.com/marineinst/doimint/internal/config"
	"github.com/marineinst/doimint/internal/db"
	"github.com/marineinst/doimint/pkg/models"
)

type Command struct {
	*base.Command

	flagConfig string
}

func (c *Command) Synopsis() string {
	return "List publications pending DOI issuance"
}

func (c *Command) Help() string {
	return `Usage: doimint scan

This command lists the IDs of all publications that would be issued a DOI by
the next mint run. Nothing is registered or written.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("scan", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"[DOIMINT_CONFIG] Path to the HCL configuration file",
	)

	return f
}

func (c *Command) Run(args []string) int {
	f := c.Flags()
	if err := f.Parse(args); err != nil {
		c.UI.Error(fmt.Sprintf("error parsing flags: %v", err))
		return 1
	}

	configPath := c.flagConfig
	if val, ok := os.LookupEnv("DOIMINT_CONFIG"); ok && configPath == "" {
		configPath = val
	}
	if configPath == "" {
		c.UI.Error("configuration file is required (--config or DOIMINT_CONFIG)")
		return 1
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error loading configuration: %v", err))
		return 1
	}

	database, err := db.NewDB(cfg.Postgres, c.Log.Named("scan"))
	if err != nil {
		c.UI.Error(fmt.Sprintf("error connecting to the publication store: %v", err))
		return 1
	}

	ids, err := models.PendingPublicationIDs(database, cfg.ExcludedPublicationIDs())
	if err != nil {
		c.UI.Error(fmt.Sprintf("error scanning for pending publications: %v", err))
		return 1
	}

	if len(ids) == 0 {
		c.UI.Info("All published datasets already have DOIs")
		return 0
	}

	c.UI.Info(fmt.Sprintf("%d publications pending DOI issuance:", len(ids)))
	for _, id := range ids {
		c.UI.Output(fmt.Sprintf("%d", id))
	}
	return 0
}
