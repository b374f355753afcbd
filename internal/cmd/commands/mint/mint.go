package mint

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/marineinst/doimint/internal/cmd/base"
	"github.com/marineinst/doimint/internal/config"
	"github.com/marineinst/doimint/internal/db"
	"github.com/marineinst/doimint/internal/issue"
	"github.com/marineinst/doimint/pkg/datacite"
	"github.com/marineinst/doimint/pkg/metadata"
	"github.com/marineinst/doimint/pkg/shortdoi"
)

type Command struct {
	*base.Command

	flagConfig string
	flagStrict bool
}

func (c *Command) Synopsis() string {
	return "Issue DOIs for all pending publications"
}

func (c *Command) Help() string {
	return `Usage: doimint mint

This command scans the publication store for published datasets without a
DOI, registers one for each with DataCite, resolves the short-DOI alias, and
writes the results back to the store. Failed publications are reported and
left pending for the next run.` + c.Flags().Help()
}

func (c *Command) Flags() *base.FlagSet {
	f := base.NewFlagSet(flag.NewFlagSet("mint", flag.ExitOnError))

	f.StringVar(
		&c.flagConfig, "config", "",
		"[DOIMINT_CONFIG] Path to the HCL configuration file",
	)
	f.BoolVar(
		&c.flagStrict, "strict", false,
		"Exit non-zero when any publication in the batch fails",
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

	log := c.Log.Named("mint")

	database, err := db.NewDB(cfg.Postgres, log)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error connecting to the publication store: %v", err))
		return 1
	}

	exporter, err := metadata.NewExporter(metadata.ExporterConfig{
		Renderer: metadata.NewSQLRenderer(database),
		Dir:      cfg.ExportDir,
		Logger:   log,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating metadata exporter: %v", err))
		return 1
	}

	registrar, err := datacite.NewClient(datacite.Config{
		BaseURL:   cfg.DataCite.BaseURL,
		AuthToken: cfg.DataCite.AuthToken,
		Timeout:   cfg.DataCiteTimeout(),
		Logger:    log,
	})
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating DataCite client: %v", err))
		return 1
	}

	resolver := shortdoi.NewClient(shortdoi.Config{
		BaseURL: cfg.ShortDOI.BaseURL,
		Timeout: cfg.ShortDOITimeout(),
		Logger:  log,
	})

	orch, err := issue.NewOrchestrator(
		issue.WithDatabase(database),
		issue.WithExporter(exporter),
		issue.WithRegistrar(registrar),
		issue.WithResolver(resolver),
		issue.WithExportDir(cfg.ExportDir),
		issue.WithPrefix(cfg.DataCite.Prefix),
		issue.WithExcludedIDs(cfg.ExcludedPublicationIDs()),
		issue.WithLogger(log),
	)
	if err != nil {
		c.UI.Error(fmt.Sprintf("error creating orchestrator: %v", err))
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	summary, runErr := orch.Run(ctx)
	for _, res := range summary.Results {
		if res.Succeeded() {
			c.UI.Info(res.Summary())
		} else {
			c.UI.Error(res.Summary())
		}
	}

	// A run that produced no results and an error never reached the batch:
	// the pending scan itself failed.
	if runErr != nil && len(summary.Results) == 0 {
		c.UI.Error(fmt.Sprintf("error scanning for pending publications: %v", runErr))
		return 1
	}

	if len(summary.Results) == 0 {
		c.UI.Info("All published datasets already have DOIs")
		return 0
	}

	c.UI.Info(fmt.Sprintf("Issued %d of %d pending DOIs", summary.Issued, len(summary.Results)))
	if summary.Failed > 0 && c.flagStrict {
		return 1
	}
	return 0
}
