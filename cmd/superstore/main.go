// Command superstore serves and summarises the Superstore sales dataset.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"superstore/internal/config"
	"superstore/internal/logging"
	"superstore/internal/store"
	"superstore/internal/watch"
)

// app carries the state shared by every subcommand.
type app struct {
	configPath string
	dataPath   string
	dbPath     string
	verbose    bool

	cfg    *config.Config
	logger *zap.Logger
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "superstore",
		Short:         "Interactive sales dashboard for the Superstore dataset",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	pf := root.PersistentFlags()
	pf.StringVar(&a.configPath, "config", "superstore.yaml", "path to the YAML config file")
	pf.StringVar(&a.dataPath, "data", "", "dataset file (.xlsx, .xls or .csv)")
	pf.StringVar(&a.dbPath, "db", "", "sqlite file written by import")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging")

	root.AddCommand(
		newServeCmd(a),
		newImportCmd(a),
		newSummaryCmd(a),
		newExportCmd(a),
	)
	return root
}

// setup loads the config, applies flag overrides and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("data") {
		cfg.Data.Path = a.dataPath
	}
	if flags.Changed("db") {
		cfg.Data.DB = a.dbPath
	}
	if f := flags.Lookup("addr"); f != nil && f.Changed {
		cfg.Server.Addr = f.Value.String()
	}
	if f := flags.Lookup("watch"); f != nil && f.Changed {
		cfg.Data.Watch = f.Value.String() == "true"
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	a.cfg = cfg

	a.logger, err = logging.New(cfg.Logging, a.verbose)
	return err
}

// open returns a store for the configured data. An imported database wins
// over the spreadsheet unless the spreadsheet is being watched.
func (a *app) open(ctx context.Context) (*store.Store, error) {
	if a.cfg.Data.DB != "" && !a.cfg.Data.Watch {
		a.logger.Debug("opening database", zap.String("db", a.cfg.Data.DB))
		return store.Open(ctx, a.cfg.Data.DB)
	}
	if a.cfg.Data.Path == "" {
		return nil, fmt.Errorf("no dataset: set --data or data.path")
	}
	a.logger.Debug("loading dataset", zap.String("path", a.cfg.Data.Path))
	return watch.Open(ctx, a.cfg.Data.Path)
}
