package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"superstore/internal/dataset"
	"superstore/internal/store"
)

func newImportCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "import",
		Short: "Read the dataset into a sqlite file for faster startup",
		RunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg.Data.Path == "" || a.cfg.Data.DB == "" {
				return errors.New("import needs both --data and --db")
			}
			start := time.Now()
			orders, err := dataset.Load(a.cfg.Data.Path)
			if err != nil {
				return err
			}
			if err := store.Import(cmd.Context(), orders, a.cfg.Data.DB); err != nil {
				return err
			}
			a.logger.Info("import complete",
				zap.String("data", a.cfg.Data.Path),
				zap.String("db", a.cfg.Data.DB),
				zap.Int("orders", len(orders)),
				zap.Duration("took", time.Since(start)),
			)
			fmt.Fprintf(cmd.OutOrStdout(), "imported %d orders into %s\n", len(orders), a.cfg.Data.DB)
			return nil
		},
	}
}
