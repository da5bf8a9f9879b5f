package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"superstore/internal/console"
	"superstore/internal/dashboard"
	"superstore/internal/export"
	"superstore/internal/filter"
)

type filterFlags struct {
	start, end              string
	regions, states, cities []string
}

func (ff *filterFlags) register(cmd *cobra.Command) {
	f := cmd.Flags()
	f.StringVar(&ff.start, "start", "", "first order date, YYYY-MM-DD (default: earliest)")
	f.StringVar(&ff.end, "end", "", "last order date, YYYY-MM-DD (default: latest)")
	f.StringSliceVar(&ff.regions, "region", nil, "region(s) to include")
	f.StringSliceVar(&ff.states, "state", nil, "state(s) to include")
	f.StringSliceVar(&ff.cities, "city", nil, "city(ies) to include")
}

func (ff *filterFlags) filter() (filter.Filter, error) {
	return filter.Parse(ff.start, ff.end, ff.regions, ff.states, ff.cities)
}

func newSummaryCmd(a *app) *cobra.Command {
	var ff filterFlags
	cmd := &cobra.Command{
		Use:   "summary",
		Short: "Print totals and breakdowns for a selection",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			d, err := dashboard.Build(cmd.Context(), s, f)
			if err != nil {
				return err
			}
			console.PrintSummary(cmd.OutOrStdout(), d)
			return nil
		},
	}
	ff.register(cmd)
	return cmd
}

const allTables = "all"

func newExportCmd(a *app) *cobra.Command {
	var (
		ff    filterFlags
		table string
		out   string
	)
	names := make([]string, 0, len(dashboard.Downloads)+1)
	for _, dl := range dashboard.Downloads {
		names = append(names, dl.Name)
	}
	names = append(names, allTables)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a dashboard table to an xlsx file",
		RunE: func(cmd *cobra.Command, args []string) error {
			f, err := ff.filter()
			if err != nil {
				return err
			}
			if table != allTables {
				if _, ok := dashboard.LookupDownload(table); !ok {
					return fmt.Errorf("%w: %q (want one of %s)", dashboard.ErrUnknownTable, table, strings.Join(names, ", "))
				}
			}
			s, err := a.open(cmd.Context())
			if err != nil {
				return err
			}
			defer s.Close()

			if table == allTables {
				if out == "" {
					out = "Superstore.xlsx"
				}
				d, err := dashboard.Build(cmd.Context(), s, f)
				if err != nil {
					return err
				}
				sheets := make([]export.Sheet, 0, len(dashboard.Downloads))
				for _, dl := range dashboard.Downloads {
					sheet, err := d.Sheet(cmd.Context(), s, dl.Name)
					if err != nil {
						return err
					}
					sheets = append(sheets, sheet)
				}
				if err := export.WriteFile(out, sheets...); err != nil {
					return err
				}
			} else {
				data, dl, err := dashboard.Workbook(cmd.Context(), s, f, table)
				if err != nil {
					return err
				}
				if out == "" {
					out = dl.FileName
				}
				if err := os.WriteFile(out, data, 0644); err != nil {
					return err
				}
			}
			fmt.Fprintf(cmd.OutOrStdout(), "wrote %s\n", out)
			return nil
		},
	}
	ff.register(cmd)
	cmd.Flags().StringVar(&table, "table", "", "table to export: "+strings.Join(names, ", "))
	cmd.Flags().StringVarP(&out, "out", "o", "", "output file (default: the table's file name)")
	_ = cmd.MarkFlagRequired("table")
	return cmd
}
