package main

import (
	"fmt"

	"github.com/pevans/newsharvest/newsfeed"
	"github.com/spf13/cobra"
)

func itemsCommand() *cobra.Command {
	var (
		sqlitePath string
		category   string
		format     string
		limit      int
	)

	cmd := &cobra.Command{
		Use:   "items",
		Short: "Show items stored by the last run",
		Long: `Show items from the SQLite database written by "run --sqlite".
The database holds the rows of the most recent successful run.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if sqlitePath == "" {
				cfg, err := loadConfig()
				if err != nil {
					return err
				}
				sqlitePath = cfg.Output.SQLite
			}
			if sqlitePath == "" {
				return fmt.Errorf("no database: pass --sqlite or set output.sqlite")
			}

			store, err := newsfeed.NewNewsStore(sqlitePath)
			if err != nil {
				return err
			}
			defer store.Close()

			items, err := store.List(cmd.Context(), category)
			if err != nil {
				return err
			}
			total := len(items)
			if limit > 0 && len(items) > limit {
				items = items[:limit]
			}

			out := cmd.OutOrStdout()
			switch format {
			case "table":
				printItemsTable(out, items, total)
			case "json":
				return printItemsJSON(out, items, total)
			case "compact":
				printItemsCompact(out, items)
			default:
				return fmt.Errorf("unknown format %q (use table, json or compact)", format)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "database to read (defaults to output.sqlite)")
	cmd.Flags().StringVarP(&category, "category", "c", "", "only show this category")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "output format: table, json or compact")
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum items to show (0 for all)")

	return cmd
}
