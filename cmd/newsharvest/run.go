package main

import (
	"fmt"
	"sort"

	"github.com/pevans/newsharvest"
	"github.com/pevans/newsharvest/browser"
	"github.com/pevans/newsharvest/config"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func runCommand() *cobra.Command {
	var (
		output     string
		sqlitePath string
		mode       string
		controlURL string
		categories []string
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Harvest every configured category and write the results",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if output != "" {
				cfg.Output.CSV = output
			}
			if sqlitePath != "" {
				cfg.Output.SQLite = sqlitePath
			}
			if mode != "" {
				cfg.Browser.Mode = mode
			}
			if controlURL != "" {
				cfg.Browser.ControlURL = controlURL
			}
			if err := cfg.Validate(); err != nil {
				return err
			}

			log, err := newLogger(cfg)
			if err != nil {
				return err
			}
			defer log.Sync()

			cats, err := newsharvest.SelectCategories(cfg, categories)
			if err != nil {
				return err
			}

			log.Info("starting harvest",
				zap.String("base_url", cfg.BaseURL),
				zap.String("mode", cfg.Browser.Mode),
				zap.Int("categories", len(cats)),
			)

			pipeline := newsharvest.NewPipeline(cfg, opener(cfg), log)
			summary, err := pipeline.Run(cmd.Context(), cats)
			if err != nil {
				log.Error("harvest failed", zap.Error(err))
				return err
			}

			keys := make([]string, 0, len(summary.PerCategory))
			for key := range summary.PerCategory {
				keys = append(keys, key)
			}
			sort.Strings(keys)

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Saved %d rows to %s\n", summary.Items, cfg.Output.CSV)
			for _, key := range keys {
				fmt.Fprintf(out, "  %-10s %d\n", key, summary.PerCategory[key])
			}
			return nil
		},
	}

	cmd.Flags().StringVarP(&output, "output", "o", "", "CSV output path (overrides output.csv)")
	cmd.Flags().StringVar(&sqlitePath, "sqlite", "", "also write items to this SQLite database")
	cmd.Flags().StringVar(&mode, "mode", "", "rendering agent: rod or static")
	cmd.Flags().StringVar(&controlURL, "control-url", "", "connect to a running Chrome instead of launching one")
	cmd.Flags().StringSliceVarP(&categories, "category", "c", nil, "harvest only these categories (repeatable)")

	return cmd
}

// opener picks the rendering agent for cfg.
func opener(cfg *config.Config) browser.Opener {
	if cfg.Browser.Mode == config.ModeStatic {
		return browser.NewStaticOpener(nil, cfg.PageLoadTimeout)
	}
	return browser.NewRodOpener(browser.RodConfig{
		ControlURL:      cfg.Browser.ControlURL,
		Headless:        cfg.Browser.Headless,
		PageLoadTimeout: cfg.PageLoadTimeout,
	})
}
