package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
)

// version is overridden at build time with -ldflags.
var version = "dev"

var (
	// cfgFile is the YAML configuration file. Empty means built-in defaults.
	cfgFile string

	logLevel string
	debug    bool

	rootCmd = &cobra.Command{
		Use:   "newsharvest",
		Short: "Harvest news articles from infinitely scrolling category pages",
		Long: `newsharvest scrolls each configured category listing until enough
article links are found, extracts title, publish time, lead image and body
text from every article, and writes the result to a CSV file.`,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}
)

// Execute runs the root command. SIGINT and SIGTERM cancel the run.
func Execute() error {
	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	return rootCmd.ExecuteContext(ctx)
}

func init() {
	rootCmd.PersistentFlags().StringVar(
		&cfgFile,
		"config",
		getEnv("NEWSHARVEST_CONFIG", ""),
		"config file (NEWSHARVEST_CONFIG)",
	)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn or error")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug logging")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintf(cmd.OutOrStdout(), "newsharvest version %s\n", version)
		},
	})

	rootCmd.AddCommand(runCommand())
	rootCmd.AddCommand(categoriesCommand())
	rootCmd.AddCommand(itemsCommand())
}
