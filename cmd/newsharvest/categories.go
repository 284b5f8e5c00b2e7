package main

import (
	"github.com/pevans/newsharvest"
	"github.com/spf13/cobra"
)

func categoriesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "categories",
		Short: "List the configured categories and their limits",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}

			cats, err := newsharvest.SelectCategories(cfg, nil)
			if err != nil {
				return err
			}

			printCategories(cmd.OutOrStdout(), cfg, cats)
			return nil
		},
	}
}
