package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/patchwave/patchwave/internal/config"
	"github.com/patchwave/patchwave/internal/domain"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Check the catalog file without touching anything",
	Long: `Parses and validates the catalog: spec shapes, unique names,
dependency ordering, and phase targets. Exits non-zero when the catalog
could not survive an install.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		catalog, err := loadCatalog()
		if err != nil {
			return err
		}

		counts := map[domain.ObjectKind]int{}
		for _, e := range catalog {
			counts[e.Kind]++
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s: ok (%d groups, %d packages, %d rules)\n",
			catalogPath, counts[domain.KindGroup], counts[domain.KindPackage], counts[domain.KindRule])
		return nil
	},
}

func loadCatalog() (domain.Catalog, error) {
	return config.LoadCatalog(catalogPath, cfg.SharePath)
}
