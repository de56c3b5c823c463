package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/lukman83/pkdeals/config"
)

var brandsCmd = &cobra.Command{
	Use:   "brands",
	Short: "List the brands in the catalog",
	RunE:  runBrands,
}

func init() {
	brandsCmd.Flags().StringP("format", "f", "table", "Output format: table, json")
	rootCmd.AddCommand(brandsCmd)
}

func runBrands(cmd *cobra.Command, args []string) error {
	format, _ := cmd.Flags().GetString("format")

	catalog, err := config.LoadCatalog(cfg.BrandsFile)
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(catalog.Brands)
	}

	fmt.Fprintf(os.Stdout, "%-16s %-24s %-9s %s\n", "KEY", "BRAND", "PLATFORM", "COLLECTIONS")
	fmt.Fprintf(os.Stdout, "%s\n", strings.Repeat("-", 64))
	for _, b := range catalog.Brands {
		fmt.Fprintf(os.Stdout, "%-16s %-24s %-9s %d\n",
			truncate(b.Key, 16), truncate(b.Name, 24), b.Platform, len(b.Collections))
	}
	return nil
}
