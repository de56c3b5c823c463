package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"

	"github.com/spf13/cobra"

	"github.com/lukman83/pkdeals/internal/models"
	"github.com/lukman83/pkdeals/internal/platform"
	"github.com/lukman83/pkdeals/internal/ui"
)

var crawlCmd = &cobra.Command{
	Use:   "crawl [brand-key...]",
	Short: "Crawl brand sale collections and store discounted products",
	Long: "Crawl the collections of the given brands (or every brand with --all), " +
		"keep discounted products that pass validation and upsert them by URL.",
	RunE: runCrawl,
}

func init() {
	crawlCmd.Flags().Bool("all", false, "Crawl every brand in the catalog")
	crawlCmd.Flags().StringP("format", "f", "table", "Output format: table, json")
	crawlCmd.Flags().Bool("quiet", false, "Print only the run summary")
	rootCmd.AddCommand(crawlCmd)
}

func runCrawl(cmd *cobra.Command, args []string) error {
	all, _ := cmd.Flags().GetBool("all")
	format, _ := cmd.Flags().GetString("format")
	quiet, _ := cmd.Flags().GetBool("quiet")

	if !all && len(args) == 0 {
		return fmt.Errorf("name at least one brand key or pass --all")
	}
	if format != "table" && format != "json" {
		return fmt.Errorf("unknown format %q (want table or json)", format)
	}

	ctx, stop := signalContext()
	defer stop()

	a, err := newApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	var brands []models.Brand
	if all {
		brands = a.catalog.Brands
	} else if brands, err = a.catalog.Select(args...); err != nil {
		return err
	}

	spin := ui.NewSpinner(os.Stderr)
	spin.Start(fmt.Sprintf("Crawling %d brand(s)...", len(brands)))
	ctx = platform.WithProgress(ctx, spin.Update)

	var (
		mu       sync.Mutex
		products []models.Product
	)
	onStored := func(p *models.Product) {
		if quiet {
			return
		}
		mu.Lock()
		products = append(products, *p)
		mu.Unlock()
	}

	stats, err := a.crawl(ctx, brands, onStored)
	spin.Stop()
	if err != nil {
		return err
	}

	if format == "json" {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(crawlOutput{Stats: stats, Products: products})
	}

	printProductsTable(products)
	if len(products) > 0 {
		fmt.Fprintln(os.Stdout)
		printCategoryBreakdown(products)
	}
	printStats(stats)
	return nil
}
