package cmd

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/lukman83/pkdeals/config"
)

var cfg *config.Config

var rootCmd = &cobra.Command{
	Use:   "pkdeals",
	Short: "pkdeals - discount ingestion for Pakistani fashion storefronts",
	Long: "Crawls Shopify storefront collections, keeps the genuinely discounted products " +
		"and upserts them into the catalog store. Also runs as an MCP server.",
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().String("brands", "", "Path to the brands catalog (default from $PKDEALS_BRANDS_FILE or brands.yml)")
	rootCmd.PersistentFlags().String("delay-profile", "", "Delay profile: cautious, normal, aggressive")
	rootCmd.PersistentFlags().Bool("respect-robots", true, "Respect robots.txt rules")
	rootCmd.PersistentFlags().String("proxy-file", "", "Path to proxy list file")
	rootCmd.PersistentFlags().String("store", "", "Catalog store: mongodb, sqlite, postgres")
	rootCmd.PersistentFlags().String("log-level", "", "Log level: debug, info, warn, error")
}

func initConfig() {
	var err error
	cfg, err = config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	// Override from flags
	flags := rootCmd.PersistentFlags()
	if v, _ := flags.GetString("brands"); v != "" {
		cfg.BrandsFile = v
	}
	if v, _ := flags.GetString("delay-profile"); v != "" {
		cfg.DelayProfile = v
	}
	if flags.Changed("respect-robots") {
		cfg.RespectRobots, _ = flags.GetBool("respect-robots")
	}
	if v, _ := flags.GetString("proxy-file"); v != "" {
		cfg.ProxyFile = v
	}
	if v, _ := flags.GetString("store"); v != "" {
		cfg.StoreType = v
	}
	if v, _ := flags.GetString("log-level"); v != "" {
		cfg.LogLevel = v
	}

	initLogger(cfg.SlogLevel())
}

func initLogger(level slog.Level) {
	h := slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{Level: level})
	slog.SetDefault(slog.New(h))
}
