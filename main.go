package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"catalog-scraper/config"
	"catalog-scraper/utils"
)

var (
	cfg    = config.Load()
	logger = utils.NewLogger()
)

var rootCmd = &cobra.Command{
	Use:           "catalog",
	Short:         "catalog scrapes dealership listings into the site's vehicle catalog.",
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		logger.SetLevel(cfg.LogLevel)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&cfg.OutputPath, "output", "o", cfg.OutputPath, "catalog JSON file")
	rootCmd.PersistentFlags().StringVar(&cfg.LogLevel, "log-level", cfg.LogLevel, "info or debug")
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		logger.Error("%v", err)
		os.Exit(1)
	}
}
