package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"catalog-scraper/importer"
	"catalog-scraper/models"
	"catalog-scraper/scraper/kaiandkaro"
	"catalog-scraper/scraper/provider"
	"catalog-scraper/services"
	"catalog-scraper/storage"
	"catalog-scraper/utils"
)

var scrapeCmd = &cobra.Command{
	Use:   "scrape",
	Short: "Scrape the listing pages and save the catalog.",
	RunE:  runScrape,
}

var importCmd = &cobra.Command{
	Use:   "import [--input <file.csv>]",
	Short: "Merge a CSV export into the catalog.",
	RunE:  runImport,
}

var reportFromPostgres bool

var reportCmd = &cobra.Command{
	Use:   "report [catalog.json | --postgres]",
	Short: "Print summary statistics for a saved catalog or its PostgreSQL mirror.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runReport,
}

func init() {
	f := scrapeCmd.Flags()
	f.IntVarP(&cfg.PagesToScrape, "pages", "p", cfg.PagesToScrape, "number of listing pages to visit")
	f.BoolVar(&cfg.Append, "append", cfg.Append, "merge into the existing catalog instead of replacing it")
	f.BoolVar(&cfg.Snapshot, "snapshot", cfg.Snapshot, "save each rendered page under the snapshot dir")
	f.StringVar(&cfg.Browser, "browser", cfg.Browser, "page provider: chromedp, rod or http")
	f.StringVar(&cfg.SourceURL, "url", cfg.SourceURL, "first listing page")

	reportCmd.Flags().BoolVar(&reportFromPostgres, "postgres", false, "read the PostgreSQL mirror instead of the JSON file")

	importCmd.Flags().StringVarP(&cfg.CSVInputPath, "input", "i", cfg.CSVInputPath, "CSV file to import")

	rootCmd.AddCommand(scrapeCmd, importCmd, reportCmd)
}

func runScrape(cmd *cobra.Command, _ []string) error {
	logger.Info("=== Catalog scrape starting ===")
	logger.Info("Config: pages %d | browser %s | append %v | output %s",
		cfg.PagesToScrape, cfg.Browser, cfg.Append, cfg.OutputPath)

	p, err := provider.New(cfg, logger)
	if err != nil {
		return err
	}
	defer p.Close()

	scraper := kaiandkaro.New(cfg, p, logger)
	if cfg.RawCSVPath != "" {
		csvWriter, err := storage.NewCSVWriter(cfg.RawCSVPath)
		if err != nil {
			return err
		}
		defer csvWriter.Close()
		scraper.WithRawWriter(csvWriter)
	}

	runner := &kaiandkaro.Runner{
		Scraper: scraper,
		Catalog: storage.NewJSONCatalog(cfg.OutputPath, logger),
	}

	if cfg.PostgresMirror {
		pgWriter, err := openMirror()
		if err != nil {
			return err
		}
		defer pgWriter.Close()
		runner.Mirror = pgWriter
	}

	start := time.Now()
	res, err := runner.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("scrape failed: %w", err)
	}
	logger.Info("Scrape finished in %s", time.Since(start).Round(time.Millisecond))

	printInsights(res.Listings)
	return nil
}

func runImport(cmd *cobra.Command, _ []string) error {
	if cfg.CSVInputPath == "" {
		return errors.New("usage: catalog import --input path/to/file.csv [--output path/to/file.json]")
	}

	catalog := storage.NewJSONCatalog(cfg.OutputPath, logger)
	im := &importer.Importer{InputPath: cfg.CSVInputPath, Catalog: catalog, Logger: logger}
	res, err := im.Run(cmd.Context())
	if err != nil {
		return fmt.Errorf("import failed: %w", err)
	}
	logger.Info("Written to %s", catalog.Path())

	listings, err := catalog.Read(cmd.Context())
	if err != nil {
		return err
	}
	logger.Debug("Import added or replaced %d of %d listings", res.Rows, res.Total)
	printInsights(listings)
	return nil
}

func runReport(cmd *cobra.Command, args []string) error {
	var source storage.CatalogReader
	if reportFromPostgres {
		pgWriter, err := openMirror()
		if err != nil {
			return err
		}
		defer pgWriter.Close()
		source = pgWriter
	} else {
		path := cfg.OutputPath
		if len(args) == 1 {
			path = args[0]
		}
		source = storage.NewJSONCatalog(path, logger)
	}

	listings, err := source.Read(cmd.Context())
	if err != nil {
		return err
	}
	printInsights(listings)
	return nil
}

func openMirror() (*storage.PostgresWriter, error) {
	pgWriter, err := storage.NewPostgresWriter(cfg.DSN(), &utils.RetryConfig{
		MaxAttempts: cfg.MaxRetries,
		BaseDelay:   2 * time.Second,
		Logger:      logger,
	})
	if err != nil {
		logger.Error("Failed to connect to PostgreSQL: %v", err)
		logger.Error("Make sure Docker is running: docker compose up -d")
		return nil, err
	}
	return pgWriter, nil
}

func printInsights(listings []*models.Listing) {
	insightSvc := services.NewInsightService(logger)
	insightSvc.Print(insightSvc.Generate(listings))
}
