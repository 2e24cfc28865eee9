package main

import (
	"fmt"
	"os"

	"nycdev-scraper/config"
	"nycdev-scraper/models"
	"nycdev-scraper/scraper/opendata"
	"nycdev-scraper/scraper/trd"
	"nycdev-scraper/scraper/yimby"
	"nycdev-scraper/services"
	"nycdev-scraper/storage"
	"nycdev-scraper/utils"
)

// fetcher is satisfied by every source scraper.
type fetcher interface {
	Fetch() ([]*models.Record, error)
}

func main() {
	logger := utils.NewLogger()
	cfg := config.Load()

	logger.Info("=== NYC Development Scraper starting ===")
	logger.Info("Config — lookback: %dh | TRD links: %d | concurrency: %d | rate: %dms | DOB general-only: %v",
		cfg.LookbackHours, cfg.TRDMaxLinks, cfg.MaxConcurrency, cfg.RateLimitMs, cfg.DOBOnlyGeneral)

	sources := []struct {
		name    string
		fetcher fetcher
	}{
		{"YIMBY", yimby.New(cfg, logger)},
		{"The Real Deal", trd.New(cfg, logger)},
		{"NYC Open Data", opendata.New(cfg, logger)},
	}

	var records []*models.Record
	failed := 0
	for _, src := range sources {
		recs, err := src.fetcher.Fetch()
		if err != nil {
			logger.Error("%s fetch failed: %v", src.name, err)
			failed++
		}
		logger.Info("%s: %d records", src.name, len(recs))
		records = append(records, recs...)
	}

	if len(records) == 0 {
		if failed > 0 {
			logger.Error("All sources failed and nothing was fetched — aborting before any write")
			os.Exit(1)
		}
		logger.Info("No records within the lookback window — nothing to do")
		return
	}

	cleaner := services.NewCleaner(logger)
	cleaned := cleaner.Clean(records)
	if len(cleaned) == 0 {
		logger.Info("No records with developer information — nothing to append")
		return
	}

	rows := make([][]string, 0, len(cleaned))
	for _, rec := range cleaned {
		rows = append(rows, rec.Row())
	}
	batch := models.Dataset{Header: models.Columns, Rows: rows}

	csvStore, err := storage.NewCSVStore(cfg.CSVOutputPath)
	if err != nil {
		logger.Fatal("Failed to open CSV store: %v", err)
	}
	defer csvStore.Close()

	reconciler := services.NewReconciler(logger)
	appended, err := reconciler.Run(csvStore, batch)
	if err != nil {
		logger.Fatal("CSV reconcile failed: %v", err)
	}
	logger.Info("CSV: appended %d new rows to %s", len(appended), cfg.CSVOutputPath)

	if cfg.PostgresEnabled {
		pgStore, err := storage.NewPostgresStore(cfg.DSN())
		if err != nil {
			logger.Error("PostgreSQL unavailable, skipping archive: %v", err)
		} else {
			defer pgStore.Close()
			pgAppended, err := reconciler.Run(pgStore, batch)
			if err != nil {
				logger.Error("PostgreSQL reconcile failed: %v", err)
			} else {
				logger.Info("PostgreSQL: appended %d new rows", len(pgAppended))
			}
		}
	}

	summary := services.NewSummaryService(logger)
	summary.Print(summary.Generate(len(records), len(cleaned), appended))

	fmt.Printf("  Done. History → %s\n\n", cfg.CSVOutputPath)
}
