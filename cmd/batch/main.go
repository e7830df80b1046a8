package main

// Daily EDINET ingestion:
//   go run ./cmd/batch --date 2025-03-09
//   go run ./cmd/batch --auto-date-mode time_based

import (
	"context"
	"flag"
	"log"
	"os"

	"github.com/noknok06/stock-dialy-sub000/internal/batch"
	"github.com/noknok06/stock-dialy-sub000/internal/companies"
	"github.com/noknok06/stock-dialy-sub000/internal/disclosures"
	"github.com/noknok06/stock-dialy-sub000/internal/edinet"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/config"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/storage/db"
)

func main() {
	cfg := config.Load()

	dateFlag := flag.String("date", "", "target date YYYY-MM-DD (JST)")
	todayFlag := flag.Bool("today", false, "target today (JST)")
	yesterdayFlag := flag.Bool("yesterday", false, "target yesterday (JST)")
	forceFlag := flag.Bool("force", false, "re-run a day that already succeeded")
	nightBatchTime := flag.String("night-batch-time", cfg.NightBatchTime, "HH:MM threshold for time_based date resolution")
	autoDateMode := flag.String("auto-date-mode", cfg.AutoDateMode, "time_based, yesterday_only or today_only")
	companyMode := flag.String("company-update-mode", cfg.CompanyUpdateMode, "skip, incremental or full")
	chunkSize := flag.Int("chunk-size", cfg.BatchChunkSize, "documents per upsert transaction")
	retryCount := flag.Int("retry-count", cfg.EdinetRetryCount, "EDINET request attempts")
	dbRetryCount := flag.Int("db-retry-count", cfg.BatchDBRetryCount, "chunk retry attempts on lock contention")
	stopOnError := flag.Bool("stop-on-error", false, "abort the batch on the first chunk failure")
	sendNotification := flag.Bool("send-notification", false, "emit the admin notification summary")
	flag.Parse()

	targetDate, err := batch.ResolveTargetDate(batch.DateOptions{
		Explicit:       *dateFlag,
		Today:          *todayFlag,
		Yesterday:      *yesterdayFlag,
		AutoMode:       *autoDateMode,
		NightBatchTime: *nightBatchTime,
	})
	if err != nil {
		log.Printf("resolve target date: %v", err)
		os.Exit(2)
	}

	ctx := context.Background()
	opts := db.OptionsFromEnv(db.DefaultBatchOptions())
	sqlDB, err := db.Connect(ctx, cfg.DatabaseURL, opts)
	if err != nil {
		log.Printf("failed to connect database: %v", err)
		os.Exit(1)
	}
	defer sqlDB.Close()

	reconciler := &batch.Reconciler{
		Edinet: edinet.NewClient(edinet.Options{
			BaseURL:     cfg.EdinetBaseURL,
			APIKey:      cfg.EdinetAPIKey,
			UserAgent:   cfg.EdinetUserAgent,
			MinInterval: cfg.EdinetMinInterval,
			MaxAttempts: *retryCount,
			Timeout:     cfg.EdinetTimeout,
		}),
		Docs:              &disclosures.PGRepo{DB: sqlDB},
		Batches:           &disclosures.PGBatchRepo{DB: sqlDB},
		Companies:         &companies.PGRepo{DB: sqlDB},
		ChunkSize:         *chunkSize,
		DBRetryCount:      *dbRetryCount,
		StopOnError:       *stopOnError,
		CompanyUpdateMode: *companyMode,
		SendNotification:  *sendNotification,
	}

	stats, err := reconciler.Run(ctx, targetDate, *forceFlag)
	if err != nil {
		log.Printf("batch failed for %s: %v", targetDate.Format("2006-01-02"), err)
		os.Exit(1)
	}
	if stats.Aborted {
		log.Printf("batch for %s already succeeded; use --force to re-run", targetDate.Format("2006-01-02"))
		return
	}
	log.Printf("batch for %s done: listed=%d created=%d updated=%d chunks_failed=%d companies_created=%d companies_updated=%d",
		targetDate.Format("2006-01-02"),
		stats.TotalListed,
		stats.Created,
		stats.Updated,
		stats.ChunksFailed,
		stats.CompaniesCreated,
		stats.CompaniesUpdated,
	)
}
