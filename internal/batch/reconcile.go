package batch

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"strings"
	"time"

	"github.com/noknok06/stock-dialy-sub000/internal/companies"
	"github.com/noknok06/stock-dialy-sub000/internal/disclosures"
	"github.com/noknok06/stock-dialy-sub000/internal/edinet"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/metrics"
	"github.com/noknok06/stock-dialy-sub000/internal/shared/telemetry"
)

// Company update modes.
const (
	CompanyModeSkip        = "skip"
	CompanyModeIncremental = "incremental"
	CompanyModeFull        = "full"
)

const (
	defaultChunkSize    = 100
	defaultDBRetryCount = 3
)

// Lister is the slice of the EDINET client the reconciler needs.
type Lister interface {
	ListDocuments(ctx context.Context, dateISO string) ([]edinet.Document, error)
}

// Reconciler runs one daily ingestion: list the day's disclosures, upsert
// them in chunked transactions, then reconcile the company master.
type Reconciler struct {
	Edinet    Lister
	Docs      disclosures.Repo
	Batches   disclosures.BatchRepo
	Companies companies.Repo

	ChunkSize         int
	DBRetryCount      int
	StopOnError       bool
	CompanyUpdateMode string
	SendNotification  bool
}

// Stats summarizes one batch run.
type Stats struct {
	TargetDate       time.Time
	Aborted          bool
	TotalListed      int
	Created          int
	Updated          int
	ChunksFailed     int
	CompaniesCreated int
	CompaniesUpdated int
	Elapsed          time.Duration
}

// Run executes the batch for one JST calendar date. A SUCCESS day is not
// re-run unless force is set; partial work is preserved per chunk.
func (r *Reconciler) Run(ctx context.Context, targetDate time.Time, force bool) (Stats, error) {
	stats := Stats{TargetDate: targetDate}
	started := time.Now()
	dateISO := targetDate.Format("2006-01-02")

	if _, err := r.Batches.Begin(ctx, targetDate, force); err != nil {
		if errors.Is(err, disclosures.ErrBatchAlreadySucceeded) {
			telemetry.Warn("batch.already_succeeded", map[string]any{"date": dateISO})
			stats.Aborted = true
			return stats, nil
		}
		return stats, fmt.Errorf("begin batch %s: %w", dateISO, err)
	}

	docs, err := r.Edinet.ListDocuments(ctx, dateISO)
	if err != nil {
		return stats, r.fail(ctx, targetDate, stats, fmt.Errorf("list documents %s: %w", dateISO, err))
	}
	stats.TotalListed = len(docs)
	telemetry.Info("batch.listed", map[string]any{"date": dateISO, "count": len(docs)})

	rows := make([]disclosures.DocumentMetadata, 0, len(docs))
	for _, doc := range docs {
		if strings.TrimSpace(doc.DocID) == "" {
			continue
		}
		rows = append(rows, convertDocument(doc, targetDate))
	}

	for start := 0; start < len(rows); start += r.chunkSize() {
		end := start + r.chunkSize()
		if end > len(rows) {
			end = len(rows)
		}
		chunk := rows[start:end]
		result, err := r.upsertChunkWithRetry(ctx, chunk)
		if err != nil {
			if r.StopOnError {
				return stats, r.fail(ctx, targetDate, stats, fmt.Errorf("upsert chunk at %d: %w", start, err))
			}
			stats.ChunksFailed++
			metrics.IncBatchChunkFailed()
			telemetry.Error("batch.chunk_failed", map[string]any{
				"date":  dateISO,
				"start": start,
				"size":  len(chunk),
				"error": err.Error(),
			})
			continue
		}
		stats.Created += result.Created
		stats.Updated += result.Updated
	}

	created, updated, err := r.syncCompanies(ctx, targetDate)
	if err != nil {
		if r.StopOnError {
			return stats, r.fail(ctx, targetDate, stats, fmt.Errorf("company sync: %w", err))
		}
		telemetry.Error("batch.company_sync_failed", map[string]any{"date": dateISO, "error": err.Error()})
	}
	stats.CompaniesCreated = created
	stats.CompaniesUpdated = updated

	processed := stats.Created + stats.Updated
	metrics.AddBatchDocuments(processed)
	if err := r.Batches.MarkSuccess(ctx, targetDate, processed); err != nil {
		return stats, fmt.Errorf("mark success %s: %w", dateISO, err)
	}

	stats.Elapsed = time.Since(started)
	r.notify(stats)
	return stats, nil
}

func (r *Reconciler) chunkSize() int {
	if r.ChunkSize > 0 {
		return r.ChunkSize
	}
	return defaultChunkSize
}

func (r *Reconciler) dbRetryCount() int {
	if r.DBRetryCount > 0 {
		return r.DBRetryCount
	}
	return defaultDBRetryCount
}

// upsertChunkWithRetry retries only on lock contention, with jittered backoff.
func (r *Reconciler) upsertChunkWithRetry(ctx context.Context, chunk []disclosures.DocumentMetadata) (disclosures.ChunkResult, error) {
	var lastErr error
	for attempt := 1; attempt <= r.dbRetryCount(); attempt++ {
		if attempt > 1 {
			delay := time.Duration(attempt-1)*200*time.Millisecond + time.Duration(rand.Intn(200))*time.Millisecond
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return disclosures.ChunkResult{}, ctx.Err()
			}
		}
		result, err := r.Docs.UpsertChunk(ctx, chunk)
		if err == nil {
			return result, nil
		}
		lastErr = err
		if !disclosures.IsRetryableDBError(err) {
			return disclosures.ChunkResult{}, err
		}
		telemetry.Warn("batch.chunk_retry", map[string]any{"attempt": attempt, "error": err.Error()})
	}
	return disclosures.ChunkResult{}, fmt.Errorf("after %d attempts: %w", r.dbRetryCount(), lastErr)
}

// syncCompanies reconciles the company master from stored documents.
// incremental considers only the target date; full scans every stored day.
func (r *Reconciler) syncCompanies(ctx context.Context, targetDate time.Time) (created, updated int, err error) {
	mode := r.CompanyUpdateMode
	if mode == "" {
		mode = CompanyModeIncremental
	}
	if mode == CompanyModeSkip || r.Companies == nil {
		return 0, 0, nil
	}

	var filter *time.Time
	if mode == CompanyModeIncremental {
		filter = &targetDate
	}
	candidates, err := r.Docs.DistinctCompanies(ctx, filter)
	if err != nil {
		return 0, 0, fmt.Errorf("distinct companies: %w", err)
	}
	if len(candidates) == 0 {
		return 0, 0, nil
	}

	codes := make([]string, 0, len(candidates))
	for _, candidate := range candidates {
		codes = append(codes, candidate.EdinetCode)
	}
	existing, err := r.Companies.GetByEdinetCodes(ctx, codes)
	if err != nil {
		return 0, 0, fmt.Errorf("load companies: %w", err)
	}

	var creates, updates []companies.Company
	for _, candidate := range candidates {
		incoming := companies.Company{
			EdinetCode:     candidate.EdinetCode,
			SecuritiesCode: candidate.SecuritiesCode,
			Name:           candidate.Name,
			Active:         true,
		}
		stored, ok := existing[candidate.EdinetCode]
		if !ok {
			creates = append(creates, incoming)
			continue
		}
		if stored.NeedsUpdate(incoming) {
			incoming.ID = stored.ID
			updates = append(updates, incoming)
		}
	}

	if len(creates) > 0 {
		if err := r.Companies.BulkCreate(ctx, creates); err != nil {
			// Bulk insert can trip on a concurrent create; fall back per row.
			for _, company := range creates {
				if rowErr := r.Companies.Create(ctx, company); rowErr != nil {
					telemetry.Warn("batch.company_create_failed", map[string]any{
						"edinet_code": company.EdinetCode,
						"error":       rowErr.Error(),
					})
					continue
				}
				created++
			}
		} else {
			created = len(creates)
		}
	}
	if len(updates) > 0 {
		if err := r.Companies.BulkUpdate(ctx, updates); err != nil {
			for _, company := range updates {
				if rowErr := r.Companies.Update(ctx, company); rowErr != nil {
					telemetry.Warn("batch.company_update_failed", map[string]any{
						"edinet_code": company.EdinetCode,
						"error":       rowErr.Error(),
					})
					continue
				}
				updated++
			}
		} else {
			updated = len(updates)
		}
	}
	return created, updated, nil
}

// fail records the failure on the batch row, preserving the original error.
func (r *Reconciler) fail(ctx context.Context, targetDate time.Time, stats Stats, cause error) error {
	if err := r.Batches.MarkFailed(ctx, targetDate, cause.Error()); err != nil {
		telemetry.Error("batch.mark_failed_error", map[string]any{
			"date":  targetDate.Format("2006-01-02"),
			"error": err.Error(),
		})
	}
	telemetry.Error("batch.failed", map[string]any{
		"date":      targetDate.Format("2006-01-02"),
		"processed": stats.Created + stats.Updated,
		"error":     cause.Error(),
	})
	return cause
}

// notify emits the run summary; the admin mail transport is log-based here.
func (r *Reconciler) notify(stats Stats) {
	fields := map[string]any{
		"date":              stats.TargetDate.Format("2006-01-02"),
		"listed":            stats.TotalListed,
		"created":           stats.Created,
		"updated":           stats.Updated,
		"chunks_failed":     stats.ChunksFailed,
		"companies_created": stats.CompaniesCreated,
		"companies_updated": stats.CompaniesUpdated,
		"elapsed_ms":        stats.Elapsed.Milliseconds(),
	}
	telemetry.Info("batch.completed", fields)
	if r.SendNotification {
		telemetry.Info("batch.notification", fields)
	}
}
