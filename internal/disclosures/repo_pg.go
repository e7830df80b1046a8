package disclosures

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v5/pgconn"

	"github.com/noknok06/stock-dialy-sub000/internal/shared/telemetry"
)

// PGRepo implements Repo using Postgres.
type PGRepo struct {
	DB *sql.DB
}

const documentColumns = `id, doc_id, edinet_code, securities_code, company_name, doc_type_code,
	period_start, period_end, submit_datetime, file_date, description,
	xbrl_flag, pdf_flag, csv_flag, attach_doc_flag, english_doc_flag,
	legal_status, withdrawal_status, edit_status, disclosure_status, created_at, updated_at`

// IsRetryableDBError reports whether the error is a deadlock or lock timeout
// that a chunk retry may resolve.
func IsRetryableDBError(err error) bool {
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		// 40P01 deadlock_detected, 55P03 lock_not_available, 40001 serialization_failure
		switch pgErr.Code {
		case "40P01", "55P03", "40001":
			return true
		}
	}
	return false
}

// UpsertChunk reconciles one chunk of documents inside a single transaction.
// Existing rows are locked with FOR UPDATE and only their mutable status
// fields change; new rows are bulk-inserted with conflicts ignored, falling
// back to per-row inserts when the bulk statement fails.
func (r *PGRepo) UpsertChunk(ctx context.Context, docs []DocumentMetadata) (ChunkResult, error) {
	var result ChunkResult
	if len(docs) == 0 {
		return result, nil
	}

	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return result, err
	}
	defer tx.Rollback()

	docIDs := make([]string, 0, len(docs))
	for _, doc := range docs {
		docIDs = append(docIDs, doc.DocID)
	}

	existing, err := lockExisting(ctx, tx, docIDs)
	if err != nil {
		return result, err
	}

	var toCreate []DocumentMetadata
	for _, doc := range docs {
		if _, ok := existing[doc.DocID]; ok {
			if err := updateStatusFields(ctx, tx, doc); err != nil {
				return result, err
			}
			result.Updated++
			continue
		}
		toCreate = append(toCreate, doc)
	}

	if len(toCreate) > 0 {
		created, err := bulkInsert(ctx, tx, toCreate)
		if err != nil {
			telemetry.Warn("disclosures.bulk_insert_fallback", map[string]any{
				"count": len(toCreate),
				"error": err.Error(),
			})
			created = 0
			for _, doc := range toCreate {
				n, rowErr := insertOne(ctx, tx, doc)
				if rowErr != nil {
					return result, rowErr
				}
				created += n
			}
		}
		result.Created = created
	}

	if err := tx.Commit(); err != nil {
		return ChunkResult{}, err
	}
	return result, nil
}

func lockExisting(ctx context.Context, tx *sql.Tx, docIDs []string) (map[string]struct{}, error) {
	placeholders := make([]string, len(docIDs))
	args := make([]any, len(docIDs))
	for i, id := range docIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = id
	}
	query := `
SELECT doc_id FROM disclosure_documents
WHERE doc_id IN (` + strings.Join(placeholders, ", ") + `)
FOR UPDATE`
	rows, err := tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	out := make(map[string]struct{})
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		out[id] = struct{}{}
	}
	return out, rows.Err()
}

// updateStatusFields refreshes only the mutable status fields of an existing row.
func updateStatusFields(ctx context.Context, tx *sql.Tx, doc DocumentMetadata) error {
	const query = `
UPDATE disclosure_documents
SET legal_status = $2,
    withdrawal_status = $3,
    edit_status = $4,
    disclosure_status = $5,
    updated_at = now()
WHERE doc_id = $1`
	_, err := tx.ExecContext(ctx, query,
		doc.DocID,
		doc.LegalStatus,
		doc.WithdrawalStatus,
		doc.EditStatus,
		doc.DisclosureStatus,
	)
	return err
}

const insertColumns = `doc_id, edinet_code, securities_code, company_name, doc_type_code,
	period_start, period_end, submit_datetime, file_date, description,
	xbrl_flag, pdf_flag, csv_flag, attach_doc_flag, english_doc_flag,
	legal_status, withdrawal_status, edit_status, disclosure_status, created_at, updated_at`

func insertArgs(doc DocumentMetadata) []any {
	return []any{
		doc.DocID,
		doc.EdinetCode,
		doc.SecuritiesCode,
		doc.CompanyName,
		doc.DocTypeCode,
		doc.PeriodStart,
		doc.PeriodEnd,
		doc.SubmitDateTime,
		doc.FileDate,
		doc.Description,
		doc.XBRLFlag,
		doc.PDFFlag,
		doc.CSVFlag,
		doc.AttachDocFlag,
		doc.EnglishDocFlag,
		doc.LegalStatus,
		doc.WithdrawalStatus,
		doc.EditStatus,
		doc.DisclosureStatus,
	}
}

func bulkInsert(ctx context.Context, tx *sql.Tx, docs []DocumentMetadata) (int, error) {
	var sb strings.Builder
	sb.WriteString(`INSERT INTO disclosure_documents (` + insertColumns + `) VALUES `)
	const perRow = 19
	args := make([]any, 0, len(docs)*perRow)
	for i, doc := range docs {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString("(")
		for j := 0; j < perRow; j++ {
			if j > 0 {
				sb.WriteString(", ")
			}
			fmt.Fprintf(&sb, "$%d", i*perRow+j+1)
		}
		sb.WriteString(", now(), now())")
		args = append(args, insertArgs(doc)...)
	}
	sb.WriteString(` ON CONFLICT (doc_id) DO NOTHING`)
	res, err := tx.ExecContext(ctx, sb.String(), args...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return len(docs), nil
	}
	return int(affected), nil
}

func insertOne(ctx context.Context, tx *sql.Tx, doc DocumentMetadata) (int, error) {
	query := `INSERT INTO disclosure_documents (` + insertColumns + `)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18, $19, now(), now())
ON CONFLICT (doc_id) DO NOTHING`
	res, err := tx.ExecContext(ctx, query, insertArgs(doc)...)
	if err != nil {
		return 0, err
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 1, nil
	}
	return int(affected), nil
}

// GetByDocID returns one document by its EDINET document id.
func (r *PGRepo) GetByDocID(ctx context.Context, docID string) (DocumentMetadata, error) {
	query := `
SELECT ` + documentColumns + `
FROM disclosure_documents
WHERE doc_id = $1
LIMIT 1`
	row := r.DB.QueryRowContext(ctx, query, docID)
	doc, err := scanDocument(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return DocumentMetadata{}, ErrNotFound
		}
		return DocumentMetadata{}, err
	}
	return doc, nil
}

// ListByFileDate returns documents filed on one date with the given legal status.
func (r *PGRepo) ListByFileDate(ctx context.Context, fileDate time.Time, legalStatus int) ([]DocumentMetadata, error) {
	query := `
SELECT ` + documentColumns + `
FROM disclosure_documents
WHERE file_date = $1 AND legal_status = $2
ORDER BY doc_id`
	rows, err := r.DB.QueryContext(ctx, query, fileDate, legalStatus)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []DocumentMetadata
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, doc)
	}
	return out, rows.Err()
}

// DistinctCompanies returns distinct company triples from stored documents.
// A nil fileDate scans all available documents (full mode); otherwise only
// the given day's documents (incremental mode). Only legal_status=1 rows count.
func (r *PGRepo) DistinctCompanies(ctx context.Context, fileDate *time.Time) ([]CompanyCandidate, error) {
	query := `
SELECT DISTINCT edinet_code, securities_code, company_name
FROM disclosure_documents
WHERE edinet_code IS NOT NULL AND company_name IS NOT NULL AND legal_status = 1`
	var args []any
	if fileDate != nil {
		query += ` AND file_date = $1`
		args = append(args, *fileDate)
	}
	query += ` ORDER BY edinet_code`
	rows, err := r.DB.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []CompanyCandidate
	for rows.Next() {
		var candidate CompanyCandidate
		var securitiesCode sql.NullString
		if err := rows.Scan(&candidate.EdinetCode, &securitiesCode, &candidate.Name); err != nil {
			return nil, err
		}
		if securitiesCode.Valid {
			candidate.SecuritiesCode = &securitiesCode.String
		}
		out = append(out, candidate)
	}
	return out, rows.Err()
}

func scanDocument(row interface{ Scan(dest ...any) error }) (DocumentMetadata, error) {
	var d DocumentMetadata
	var edinetCode, securitiesCode, companyName, docTypeCode, description sql.NullString
	var periodStart, periodEnd, submitDateTime sql.NullTime
	if err := row.Scan(
		&d.ID,
		&d.DocID,
		&edinetCode,
		&securitiesCode,
		&companyName,
		&docTypeCode,
		&periodStart,
		&periodEnd,
		&submitDateTime,
		&d.FileDate,
		&description,
		&d.XBRLFlag,
		&d.PDFFlag,
		&d.CSVFlag,
		&d.AttachDocFlag,
		&d.EnglishDocFlag,
		&d.LegalStatus,
		&d.WithdrawalStatus,
		&d.EditStatus,
		&d.DisclosureStatus,
		&d.CreatedAt,
		&d.UpdatedAt,
	); err != nil {
		return DocumentMetadata{}, err
	}
	if edinetCode.Valid {
		d.EdinetCode = &edinetCode.String
	}
	if securitiesCode.Valid {
		d.SecuritiesCode = &securitiesCode.String
	}
	if companyName.Valid {
		d.CompanyName = &companyName.String
	}
	if docTypeCode.Valid {
		d.DocTypeCode = &docTypeCode.String
	}
	if description.Valid {
		d.Description = &description.String
	}
	if periodStart.Valid {
		d.PeriodStart = &periodStart.Time
	}
	if periodEnd.Valid {
		d.PeriodEnd = &periodEnd.Time
	}
	if submitDateTime.Valid {
		d.SubmitDateTime = &submitDateTime.Time
	}
	return d, nil
}
