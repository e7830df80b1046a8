package analysis

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"
)

// PGRepo is the Postgres implementation of Repo.
type PGRepo struct {
	DB *sql.DB
}

func NewPGRepo(db *sql.DB) *PGRepo {
	return &PGRepo{DB: db}
}

const sessionColumns = `id, doc_id, analysis_type, status, progress, step, result, financial_snapshot,
	overall_score, risk_level, investment_stance, cashflow_pattern, error_text, user_ip,
	expires_at, created_at, updated_at`

func (r *PGRepo) Create(ctx context.Context, session *AnalysisSession) error {
	_, err := r.DB.ExecContext(ctx, `
		INSERT INTO analysis_sessions (id, doc_id, analysis_type, status, progress, step, user_ip, expires_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		session.ID, session.DocID, session.AnalysisType, session.Status,
		session.Progress, nullIfEmpty(session.Step), nullIfEmpty(session.UserIP), session.ExpiresAt,
	)
	if err != nil {
		return fmt.Errorf("create analysis session: %w", err)
	}
	return nil
}

func (r *PGRepo) GetByID(ctx context.Context, id string) (*AnalysisSession, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM analysis_sessions
		WHERE id = $1`, id)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return session, err
}

func (r *PGRepo) GetRecentCompleted(ctx context.Context, docID, analysisType string, since time.Time) (*AnalysisSession, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT `+sessionColumns+`
		FROM analysis_sessions
		WHERE doc_id = $1 AND analysis_type = $2 AND status = $3 AND created_at >= $4 AND expires_at > now()
		ORDER BY created_at DESC
		LIMIT 1`, docID, analysisType, StatusCompleted, since)
	session, err := scanSession(row)
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	return session, err
}

func (r *PGRepo) UpdateProgress(ctx context.Context, id string, progress int, step string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE analysis_sessions
		SET status = $2, progress = $3, step = $4, updated_at = now()
		WHERE id = $1`,
		id, StatusProcessing, progress, step,
	)
	if err != nil {
		return fmt.Errorf("update session progress: %w", err)
	}
	return requireAffected(res, "update session progress")
}

func (r *PGRepo) Complete(ctx context.Context, id string, result json.RawMessage, summary SessionSummary) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE analysis_sessions
		SET status = $2, progress = 100, step = 'done', result = $3, financial_snapshot = $4,
			overall_score = $5, risk_level = $6, investment_stance = $7, cashflow_pattern = $8,
			updated_at = now()
		WHERE id = $1`,
		id, StatusCompleted, []byte(result), nullBytes(summary.FinancialSnapshot),
		nullFloatPtr(summary.OverallScore), nullStringPtr(summary.RiskLevel),
		nullStringPtr(summary.InvestmentStance), nullStringPtr(summary.CashflowPattern),
	)
	if err != nil {
		return fmt.Errorf("complete session: %w", err)
	}
	return requireAffected(res, "complete session")
}

func (r *PGRepo) Fail(ctx context.Context, id string, errText string) error {
	res, err := r.DB.ExecContext(ctx, `
		UPDATE analysis_sessions
		SET status = $2, error_text = $3, updated_at = now()
		WHERE id = $1`,
		id, StatusFailed, errText,
	)
	if err != nil {
		return fmt.Errorf("fail session: %w", err)
	}
	return requireAffected(res, "fail session")
}

func (r *PGRepo) AppendHistory(ctx context.Context, record *AnalysisHistory) error {
	err := r.DB.QueryRowContext(ctx, `
		INSERT INTO analysis_history (doc_id, overall_score, sentiment_label, risk_level,
			cashflow_pattern, duration_ms, data_completeness)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at`,
		record.DocID, nullFloatPtr(record.OverallScore), nullStringPtr(record.SentimentLabel),
		nullStringPtr(record.RiskLevel), nullStringPtr(record.CashflowPattern),
		record.DurationMs, record.DataCompleteness,
	).Scan(&record.ID, &record.CreatedAt)
	if err != nil {
		return fmt.Errorf("append analysis history: %w", err)
	}
	return nil
}

func (r *PGRepo) PurgeExpired(ctx context.Context, now time.Time) (int64, error) {
	res, err := r.DB.ExecContext(ctx, `DELETE FROM analysis_sessions WHERE expires_at <= $1`, now)
	if err != nil {
		return 0, fmt.Errorf("purge expired sessions: %w", err)
	}
	return res.RowsAffected()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSession(row rowScanner) (*AnalysisSession, error) {
	var (
		s                AnalysisSession
		step             sql.NullString
		result           []byte
		snapshot         []byte
		overallScore     sql.NullFloat64
		riskLevel        sql.NullString
		investmentStance sql.NullString
		cashflowPattern  sql.NullString
		errorText        sql.NullString
		userIP           sql.NullString
	)
	err := row.Scan(
		&s.ID, &s.DocID, &s.AnalysisType, &s.Status, &s.Progress, &step, &result, &snapshot,
		&overallScore, &riskLevel, &investmentStance, &cashflowPattern, &errorText, &userIP,
		&s.ExpiresAt, &s.CreatedAt, &s.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	s.Step = step.String
	s.Result = result
	s.FinancialSnapshot = snapshot
	s.UserIP = userIP.String
	if overallScore.Valid {
		s.OverallScore = &overallScore.Float64
	}
	if riskLevel.Valid {
		s.RiskLevel = &riskLevel.String
	}
	if investmentStance.Valid {
		s.InvestmentStance = &investmentStance.String
	}
	if cashflowPattern.Valid {
		s.CashflowPattern = &cashflowPattern.String
	}
	if errorText.Valid {
		s.ErrorText = &errorText.String
	}
	return &s, nil
}

func requireAffected(res sql.Result, op string) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("%s affected rows: %w", op, err)
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}

func nullIfEmpty(v string) sql.NullString {
	if v == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: v, Valid: true}
}

func nullStringPtr(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}

func nullFloatPtr(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullBytes(v []byte) any {
	if len(v) == 0 {
		return nil
	}
	return v
}
