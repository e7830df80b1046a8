package analysis

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
)

func newMock(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func TestPGRepoCreateSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPGRepo(db)

	expires := time.Now().Add(24 * time.Hour).UTC()
	session := &AnalysisSession{
		ID:           "session-1",
		DocID:        "S100AAA1",
		AnalysisType: TypeComprehensive,
		Status:       StatusPending,
		ExpiresAt:    expires,
	}

	mock.ExpectExec("INSERT INTO analysis_sessions").
		WithArgs(
			session.ID,
			session.DocID,
			session.AnalysisType,
			session.Status,
			0,
			nil, // step
			nil, // user_ip
			expires,
		).
		WillReturnResult(sqlmock.NewResult(1, 1))

	if err := repo.Create(context.Background(), session); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func sessionRow(id string, status string) *sqlmock.Rows {
	now := time.Now().UTC()
	return sqlmock.NewRows([]string{
		"id", "doc_id", "analysis_type", "status", "progress", "step", "result", "financial_snapshot",
		"overall_score", "risk_level", "investment_stance", "cashflow_pattern", "error_text", "user_ip",
		"expires_at", "created_at", "updated_at",
	}).AddRow(
		id, "S100AAA1", TypeComprehensive, status, 100, "done", []byte(`{"doc_id":"S100AAA1"}`), nil,
		78.5, "low", StanceAggressive, nil, nil, "203.0.113.9",
		now.Add(48*time.Hour), now, now,
	)
}

func TestPGRepoGetByID(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPGRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM analysis_sessions").
		WithArgs("session-1").
		WillReturnRows(sessionRow("session-1", StatusCompleted))

	session, err := repo.GetByID(context.Background(), "session-1")
	if err != nil {
		t.Fatalf("GetByID: %v", err)
	}
	if session.Status != StatusCompleted || session.Progress != 100 {
		t.Fatalf("session = %+v", session)
	}
	if session.OverallScore == nil || *session.OverallScore != 78.5 {
		t.Fatalf("overall score = %v", session.OverallScore)
	}
	if session.CashflowPattern != nil {
		t.Fatal("null cashflow pattern should scan to nil")
	}
}

func TestPGRepoGetByIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPGRepo(db)

	mock.ExpectQuery("SELECT (.+) FROM analysis_sessions").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByID(context.Background(), "missing"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPGRepoGetRecentCompleted(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPGRepo(db)

	since := time.Now().Add(-time.Hour).UTC()
	mock.ExpectQuery("SELECT (.+) FROM analysis_sessions").
		WithArgs("S100AAA1", TypeComprehensive, StatusCompleted, since).
		WillReturnRows(sessionRow("session-2", StatusCompleted))

	session, err := repo.GetRecentCompleted(context.Background(), "S100AAA1", TypeComprehensive, since)
	if err != nil {
		t.Fatalf("GetRecentCompleted: %v", err)
	}
	if session.ID != "session-2" {
		t.Fatalf("id = %s", session.ID)
	}
}

func TestPGRepoUpdateProgressUnknownSession(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPGRepo(db)

	mock.ExpectExec("UPDATE analysis_sessions").
		WithArgs("missing", StatusProcessing, 35, "sentiment").
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.UpdateProgress(context.Background(), "missing", 35, "sentiment"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPGRepoCompleteWritesSummary(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPGRepo(db)

	score := 78.5
	risk := "low"
	stance := StanceAggressive

	mock.ExpectExec("UPDATE analysis_sessions").
		WithArgs(
			"session-1",
			StatusCompleted,
			[]byte(`{"doc_id":"S100AAA1"}`),
			nil, // financial_snapshot
			78.5,
			risk,
			stance,
			nil, // cashflow_pattern
		).
		WillReturnResult(sqlmock.NewResult(0, 1))

	summary := SessionSummary{
		OverallScore:     &score,
		RiskLevel:        &risk,
		InvestmentStance: &stance,
	}
	if err := repo.Complete(context.Background(), "session-1", []byte(`{"doc_id":"S100AAA1"}`), summary); err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoAppendHistory(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPGRepo(db)

	created := time.Now().UTC()
	mock.ExpectQuery("INSERT INTO analysis_history").
		WillReturnRows(sqlmock.NewRows([]string{"id", "created_at"}).AddRow(9, created))

	record := &AnalysisHistory{DocID: "S100AAA1", DurationMs: 1234}
	if err := repo.AppendHistory(context.Background(), record); err != nil {
		t.Fatalf("AppendHistory: %v", err)
	}
	if record.ID != 9 || !record.CreatedAt.Equal(created) {
		t.Fatalf("record = %+v", record)
	}
}

func TestPGRepoPurgeExpired(t *testing.T) {
	db, mock := newMock(t)
	repo := NewPGRepo(db)

	now := time.Now().UTC()
	mock.ExpectExec("DELETE FROM analysis_sessions").
		WithArgs(now).
		WillReturnResult(sqlmock.NewResult(0, 3))

	n, err := repo.PurgeExpired(context.Background(), now)
	if err != nil {
		t.Fatalf("PurgeExpired: %v", err)
	}
	if n != 3 {
		t.Fatalf("purged = %d", n)
	}
}
