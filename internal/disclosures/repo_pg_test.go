package disclosures

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jackc/pgx/v5/pgconn"
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

func TestPGRepoUpsertChunkMixedRows(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGRepo{DB: db}

	fileDate := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	existing := DocumentMetadata{DocID: "S100AAA1", FileDate: fileDate, LegalStatus: 1}
	fresh := DocumentMetadata{DocID: "S100AAA2", FileDate: fileDate, LegalStatus: 1}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT doc_id FROM disclosure_documents").
		WithArgs("S100AAA1", "S100AAA2").
		WillReturnRows(sqlmock.NewRows([]string{"doc_id"}).AddRow("S100AAA1"))
	mock.ExpectExec("UPDATE disclosure_documents").
		WithArgs("S100AAA1", 1, "", "", "").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO disclosure_documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.UpsertChunk(context.Background(), []DocumentMetadata{existing, fresh})
	if err != nil {
		t.Fatalf("UpsertChunk: %v", err)
	}
	if result.Created != 1 || result.Updated != 1 {
		t.Fatalf("result = %+v", result)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoUpsertChunkBulkFallsBackPerRow(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGRepo{DB: db}

	doc := DocumentMetadata{DocID: "S100AAA3", FileDate: time.Now(), LegalStatus: 1}

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT doc_id FROM disclosure_documents").
		WithArgs("S100AAA3").
		WillReturnRows(sqlmock.NewRows([]string{"doc_id"}))
	mock.ExpectExec("INSERT INTO disclosure_documents").
		WillReturnError(errors.New("bulk insert rejected"))
	mock.ExpectExec("INSERT INTO disclosure_documents").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	result, err := repo.UpsertChunk(context.Background(), []DocumentMetadata{doc})
	if err != nil {
		t.Fatalf("UpsertChunk: %v", err)
	}
	if result.Created != 1 {
		t.Fatalf("created = %d", result.Created)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGRepoGetByDocIDNotFound(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGRepo{DB: db}

	mock.ExpectQuery("SELECT (.+) FROM disclosure_documents").
		WithArgs("S100ZZZZ").
		WillReturnError(sql.ErrNoRows)

	if _, err := repo.GetByDocID(context.Background(), "S100ZZZZ"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}

func TestPGBatchRepoBeginAbortsOnSucceededDay(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGBatchRepo{DB: db}

	batchDate := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	started := batchDate.Add(22 * time.Hour)
	completed := started.Add(5 * time.Minute)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, batch_date, status").
		WithArgs(batchDate).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "batch_date", "status", "processed_count", "error_text", "started_at", "completed_at",
		}).AddRow(7, batchDate, BatchStatusSuccess, 120, nil, started, completed))
	mock.ExpectCommit()

	_, err := repo.Begin(context.Background(), batchDate, false)
	if !errors.Is(err, ErrBatchAlreadySucceeded) {
		t.Fatalf("err = %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGBatchRepoBeginForceResetsDay(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGBatchRepo{DB: db}

	batchDate := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, batch_date, status").
		WithArgs(batchDate).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "batch_date", "status", "processed_count", "error_text", "started_at", "completed_at",
		}).AddRow(7, batchDate, BatchStatusSuccess, 120, nil, batchDate, batchDate))
	mock.ExpectExec("UPDATE batch_executions").
		WithArgs(batchDate, BatchStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch, err := repo.Begin(context.Background(), batchDate, true)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if batch.Status != BatchStatusRunning || batch.ProcessedCount != 0 {
		t.Fatalf("batch = %+v", batch)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGBatchRepoBeginCreatesNewDay(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGBatchRepo{DB: db}

	batchDate := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	started := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, batch_date, status").
		WithArgs(batchDate).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO batch_executions").
		WithArgs(batchDate, BatchStatusRunning).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "batch_date", "status", "processed_count", "started_at",
		}).AddRow(1, batchDate, BatchStatusRunning, 0, started))
	mock.ExpectCommit()

	batch, err := repo.Begin(context.Background(), batchDate, false)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if batch.ID != 1 || batch.Status != BatchStatusRunning || batch.StartedAt == nil {
		t.Fatalf("batch = %+v", batch)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGBatchRepoBeginRecoversFromInsertRace(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGBatchRepo{DB: db}

	batchDate := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	started := batchDate.Add(22 * time.Hour)

	// Losing side of two simultaneous first runs: the row appears
	// between our empty SELECT and the INSERT.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, batch_date, status").
		WithArgs(batchDate).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectQuery("INSERT INTO batch_executions").
		WithArgs(batchDate, BatchStatusRunning).
		WillReturnError(&pgconn.PgError{Code: "23505", ConstraintName: "batch_executions_batch_date_key"})
	mock.ExpectRollback()

	// Retry locks the winner's row and takes the reset path.
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT id, batch_date, status").
		WithArgs(batchDate).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "batch_date", "status", "processed_count", "error_text", "started_at", "completed_at",
		}).AddRow(9, batchDate, BatchStatusRunning, 0, nil, started, nil))
	mock.ExpectExec("UPDATE batch_executions").
		WithArgs(batchDate, BatchStatusRunning).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	batch, err := repo.Begin(context.Background(), batchDate, false)
	if err != nil {
		t.Fatalf("Begin: %v", err)
	}
	if batch.ID != 9 || batch.Status != BatchStatusRunning {
		t.Fatalf("batch = %+v", batch)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGBatchRepoMarkFailedTruncatesError(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGBatchRepo{DB: db}

	batchDate := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)
	long := strings.Repeat("x", 3000)

	mock.ExpectExec("UPDATE batch_executions").
		WithArgs(batchDate, BatchStatusFailed, strings.Repeat("x", 2000)).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.MarkFailed(context.Background(), batchDate, long); err != nil {
		t.Fatalf("MarkFailed: %v", err)
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("ExpectationsWereMet: %v", err)
	}
}

func TestPGBatchRepoMarkSuccessUnknownDate(t *testing.T) {
	db, mock := newMock(t)
	repo := &PGBatchRepo{DB: db}

	batchDate := time.Date(2025, 3, 9, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("UPDATE batch_executions").
		WithArgs(batchDate, BatchStatusSuccess, 10).
		WillReturnResult(sqlmock.NewResult(0, 0))

	if err := repo.MarkSuccess(context.Background(), batchDate, 10); !errors.Is(err, ErrNotFound) {
		t.Fatalf("err = %v", err)
	}
}
