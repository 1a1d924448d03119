package postgres

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"crawling_observer/internal/domain"
)

const testIdentity = "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08"

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { _ = mockDB.Close() })

	return sqlx.NewDb(mockDB, "postgres"), mock
}

func expectationsMet(t *testing.T, mock sqlmock.Sqlmock) {
	t.Helper()
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestCrawlingLogStore_Exists(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCrawlingLogStore(db)

	mock.ExpectQuery("SELECT EXISTS").
		WithArgs(testIdentity).
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(true))

	exists, err := store.Exists(context.Background(), testIdentity)

	require.NoError(t, err)
	assert.True(t, exists)
	expectationsMet(t, mock)
}

func TestCrawlingLogStore_Insert(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCrawlingLogStore(db)
	url := "https://api.stlouisfed.org/fred/series/observations"
	at := time.Date(2025, time.January, 6, 9, 0, 0, 0, time.UTC)

	mock.ExpectExec("INSERT INTO crawling_logs").
		WithArgs(testIdentity, "macro", url, 200, at).
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.Insert(context.Background(), &domain.CrawlingLogRecord{
		Identity:     testIdentity,
		CrawlingType: "macro",
		StatusCode:   200,
		TargetURL:    &url,
		ObservedAt:   at,
	})

	require.NoError(t, err)
	expectationsMet(t, mock)
}

func TestCrawlingLogStore_Insert_UniqueViolation(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCrawlingLogStore(db)

	mock.ExpectExec("INSERT INTO crawling_logs").
		WillReturnError(&pq.Error{Code: "23505", Message: "duplicate key value violates unique constraint"})

	err := store.Insert(context.Background(), &domain.CrawlingLogRecord{Identity: testIdentity, CrawlingType: "macro"})

	assert.ErrorIs(t, err, domain.ErrAlreadySeen)
	expectationsMet(t, mock)
}

func TestCrawlingLogStore_Insert_OtherError(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCrawlingLogStore(db)

	mock.ExpectExec("INSERT INTO crawling_logs").
		WillReturnError(&pq.Error{Code: "23502", Message: "null value in column"})

	err := store.Insert(context.Background(), &domain.CrawlingLogRecord{Identity: testIdentity})

	require.Error(t, err)
	assert.NotErrorIs(t, err, domain.ErrAlreadySeen)
	assert.Contains(t, err.Error(), "insert crawling log")
	expectationsMet(t, mock)
}

func TestCrawlingLogStore_InsertFailure(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCrawlingLogStore(db)

	mock.ExpectExec("INSERT INTO fail_logs").
		WithArgs(testIdentity, "timeout").
		WillReturnResult(sqlmock.NewResult(0, 1))

	err := store.InsertFailure(context.Background(), &domain.FailureRecord{Identity: testIdentity, ErrMessage: "timeout"})

	require.NoError(t, err)
	expectationsMet(t, mock)
}

func TestCrawlingLogStore_Get_NotFound(t *testing.T) {
	db, mock := newMockDB(t)
	store := NewCrawlingLogStore(db)

	mock.ExpectQuery("FROM crawling_logs").
		WithArgs(testIdentity).
		WillReturnRows(sqlmock.NewRows([]string{"crawling_id"}))

	rec, err := store.get(context.Background(), testIdentity)

	require.NoError(t, err)
	assert.Nil(t, rec)
	expectationsMet(t, mock)
}

func TestTransactionManager_CommitsAndUsesTx(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db)
	store := NewCrawlingLogStore(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO fail_logs").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := tm.WithTransaction(context.Background(), func(ctx context.Context) error {
		assert.NotNil(t, GetTxFromContext(ctx))
		return store.InsertFailure(ctx, &domain.FailureRecord{Identity: testIdentity, ErrMessage: "x"})
	})

	require.NoError(t, err)
	expectationsMet(t, mock)
}

func TestTransactionManager_RollsBackOnError(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db)
	handlerErr := errors.New("handler failed")

	mock.ExpectBegin()
	mock.ExpectRollback()

	err := tm.WithTransaction(context.Background(), func(context.Context) error {
		return handlerErr
	})

	assert.ErrorIs(t, err, handlerErr)
	expectationsMet(t, mock)
}

func TestTransactionManager_BeginError(t *testing.T) {
	db, mock := newMockDB(t)
	tm := NewTransactionManager(db)

	mock.ExpectBegin().WillReturnError(errors.New("too many connections"))

	err := tm.WithTransaction(context.Background(), func(context.Context) error { return nil })

	require.Error(t, err)
	assert.Contains(t, err.Error(), "begin transaction")
	expectationsMet(t, mock)
}

func TestGetExecutor_WithoutTx(t *testing.T) {
	db, _ := newMockDB(t)
	assert.Equal(t, db, GetExecutor(context.Background(), db))
}
