package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"crawling_observer/internal/domain"
)

const uniqueViolation = "23505"

type CrawlingLogStore struct {
	db *sqlx.DB
}

func NewCrawlingLogStore(db *sqlx.DB) *CrawlingLogStore {
	return &CrawlingLogStore{db: db}
}

func (s *CrawlingLogStore) Exists(ctx context.Context, identity string) (bool, error) {
	var exists bool
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &exists,
		"SELECT EXISTS(SELECT 1 FROM crawling_logs WHERE crawling_id = $1)",
		identity,
	)
	if err != nil {
		return false, fmt.Errorf("check crawling log: %w", err)
	}
	return exists, nil
}

// Insert reports a primary key conflict as domain.ErrAlreadySeen.
func (s *CrawlingLogStore) Insert(ctx context.Context, rec *domain.CrawlingLogRecord) error {
	query := `
		INSERT INTO crawling_logs (crawling_id, crawling_type, target_url, status_code, try_time)
		VALUES ($1, $2, $3, $4, $5)`

	_, err := GetExecutor(ctx, s.db).ExecContext(ctx, query,
		rec.Identity,
		rec.CrawlingType,
		rec.TargetURL,
		rec.StatusCode,
		rec.ObservedAt,
	)
	if isUniqueViolation(err) {
		return domain.E(domain.KindStorageConflict, "insert crawling log", err)
	}
	if err != nil {
		return fmt.Errorf("insert crawling log: %w", err)
	}
	return nil
}

func (s *CrawlingLogStore) InsertFailure(ctx context.Context, rec *domain.FailureRecord) error {
	_, err := GetExecutor(ctx, s.db).ExecContext(ctx,
		"INSERT INTO fail_logs (crawling_id, err_message) VALUES ($1, $2)",
		rec.Identity, rec.ErrMessage,
	)
	if err != nil {
		return fmt.Errorf("insert fail log: %w", err)
	}
	return nil
}

// get returns the crawling log for identity, or nil when absent.
func (s *CrawlingLogStore) get(ctx context.Context, identity string) (*domain.CrawlingLogRecord, error) {
	var rec domain.CrawlingLogRecord
	err := sqlx.GetContext(ctx, GetExecutor(ctx, s.db), &rec, `
		SELECT crawling_id, crawling_type, target_url, status_code, try_time
		FROM crawling_logs
		WHERE crawling_id = $1`, identity)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get crawling log: %w", err)
	}
	return &rec, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == uniqueViolation
}
