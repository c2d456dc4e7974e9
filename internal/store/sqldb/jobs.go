package sqldb

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/nextlevelbuilder/guildforge/internal/store"
)

// SQLJobStore implements store.JobStore on database/sql.
type SQLJobStore struct {
	db *sql.DB
}

func NewJobStore(db *sql.DB) *SQLJobStore {
	return &SQLJobStore{db: db}
}

const jobColumns = `id, type, payload, status, attempts, last_error, created_at, completed_at`

func (s *SQLJobStore) Create(ctx context.Context, j *store.GenerationJob) error {
	now := time.Now().UTC()
	err := s.db.QueryRowContext(ctx,
		`INSERT INTO generation_jobs (type, payload, status, attempts, last_error, created_at)
		 VALUES ($1, $2, $3, 0, '', $4)
		 RETURNING id`,
		string(j.Type), j.Payload, string(store.JobPending), now,
	).Scan(&j.ID)
	if err != nil {
		return fmt.Errorf("insert job: %w", err)
	}
	j.Status = store.JobPending
	j.Attempts = 0
	j.CreatedAt = now
	return nil
}

func (s *SQLJobStore) ByID(ctx context.Context, id int64) (*store.GenerationJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM generation_jobs WHERE id = $1`, id)
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return j, nil
}

func (s *SQLJobStore) MarkInProgress(ctx context.Context, id int64) (int, error) {
	var attempts int
	err := s.db.QueryRowContext(ctx,
		`UPDATE generation_jobs SET status = $1, attempts = attempts + 1 WHERE id = $2
		 RETURNING attempts`,
		string(store.JobInProgress), id).Scan(&attempts)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return 0, store.ErrNotFound
		}
		return 0, fmt.Errorf("mark job in progress: %w", err)
	}
	return attempts, nil
}

func (s *SQLJobStore) Complete(ctx context.Context, id int64) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE generation_jobs SET status = $1, completed_at = $2, last_error = '' WHERE id = $3`,
		string(store.JobCompleted), time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("complete job: %w", err)
	}
	return nil
}

func (s *SQLJobStore) Fail(ctx context.Context, id int64, lastError string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE generation_jobs SET status = $1, last_error = $2 WHERE id = $3`,
		string(store.JobFailed), lastError, id)
	if err != nil {
		return fmt.Errorf("fail job: %w", err)
	}
	return nil
}

func (s *SQLJobStore) Requeue(ctx context.Context, id int64, lastError string) error {
	_, err := s.db.ExecContext(ctx,
		`UPDATE generation_jobs SET status = $1, last_error = $2 WHERE id = $3`,
		string(store.JobPending), lastError, id)
	if err != nil {
		return fmt.Errorf("requeue job: %w", err)
	}
	return nil
}

func (s *SQLJobStore) ResetDangling(ctx context.Context) ([]store.GenerationJob, error) {
	rows, err := s.db.QueryContext(ctx,
		`UPDATE generation_jobs SET status = $1 WHERE status = $2
		 RETURNING `+jobColumns,
		string(store.JobPending), string(store.JobInProgress))
	if err != nil {
		return nil, fmt.Errorf("reset dangling jobs: %w", err)
	}
	defer rows.Close()

	var result []store.GenerationJob
	for rows.Next() {
		j, err := scanJob(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *j)
	}
	return result, rows.Err()
}

func (s *SQLJobStore) HasCompleted(ctx context.Context, t store.JobType) (bool, error) {
	var n int
	err := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM generation_jobs WHERE type = $1 AND status = $2`,
		string(t), string(store.JobCompleted)).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("has completed: %w", err)
	}
	return n > 0, nil
}

func (s *SQLJobStore) LastCompletedAt(ctx context.Context) (*store.GenerationJob, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+jobColumns+` FROM generation_jobs WHERE status = $1
		 ORDER BY completed_at DESC LIMIT 1`,
		string(store.JobCompleted))
	j, err := scanJob(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrNotFound
		}
		return nil, err
	}
	return j, nil
}

func scanJob(r rowScanner) (*store.GenerationJob, error) {
	var j store.GenerationJob
	var typ, status string
	var lastError sql.NullString
	var completedAt sql.NullTime
	err := r.Scan(&j.ID, &typ, &j.Payload, &status, &j.Attempts, &lastError, &j.CreatedAt, &completedAt)
	if err != nil {
		return nil, err
	}
	j.Type = store.JobType(typ)
	j.Status = store.JobStatus(status)
	j.LastError = lastError.String
	if completedAt.Valid {
		t := completedAt.Time
		j.CompletedAt = &t
	}
	return &j, nil
}
