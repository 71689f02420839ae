package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type CheckJobRepository struct {
	pool *pgxpool.Pool
}

func NewCheckJobRepository(pool *pgxpool.Pool) *CheckJobRepository {
	return &CheckJobRepository{pool: pool}
}

func (r *CheckJobRepository) Create(ctx context.Context, job *domain.CheckJob) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO check_jobs (id, project_id, status, retries, error, created_at, processed_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		job.ID, job.ProjectID, job.Status, job.Retries, job.Error, job.CreatedAt, job.ProcessedAt,
	)
	return err
}

func (r *CheckJobRepository) GetByID(ctx context.Context, id string) (*domain.CheckJob, error) {
	var job domain.CheckJob
	var errMsg pgtype.Text
	err := r.pool.QueryRow(ctx,
		`SELECT id, project_id, status, retries, error, created_at, processed_at
		 FROM check_jobs WHERE id = $1`,
		id,
	).Scan(&job.ID, &job.ProjectID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCheckJobNotFound
		}
		return nil, err
	}
	if errMsg.Valid {
		job.Error = errMsg.String
	}
	return &job, nil
}

// ClaimPending atomically claims up to limit pending jobs so concurrent
// workers never run the same project batch twice.
func (r *CheckJobRepository) ClaimPending(ctx context.Context, limit int) ([]*domain.CheckJob, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx,
		`WITH cte AS (
			 SELECT id
			 FROM check_jobs
			 WHERE status = $1
			 ORDER BY created_at ASC
			 FOR UPDATE SKIP LOCKED
			 LIMIT $2
		 )
		 UPDATE check_jobs
		 SET status = $3,
		     error = NULL,
		     processed_at = NULL
		 FROM cte
		 WHERE check_jobs.id = cte.id
		 RETURNING check_jobs.id, check_jobs.project_id, check_jobs.status,
		           check_jobs.retries, check_jobs.error, check_jobs.created_at, check_jobs.processed_at`,
		domain.CheckJobStatusPending, limit, domain.CheckJobStatusProcessing,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var jobs []*domain.CheckJob
	for rows.Next() {
		var job domain.CheckJob
		var errMsg pgtype.Text
		if err := rows.Scan(&job.ID, &job.ProjectID, &job.Status, &job.Retries, &errMsg, &job.CreatedAt, &job.ProcessedAt); err != nil {
			return nil, err
		}
		if errMsg.Valid {
			job.Error = errMsg.String
		}
		jobs = append(jobs, &job)
	}

	return jobs, rows.Err()
}

func (r *CheckJobRepository) UpdateStatus(ctx context.Context, id string, status domain.CheckJobStatus, errMsg string) error {
	var processedAt *time.Time
	if status == domain.CheckJobStatusCompleted || status == domain.CheckJobStatusFailed {
		now := time.Now().UTC()
		processedAt = &now
	}

	var errPtr *string
	if errMsg != "" {
		errPtr = &errMsg
	}

	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE check_jobs SET status = $1, error = $2, processed_at = $3 WHERE id = $4`,
		status, errPtr, processedAt, id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCheckJobNotFound
	}
	return nil
}

func (r *CheckJobRepository) IncrementRetries(ctx context.Context, id string) error {
	cmdTag, err := r.pool.Exec(ctx,
		`UPDATE check_jobs SET retries = retries + 1 WHERE id = $1`,
		id,
	)
	if err != nil {
		return err
	}
	if cmdTag.RowsAffected() == 0 {
		return domain.ErrCheckJobNotFound
	}
	return nil
}
