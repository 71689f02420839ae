package repository

import (
	"context"
	"errors"
	"time"

	"github.com/aeotrackhq/aeotrack/internal/domain"
	"github.com/aeotrackhq/aeotrack/internal/pagination"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const checkColumns = `id, project_id, engine, keyword, presence, position, citations_count,
	 observed_urls, competitors_mentioned, answer_snippet, timestamp`

type CheckPageResult struct {
	Items      []*domain.VisibilityCheck
	NextCursor string
	HasMore    bool
}

// CheckRepository persists visibility checks. Records are write-once: there
// is deliberately no Update.
type CheckRepository struct {
	pool *pgxpool.Pool
}

func NewCheckRepository(pool *pgxpool.Pool) *CheckRepository {
	return &CheckRepository{pool: pool}
}

func (r *CheckRepository) Create(ctx context.Context, check *domain.VisibilityCheck) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO visibility_checks (`+checkColumns+`)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
		check.ID, check.ProjectID, check.Engine, check.Keyword, check.Presence,
		check.Position, check.CitationsCount, check.ObservedURLs,
		check.CompetitorsMentioned, check.AnswerSnippet, check.Timestamp,
	)
	return err
}

// CreateBatch inserts all checks of one batch in a single transaction so a
// partially persisted batch never appears in history.
func (r *CheckRepository) CreateBatch(ctx context.Context, checks []*domain.VisibilityCheck) error {
	if len(checks) == 0 {
		return nil
	}

	return pgx.BeginFunc(ctx, r.pool, func(tx pgx.Tx) error {
		for _, check := range checks {
			_, err := tx.Exec(ctx,
				`INSERT INTO visibility_checks (`+checkColumns+`)
				 VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11)`,
				check.ID, check.ProjectID, check.Engine, check.Keyword, check.Presence,
				check.Position, check.CitationsCount, check.ObservedURLs,
				check.CompetitorsMentioned, check.AnswerSnippet, check.Timestamp,
			)
			if err != nil {
				return err
			}
		}
		return nil
	})
}

func (r *CheckRepository) GetByID(ctx context.Context, id string) (*domain.VisibilityCheck, error) {
	row := r.pool.QueryRow(ctx,
		`SELECT `+checkColumns+` FROM visibility_checks WHERE id = $1`,
		id,
	)
	check, err := scanCheck(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, domain.ErrCheckNotFound
		}
		return nil, err
	}
	return check, nil
}

// ListByProjectWindow returns a project's checks inside the inclusive window,
// ordered by timestamp ascending for the aggregator.
func (r *CheckRepository) ListByProjectWindow(ctx context.Context, projectID string, window domain.Window) ([]*domain.VisibilityCheck, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT `+checkColumns+`
		 FROM visibility_checks
		 WHERE project_id = $1 AND timestamp >= $2 AND timestamp <= $3
		 ORDER BY timestamp ASC, id ASC`,
		projectID, window.From, window.To,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	return scanChecks(rows)
}

// ListByProjectWithCursor pages a project's history newest first
func (r *CheckRepository) ListByProjectWithCursor(ctx context.Context, projectID string, since time.Time, cursor *pagination.Cursor, limit int) (*CheckPageResult, error) {
	if limit <= 0 {
		limit = 50
	}

	var rows pgx.Rows
	var err error

	if cursor != nil {
		rows, err = r.pool.Query(ctx,
			`SELECT `+checkColumns+`
			 FROM visibility_checks
			 WHERE project_id = $1 AND timestamp >= $2 AND (timestamp, id) < ($3, $4)
			 ORDER BY timestamp DESC, id DESC
			 LIMIT $5`,
			projectID, since, cursor.Timestamp, cursor.LastID, limit+1,
		)
	} else {
		rows, err = r.pool.Query(ctx,
			`SELECT `+checkColumns+`
			 FROM visibility_checks
			 WHERE project_id = $1 AND timestamp >= $2
			 ORDER BY timestamp DESC, id DESC
			 LIMIT $3`,
			projectID, since, limit+1,
		)
	}

	if err != nil {
		return nil, err
	}
	defer rows.Close()

	checks, err := scanChecks(rows)
	if err != nil {
		return nil, err
	}

	hasMore := len(checks) > limit
	if hasMore {
		checks = checks[:limit]
	}

	var nextCursor string
	if hasMore && len(checks) > 0 {
		last := checks[len(checks)-1]
		nextCursor = pagination.EncodeCursor(last.ID, last.Timestamp)
	}

	return &CheckPageResult{
		Items:      checks,
		NextCursor: nextCursor,
		HasMore:    hasMore,
	}, nil
}

func (r *CheckRepository) DeleteByProject(ctx context.Context, projectID string) error {
	_, err := r.pool.Exec(ctx,
		`DELETE FROM visibility_checks WHERE project_id = $1`,
		projectID,
	)
	return err
}

func scanCheck(row pgx.Row) (*domain.VisibilityCheck, error) {
	var c domain.VisibilityCheck
	err := row.Scan(&c.ID, &c.ProjectID, &c.Engine, &c.Keyword, &c.Presence,
		&c.Position, &c.CitationsCount, &c.ObservedURLs,
		&c.CompetitorsMentioned, &c.AnswerSnippet, &c.Timestamp)
	if err != nil {
		return nil, err
	}
	return &c, nil
}

func scanChecks(rows pgx.Rows) ([]*domain.VisibilityCheck, error) {
	var checks []*domain.VisibilityCheck
	for rows.Next() {
		check, err := scanCheck(rows)
		if err != nil {
			return nil, err
		}
		checks = append(checks, check)
	}
	return checks, rows.Err()
}
