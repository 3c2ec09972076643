package repository

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"

	"figuresmith/internal/domain"
)

// ArchiveRepository persists completed pipeline sessions so generated figures
// survive process restarts. The live pipeline never reads from here.
type ArchiveRepository struct {
	db *pgxpool.Pool
}

func NewArchiveRepository(db *pgxpool.Pool) *ArchiveRepository {
	return &ArchiveRepository{db: db}
}

// SaveSession upserts the session row and its image versions in one
// transaction. Safe to call again after further reviews.
func (r *ArchiveRepository) SaveSession(ctx context.Context, s *domain.Session) error {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx, `
		INSERT INTO archived_sessions (id, task, interpreter_model, image_model, max_iterations, generated_prompt, usage_cost, created_at, archived_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, now())
		ON CONFLICT (id) DO UPDATE SET usage_cost = EXCLUDED.usage_cost, archived_at = now()`,
		s.ID, s.Task, s.InterpreterModel, s.ImageModel, s.MaxIterations, s.GeneratedPrompt, s.UsageCost, s.CreatedAt)
	if err != nil {
		return fmt.Errorf("insert session: %w", err)
	}

	for _, v := range s.ImageHistory {
		_, err = tx.Exec(ctx, `
			INSERT INTO archived_versions (session_id, version, image, prompt)
			VALUES ($1, $2, $3, $4)
			ON CONFLICT (session_id, version) DO NOTHING`,
			s.ID, v.Version, v.Image, v.Prompt)
		if err != nil {
			return fmt.Errorf("insert version %d: %w", v.Version, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// SaveReview stores one version's review alongside the archived session.
func (r *ArchiveRepository) SaveReview(ctx context.Context, sessionID string, version int, rev *domain.ReviewResult) error {
	scores, err := json.Marshal(rev.Scores)
	if err != nil {
		return fmt.Errorf("marshal scores: %w", err)
	}

	_, err = r.db.Exec(ctx, `
		INSERT INTO archived_reviews (session_id, version, review_text, scores, readiness, model)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (session_id, version) DO UPDATE
		SET review_text = EXCLUDED.review_text, scores = EXCLUDED.scores, readiness = EXCLUDED.readiness, model = EXCLUDED.model`,
		sessionID, version, rev.ReviewText, scores, rev.PublicationReadiness, rev.Model)
	if err != nil {
		return fmt.Errorf("insert review: %w", err)
	}
	return nil
}

// ArchivedSession is one row of the archive listing.
type ArchivedSession struct {
	ID               string          `json:"id"`
	Task             string          `json:"taskDescription"`
	InterpreterModel string          `json:"interpreterModel"`
	ImageModel       string          `json:"imageModel"`
	Versions         int             `json:"versions"`
	UsageCost        decimal.Decimal `json:"usageCost"`
	CreatedAt        time.Time       `json:"createdAt"`
	ArchivedAt       time.Time       `json:"archivedAt"`
}

// ListSessions returns the most recently archived sessions.
func (r *ArchiveRepository) ListSessions(ctx context.Context, limit int) ([]ArchivedSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT s.id, s.task, s.interpreter_model, s.image_model,
		       (SELECT count(*) FROM archived_versions v WHERE v.session_id = s.id),
		       s.usage_cost, s.created_at, s.archived_at
		FROM archived_sessions s
		ORDER BY s.archived_at DESC
		LIMIT $1`, limit)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	sessions, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (ArchivedSession, error) {
		var a ArchivedSession
		err := row.Scan(&a.ID, &a.Task, &a.InterpreterModel, &a.ImageModel, &a.Versions, &a.UsageCost, &a.CreatedAt, &a.ArchivedAt)
		return a, err
	})
	if err != nil {
		return nil, fmt.Errorf("scan sessions: %w", err)
	}
	return sessions, nil
}
