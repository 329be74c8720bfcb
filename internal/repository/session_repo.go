package repository

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"freshr-backend/internal/models"
)

type SessionRepo struct {
	pool *pgxpool.Pool
}

func NewSessionRepo(pool *pgxpool.Pool) *SessionRepo {
	return &SessionRepo{pool: pool}
}

func (r *SessionRepo) Create(ctx context.Context, s *models.QuizSession) error {
	if s.ID == uuid.Nil {
		s.ID = uuid.New()
	}

	_, err := r.pool.Exec(ctx, `
		INSERT INTO quiz_sessions (id, user_id, quiz_id, allocated_time_seconds, started_at, is_completed)
		VALUES ($1, $2, $3, $4, $5, FALSE)
	`, s.ID, s.UserID, s.QuizID, s.AllocatedTimeSeconds, s.StartedAt)
	return err
}

// GetOwned loads a session only if it belongs to userID; anything else is
// pgx.ErrNoRows.
func (r *SessionRepo) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.QuizSession, error) {
	s := &models.QuizSession{}
	err := r.pool.QueryRow(ctx, `
		SELECT id, user_id, quiz_id, allocated_time_seconds, started_at, is_completed, completed_at
		FROM quiz_sessions
		WHERE id = $1 AND user_id = $2
	`, id, userID).Scan(
		&s.ID, &s.UserID, &s.QuizID, &s.AllocatedTimeSeconds, &s.StartedAt, &s.IsCompleted, &s.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	return s, nil
}

// MarkCompleted flips is_completed once. It reports false when the session
// was already completed.
func (r *SessionRepo) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	tag, err := r.pool.Exec(ctx, `
		UPDATE quiz_sessions
		SET is_completed = TRUE,
			completed_at = $2
		WHERE id = $1
		  AND is_completed = FALSE
	`, id, at)
	if err != nil {
		return false, err
	}
	return tag.RowsAffected() == 1, nil
}
