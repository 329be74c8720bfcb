package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"freshr-backend/internal/models"
)

type AttemptRepo struct {
	pool *pgxpool.Pool
}

func NewAttemptRepo(pool *pgxpool.Pool) *AttemptRepo {
	return &AttemptRepo{pool: pool}
}

// Create inserts an attempt. A second attempt for the same session violates
// the UNIQUE(session_id) constraint; see IsUniqueViolation.
func (r *AttemptRepo) Create(ctx context.Context, a *models.QuizAttempt) error {
	a.ID = uuid.New()
	answersBytes, err := json.Marshal(a.Answers)
	if err != nil {
		return fmt.Errorf("failed to encode answers: %w", err)
	}

	query := `INSERT INTO quiz_attempts (id, user_id, quiz_id, score, total_questions, percentage, answers,
			time_taken_seconds, session_id, is_late_submission)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10) RETURNING completed_at`

	return r.pool.QueryRow(ctx, query,
		a.ID, a.UserID, a.QuizID, a.Score, a.TotalQuestions, a.Percentage, answersBytes,
		a.TimeTakenSeconds, a.SessionID, a.IsLateSubmission,
	).Scan(&a.CompletedAt)
}

// ListByUser returns attempts newest first, optionally filtered to one quiz.
// A limit <= 0 returns every attempt.
func (r *AttemptRepo) ListByUser(ctx context.Context, userID uuid.UUID, quizID *uuid.UUID, limit, offset int) ([]*models.QuizAttempt, error) {
	query := `SELECT a.id, a.user_id, a.quiz_id, a.score, a.total_questions, a.percentage, a.answers,
			a.time_taken_seconds, a.session_id, a.is_late_submission, a.completed_at, q.title
		FROM quiz_attempts a
		LEFT JOIN quizzes q ON q.id = a.quiz_id
		WHERE a.user_id = $1 AND ($2::uuid IS NULL OR a.quiz_id = $2)
		ORDER BY a.completed_at DESC`

	args := []interface{}{userID, quizID}
	if limit > 0 {
		query += ` LIMIT $3 OFFSET $4`
		args = append(args, limit, offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	attempts := []*models.QuizAttempt{}
	for rows.Next() {
		a, err := scanAttempt(rows)
		if err != nil {
			return nil, err
		}
		attempts = append(attempts, a)
	}
	return attempts, rows.Err()
}

func scanAttempt(row pgx.Row) (*models.QuizAttempt, error) {
	a := &models.QuizAttempt{}
	var answers []byte
	err := row.Scan(&a.ID, &a.UserID, &a.QuizID, &a.Score, &a.TotalQuestions, &a.Percentage, &answers,
		&a.TimeTakenSeconds, &a.SessionID, &a.IsLateSubmission, &a.CompletedAt, &a.QuizTitle)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(answers, &a.Answers); err != nil {
		return nil, fmt.Errorf("failed to decode answers for attempt %s: %w", a.ID, err)
	}
	return a, nil
}
