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

type QuizRepo struct {
	pool *pgxpool.Pool
}

func NewQuizRepo(pool *pgxpool.Pool) *QuizRepo {
	return &QuizRepo{pool: pool}
}

const quizColumns = `id, user_id, title, description, topic, difficulty, questions, question_count, created_at`

func (r *QuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	q.ID = uuid.New()
	q.QuestionCount = len(q.Questions)
	if q.Difficulty == "" {
		q.Difficulty = "medium"
	}

	questionsBytes, err := json.Marshal(q.Questions)
	if err != nil {
		return fmt.Errorf("failed to encode questions: %w", err)
	}

	query := `INSERT INTO quizzes (id, user_id, title, description, topic, difficulty, questions, question_count)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8) RETURNING created_at`

	return r.pool.QueryRow(ctx, query,
		q.ID, q.UserID, q.Title, q.Description, q.Topic, q.Difficulty, questionsBytes, q.QuestionCount,
	).Scan(&q.CreatedAt)
}

func (r *QuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE id = $1`
	return scanQuiz(r.pool.QueryRow(ctx, query, id))
}

func (r *QuizRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Quiz, error) {
	query := `SELECT ` + quizColumns + ` FROM quizzes WHERE user_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3`

	rows, err := r.pool.Query(ctx, query, userID, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	quizzes := []*models.Quiz{}
	for rows.Next() {
		q, err := scanQuiz(rows)
		if err != nil {
			return nil, err
		}
		quizzes = append(quizzes, q)
	}
	return quizzes, rows.Err()
}

func (r *QuizRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var n int
	err := r.pool.QueryRow(ctx, "SELECT COUNT(*) FROM quizzes WHERE user_id = $1", userID).Scan(&n)
	return n, err
}

// Delete removes a quiz owned by userID. Sessions, attempts and favorites go
// with it via ON DELETE CASCADE.
func (r *QuizRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM quizzes WHERE id = $1 AND user_id = $2", id, userID)
	return err
}

func scanQuiz(row pgx.Row) (*models.Quiz, error) {
	q := &models.Quiz{}
	var questions []byte
	err := row.Scan(&q.ID, &q.UserID, &q.Title, &q.Description, &q.Topic, &q.Difficulty,
		&questions, &q.QuestionCount, &q.CreatedAt)
	if err != nil {
		return nil, err
	}
	if err := json.Unmarshal(questions, &q.Questions); err != nil {
		return nil, fmt.Errorf("failed to decode questions for quiz %s: %w", q.ID, err)
	}
	return q, nil
}
