package repository

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"freshr-backend/internal/models"
)

type FavoriteRepo struct {
	pool *pgxpool.Pool
}

func NewFavoriteRepo(pool *pgxpool.Pool) *FavoriteRepo {
	return &FavoriteRepo{pool: pool}
}

func (r *FavoriteRepo) Add(ctx context.Context, f *models.FavoriteQuiz) error {
	f.ID = uuid.New()
	return r.pool.QueryRow(ctx,
		`INSERT INTO favorite_quizzes (id, user_id, quiz_id) VALUES ($1, $2, $3) RETURNING created_at`,
		f.ID, f.UserID, f.QuizID,
	).Scan(&f.CreatedAt)
}

func (r *FavoriteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.FavoriteQuiz, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT f.id, f.user_id, f.quiz_id, f.created_at,
			q.id, q.user_id, q.title, q.description, q.topic, q.difficulty, q.questions, q.question_count, q.created_at
		FROM favorite_quizzes f
		JOIN quizzes q ON q.id = f.quiz_id
		WHERE f.user_id = $1
		ORDER BY f.created_at DESC
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	favorites := []*models.FavoriteQuiz{}
	for rows.Next() {
		f := &models.FavoriteQuiz{Quiz: &models.Quiz{}}
		var questions []byte
		err := rows.Scan(&f.ID, &f.UserID, &f.QuizID, &f.CreatedAt,
			&f.Quiz.ID, &f.Quiz.UserID, &f.Quiz.Title, &f.Quiz.Description, &f.Quiz.Topic, &f.Quiz.Difficulty,
			&questions, &f.Quiz.QuestionCount, &f.Quiz.CreatedAt)
		if err != nil {
			return nil, err
		}
		if err := json.Unmarshal(questions, &f.Quiz.Questions); err != nil {
			return nil, fmt.Errorf("failed to decode questions for quiz %s: %w", f.QuizID, err)
		}
		favorites = append(favorites, f)
	}
	return favorites, rows.Err()
}

func (r *FavoriteRepo) Remove(ctx context.Context, userID, quizID uuid.UUID) error {
	_, err := r.pool.Exec(ctx, "DELETE FROM favorite_quizzes WHERE user_id = $1 AND quiz_id = $2", userID, quizID)
	return err
}
