package repository

import (
	"context"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"

	"freshr-backend/internal/models"
)

type ProfileRepo struct {
	pool *pgxpool.Pool
}

func NewProfileRepo(pool *pgxpool.Pool) *ProfileRepo {
	return &ProfileRepo{pool: pool}
}

func (r *ProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	p := &models.UserProfile{}
	err := r.pool.QueryRow(ctx, `
		SELECT user_id, first_name, last_name, email, phone, university, occupation, updated_at
		FROM user_profiles WHERE user_id = $1
	`, userID).Scan(&p.UserID, &p.FirstName, &p.LastName, &p.Email, &p.Phone, &p.University, &p.Occupation, &p.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (r *ProfileRepo) Upsert(ctx context.Context, p *models.UserProfile) error {
	return r.pool.QueryRow(ctx, `
		INSERT INTO user_profiles (user_id, first_name, last_name, email, phone, university, occupation, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, NOW())
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name,
			last_name = EXCLUDED.last_name,
			email = EXCLUDED.email,
			phone = EXCLUDED.phone,
			university = EXCLUDED.university,
			occupation = EXCLUDED.occupation,
			updated_at = NOW()
		RETURNING updated_at
	`, p.UserID, p.FirstName, p.LastName, p.Email, p.Phone, p.University, p.Occupation).Scan(&p.UpdatedAt)
}
