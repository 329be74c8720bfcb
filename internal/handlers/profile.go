package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"freshr-backend/internal/middleware"
	"freshr-backend/internal/models"
	"freshr-backend/internal/repository"
	"freshr-backend/internal/services"
)

type profileRepository interface {
	Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error)
	Upsert(ctx context.Context, p *models.UserProfile) error
}

type ProfileHandler struct {
	profileRepo profileRepository
}

func NewProfileHandler(profileRepo profileRepository) *ProfileHandler {
	return &ProfileHandler{profileRepo: profileRepo}
}

// Get returns the stored profile, or a blank one seeded from the token's
// email with isNew set when the user has never saved one.
func (h *ProfileHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	profile, err := h.profileRepo.Get(r.Context(), userID)
	if err != nil {
		if repository.IsNotFound(err) {
			writeJSON(w, http.StatusOK, map[string]interface{}{
				"profile": &models.UserProfile{UserID: userID, Email: middleware.GetEmail(r.Context())},
				"isNew":   true,
			})
			return
		}
		handleServiceError(w, r, fmt.Errorf("get profile: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile, "isNew": false})
}

func (h *ProfileHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req models.UpdateProfileRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	email := strings.TrimSpace(req.Email)
	if email == "" {
		email = middleware.GetEmail(r.Context())
	}
	if email == "" {
		handleServiceError(w, r, &services.ValidationError{
			Message: "Email is required",
			Fields:  map[string]string{"email": "Required"},
		})
		return
	}

	profile := &models.UserProfile{
		UserID:     middleware.GetUserID(r.Context()),
		FirstName:  strings.TrimSpace(req.FirstName),
		LastName:   strings.TrimSpace(req.LastName),
		Email:      email,
		Phone:      strings.TrimSpace(req.Phone),
		University: strings.TrimSpace(req.University),
		Occupation: strings.TrimSpace(req.Occupation),
	}
	if err := h.profileRepo.Upsert(r.Context(), profile); err != nil {
		handleServiceError(w, r, &services.PersistenceError{Op: "save profile", Err: err})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"profile": profile, "success": true})
}

type AnalyticsHandler struct {
	attemptRepo attemptRepository
	quizRepo    quizRepository
	now         func() time.Time
}

func NewAnalyticsHandler(attemptRepo attemptRepository, quizRepo quizRepository) *AnalyticsHandler {
	return &AnalyticsHandler{attemptRepo: attemptRepo, quizRepo: quizRepo, now: time.Now}
}

func (h *AnalyticsHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	attempts, err := h.attemptRepo.ListByUser(r.Context(), userID, nil, 0, 0)
	if err != nil {
		handleServiceError(w, r, fmt.Errorf("list attempts: %w", err))
		return
	}
	totalQuizzes, err := h.quizRepo.CountByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, fmt.Errorf("count quizzes: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, services.ComputeAnalytics(attempts, totalQuizzes, h.now()))
}
