package handlers

import (
	"context"
	"net/http"
	"time"

	"github.com/google/uuid"

	"freshr-backend/internal/middleware"
	"freshr-backend/internal/models"
	"freshr-backend/internal/session"
)

type sessionEngine interface {
	Create(ctx context.Context, userID uuid.UUID, quizID *uuid.UUID, allocatedSeconds int) (*models.SessionCreated, error)
	Remaining(ctx context.Context, userID, sessionID uuid.UUID) (*models.SessionStatus, error)
	EvaluateSubmission(ctx context.Context, userID, sessionID uuid.UUID, submittedAt time.Time) (*models.QuizSession, bool, error)
	Complete(ctx context.Context, userID, sessionID uuid.UUID, at time.Time, late bool) (bool, error)
	Now() time.Time
}

type SessionHandler struct {
	engine   sessionEngine
	quizRepo quizRepository
}

func NewSessionHandler(engine sessionEngine, quizRepo quizRepository) *SessionHandler {
	return &SessionHandler{engine: engine, quizRepo: quizRepo}
}

// Create starts a timed session. The start instant is taken from the server
// clock; nothing time-related is read from the request except the allocation.
func (h *SessionHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req models.CreateSessionRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if req.QuizID != nil && req.AllocatedTimeSeconds >= session.MinAllocatedSeconds {
		if _, err := ownedQuiz(r.Context(), h.quizRepo, *req.QuizID, userID); err != nil {
			handleServiceError(w, r, err)
			return
		}
	}

	created, err := h.engine.Create(r.Context(), userID, req.QuizID, req.AllocatedTimeSeconds)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, struct {
		Success bool `json:"success"`
		*models.SessionCreated
	}{true, created})
}

func (h *SessionHandler) Get(w http.ResponseWriter, r *http.Request) {
	sessionID, err := queryUUID(r, "sessionId")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	status, err := h.engine.Remaining(r.Context(), middleware.GetUserID(r.Context()), sessionID)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, status)
}
