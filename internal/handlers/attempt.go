package handlers

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"

	"github.com/google/uuid"

	"freshr-backend/internal/middleware"
	"freshr-backend/internal/models"
	"freshr-backend/internal/repository"
	"freshr-backend/internal/services"
)

type attemptRepository interface {
	Create(ctx context.Context, a *models.QuizAttempt) error
	ListByUser(ctx context.Context, userID uuid.UUID, quizID *uuid.UUID, limit, offset int) ([]*models.QuizAttempt, error)
}

var errDuplicateSubmission = &services.ConflictError{Message: "An attempt has already been submitted for this session"}

type AttemptHandler struct {
	attemptRepo attemptRepository
	quizRepo    quizRepository
	engine      sessionEngine
	lock        submitLocker
}

func NewAttemptHandler(attemptRepo attemptRepository, quizRepo quizRepository, engine sessionEngine, lock submitLocker) *AttemptHandler {
	return &AttemptHandler{
		attemptRepo: attemptRepo,
		quizRepo:    quizRepo,
		engine:      engine,
		lock:        lock,
	}
}

// Submit records a finished attempt. For a timed session, lateness is judged
// against the server clock and the session is marked completed; a second
// submission for the same session gets 409.
func (h *AttemptHandler) Submit(w http.ResponseWriter, r *http.Request) {
	submittedAt := h.engine.Now()

	var req models.SubmitAttemptRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validateSubmitAttempt(&req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	ctx := r.Context()
	userID := middleware.GetUserID(ctx)
	if _, err := ownedQuiz(ctx, h.quizRepo, *req.QuizID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	late := false
	if req.SessionID != nil {
		sessionID := *req.SessionID
		sess, isLate, err := h.engine.EvaluateSubmission(ctx, userID, sessionID, submittedAt)
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		if sess.QuizID != nil && *sess.QuizID != *req.QuizID {
			handleServiceError(w, r, &services.ValidationError{
				Message: "Invalid session",
				Fields:  map[string]string{"sessionId": "Session belongs to a different quiz"},
			})
			return
		}
		if sess.IsCompleted {
			handleServiceError(w, r, errDuplicateSubmission)
			return
		}
		late = isLate

		acquired, err := h.lock.Acquire(ctx, sessionID)
		switch {
		case err != nil:
			// Fall back to the unique index on session_id.
			log.Printf("Submit lock unavailable for session %s: %v", sessionID, err)
		case !acquired:
			handleServiceError(w, r, errDuplicateSubmission)
			return
		}

		attempt, err := h.persist(ctx, userID, &req, late)
		if err != nil {
			if !errors.Is(err, errDuplicateSubmission) {
				h.lock.Release(ctx, sessionID)
			}
			handleServiceError(w, r, err)
			return
		}

		if _, err := h.engine.Complete(ctx, userID, sessionID, submittedAt, late); err != nil {
			log.Printf("Failed to mark session %s completed: %v", sessionID, err)
		}
		h.respond(w, attempt, late)
		return
	}

	attempt, err := h.persist(ctx, userID, &req, false)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}
	h.respond(w, attempt, late)
}

func (h *AttemptHandler) persist(ctx context.Context, userID uuid.UUID, req *models.SubmitAttemptRequest, late bool) (*models.QuizAttempt, error) {
	attempt := &models.QuizAttempt{
		UserID:           userID,
		QuizID:           *req.QuizID,
		Score:            *req.Score,
		TotalQuestions:   req.TotalQuestions,
		Percentage:       *req.Percentage,
		Answers:          req.Answers,
		TimeTakenSeconds: req.TimeTakenSeconds,
		SessionID:        req.SessionID,
		IsLateSubmission: late,
	}
	if err := h.attemptRepo.Create(ctx, attempt); err != nil {
		if repository.IsUniqueViolation(err) {
			return nil, errDuplicateSubmission
		}
		return nil, &services.PersistenceError{Op: "save attempt", Err: err}
	}
	return attempt, nil
}

func (h *AttemptHandler) respond(w http.ResponseWriter, attempt *models.QuizAttempt, late bool) {
	writeJSON(w, http.StatusCreated, models.SubmitAttemptResponse{
		Success:          true,
		Attempt:          attempt,
		IsLateSubmission: late,
	})
}

func (h *AttemptHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, offset := pagination(r)

	var quizID *uuid.UUID
	if r.URL.Query().Get("quizId") != "" {
		id, err := queryUUID(r, "quizId")
		if err != nil {
			handleServiceError(w, r, err)
			return
		}
		quizID = &id
	}

	attempts, err := h.attemptRepo.ListByUser(r.Context(), userID, quizID, limit, offset)
	if err != nil {
		handleServiceError(w, r, fmt.Errorf("list attempts: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

func validateSubmitAttempt(req *models.SubmitAttemptRequest) error {
	fields := map[string]string{}
	if req.QuizID == nil || *req.QuizID == uuid.Nil {
		fields["quizId"] = "Required"
	}
	if req.Score == nil {
		fields["score"] = "Required"
	}
	if req.TotalQuestions <= 0 {
		fields["totalQuestions"] = "Must be greater than zero"
	}
	if req.Percentage == nil {
		fields["percentage"] = "Required"
	} else if *req.Percentage < 0 || *req.Percentage > 100 {
		fields["percentage"] = "Must be between 0 and 100"
	}
	if req.Answers == nil {
		fields["answers"] = "Required"
	} else if msg := validateAnswers(req.Answers, req.TotalQuestions); msg != "" {
		fields["answers"] = msg
	}
	if req.Score != nil && (*req.Score < 0 || *req.Score > req.TotalQuestions) {
		fields["score"] = "Must be between 0 and totalQuestions"
	}
	if req.SessionID != nil && *req.SessionID == uuid.Nil {
		fields["sessionId"] = "Invalid session"
	}
	if len(fields) > 0 {
		return &services.ValidationError{Message: "Invalid attempt data", Fields: fields}
	}
	return nil
}

// validateAnswers requires one entry per question, each index used once and
// each selection either unanswered or a real option.
func validateAnswers(answers []models.AttemptAnswer, total int) string {
	if len(answers) != total {
		return fmt.Sprintf("Must contain exactly %d answers", total)
	}
	seen := make(map[int]bool, len(answers))
	for _, a := range answers {
		if a.QuestionIndex < 0 || a.QuestionIndex >= total || seen[a.QuestionIndex] {
			return fmt.Sprintf("Invalid or duplicate questionIndex %d", a.QuestionIndex)
		}
		seen[a.QuestionIndex] = true

		switch {
		case a.SelectedAnswer == models.UnansweredIndex:
			if a.IsCorrect {
				return fmt.Sprintf("Unanswered question %d cannot be correct", a.QuestionIndex)
			}
		case a.SelectedAnswer < 0 || a.SelectedAnswer >= models.OptionsPerQuestion:
			return fmt.Sprintf("Invalid selectedAnswer for question %d", a.QuestionIndex)
		}
	}
	return ""
}
