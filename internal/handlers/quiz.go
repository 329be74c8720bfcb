package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"freshr-backend/internal/middleware"
	"freshr-backend/internal/models"
	"freshr-backend/internal/repository"
	"freshr-backend/internal/services"
)

type quizGenerator interface {
	GenerateQuiz(ctx context.Context, userID uuid.UUID, req models.GenerateQuizRequest) (*models.GeneratedQuiz, error)
}

type contentPreparer interface {
	PrepareContent(file []byte, mimeType, text string) (string, error)
}

type quizRepository interface {
	Create(ctx context.Context, q *models.Quiz) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Quiz, error)
	CountByUser(ctx context.Context, userID uuid.UUID) (int, error)
	Delete(ctx context.Context, id, userID uuid.UUID) error
}

type favoriteRepository interface {
	Add(ctx context.Context, f *models.FavoriteQuiz) error
	ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.FavoriteQuiz, error)
	Remove(ctx context.Context, userID, quizID uuid.UUID) error
}

type QuizHandler struct {
	generator quizGenerator
	extractor contentPreparer
	quizRepo  quizRepository
	favRepo   favoriteRepository
}

func NewQuizHandler(generator quizGenerator, extractor contentPreparer, quizRepo quizRepository, favRepo favoriteRepository) *QuizHandler {
	return &QuizHandler{
		generator: generator,
		extractor: extractor,
		quizRepo:  quizRepo,
		favRepo:   favRepo,
	}
}

// Generate builds a quiz from an uploaded document or pasted text. The quiz
// is returned to the client unsaved.
func (h *QuizHandler) Generate(w http.ResponseWriter, r *http.Request) {
	form, err := readContentForm(w, r)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	content, err := h.extractor.PrepareContent(form.file, form.mimeType, form.text)
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	quiz, err := h.generator.GenerateQuiz(r.Context(), userID, models.GenerateQuizRequest{
		Content:           content,
		NumberOfQuestions: form.intValue("numberOfQuestions"),
		Difficulty:        strings.ToLower(strings.TrimSpace(form.values["difficulty"])),
	})
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true, "quiz": quiz})
}

func (h *QuizHandler) Save(w http.ResponseWriter, r *http.Request) {
	var req models.SaveQuizRequest
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if err := validateSaveQuiz(&req); err != nil {
		handleServiceError(w, r, err)
		return
	}

	quiz := &models.Quiz{
		UserID:      middleware.GetUserID(r.Context()),
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Topic:       req.Topic,
		Difficulty:  req.Difficulty,
		Questions:   req.Questions,
	}
	if err := h.quizRepo.Create(r.Context(), quiz); err != nil {
		handleServiceError(w, r, &services.PersistenceError{Op: "save quiz", Err: err})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "quiz": quiz})
}

func (h *QuizHandler) List(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())
	limit, offset := pagination(r)

	quizzes, err := h.quizRepo.ListByUser(r.Context(), userID, limit, offset)
	if err != nil {
		handleServiceError(w, r, fmt.Errorf("list quizzes: %w", err))
		return
	}
	total, err := h.quizRepo.CountByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, fmt.Errorf("count quizzes: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{
		"quizzes": quizzes,
		"total":   total,
		"limit":   limit,
		"offset":  offset,
	})
}

// Delete removes a quiz with its sessions, attempts and favorites. Deleting a
// quiz that does not exist is not an error.
func (h *QuizHandler) Delete(w http.ResponseWriter, r *http.Request) {
	quizID, err := queryUUID(r, "quizId")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.quizRepo.Delete(r.Context(), quizID, userID); err != nil {
		handleServiceError(w, r, &services.PersistenceError{Op: "delete quiz", Err: err})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

func (h *QuizHandler) AddFavorite(w http.ResponseWriter, r *http.Request) {
	var req struct {
		QuizID *uuid.UUID `json:"quizId"`
	}
	if err := decodeJSON(r, &req); err != nil {
		handleServiceError(w, r, err)
		return
	}
	if req.QuizID == nil || *req.QuizID == uuid.Nil {
		handleServiceError(w, r, &services.ValidationError{
			Message: "Quiz ID is required",
			Fields:  map[string]string{"quizId": "Required"},
		})
		return
	}

	userID := middleware.GetUserID(r.Context())
	if _, err := ownedQuiz(r.Context(), h.quizRepo, *req.QuizID, userID); err != nil {
		handleServiceError(w, r, err)
		return
	}

	fav := &models.FavoriteQuiz{UserID: userID, QuizID: *req.QuizID}
	if err := h.favRepo.Add(r.Context(), fav); err != nil {
		if repository.IsUniqueViolation(err) {
			handleServiceError(w, r, &services.ConflictError{Message: "Quiz already in favorites"})
			return
		}
		handleServiceError(w, r, &services.PersistenceError{Op: "add favorite", Err: err})
		return
	}

	writeJSON(w, http.StatusCreated, map[string]interface{}{"success": true, "favorite": fav})
}

func (h *QuizHandler) ListFavorites(w http.ResponseWriter, r *http.Request) {
	userID := middleware.GetUserID(r.Context())

	favorites, err := h.favRepo.ListByUser(r.Context(), userID)
	if err != nil {
		handleServiceError(w, r, fmt.Errorf("list favorites: %w", err))
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"favorites": favorites})
}

func (h *QuizHandler) RemoveFavorite(w http.ResponseWriter, r *http.Request) {
	quizID, err := queryUUID(r, "quizId")
	if err != nil {
		handleServiceError(w, r, err)
		return
	}

	userID := middleware.GetUserID(r.Context())
	if err := h.favRepo.Remove(r.Context(), userID, quizID); err != nil {
		handleServiceError(w, r, &services.PersistenceError{Op: "remove favorite", Err: err})
		return
	}

	writeJSON(w, http.StatusOK, map[string]interface{}{"success": true})
}

// ownedQuiz loads a quiz and hides quizzes belonging to other users.
func ownedQuiz(ctx context.Context, repo quizRepository, id, userID uuid.UUID) (*models.Quiz, error) {
	quiz, err := repo.GetByID(ctx, id)
	if err != nil {
		if repository.IsNotFound(err) {
			return nil, &services.NotFoundError{Message: "Quiz not found"}
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	if quiz.UserID != userID {
		return nil, &services.NotFoundError{Message: "Quiz not found"}
	}
	return quiz, nil
}

var validDifficulties = map[string]bool{"easy": true, "medium": true, "hard": true}

func validateSaveQuiz(req *models.SaveQuizRequest) error {
	fields := map[string]string{}
	if strings.TrimSpace(req.Title) == "" {
		fields["title"] = "Title is required"
	}
	if len(req.Questions) == 0 {
		fields["questions"] = "At least one question is required"
	}
	for i, q := range req.Questions {
		if strings.TrimSpace(q.Question) == "" || len(q.Options) != models.OptionsPerQuestion {
			fields["questions"] = fmt.Sprintf("Question %d must have text and %d options", i+1, models.OptionsPerQuestion)
			break
		}
		if q.CorrectAnswer < 0 || q.CorrectAnswer >= models.OptionsPerQuestion {
			fields["questions"] = fmt.Sprintf("Question %d has an invalid correct answer", i+1)
			break
		}
	}
	if req.Difficulty == "" {
		req.Difficulty = "medium"
	} else if !validDifficulties[req.Difficulty] {
		fields["difficulty"] = "Must be one of easy, medium, hard"
	}
	if len(fields) > 0 {
		return &services.ValidationError{Message: "Invalid quiz data", Fields: fields}
	}
	return nil
}
