package models

import (
	"time"

	"github.com/google/uuid"
)

const (
	OptionsPerQuestion = 4
	UnansweredIndex    = -1
)

type Quiz struct {
	ID            uuid.UUID  `json:"id"`
	UserID        uuid.UUID  `json:"userId"`
	Title         string     `json:"title"`
	Description   *string    `json:"description,omitempty"`
	Topic         *string    `json:"topic,omitempty"`
	Difficulty    string     `json:"difficulty"`
	Questions     []Question `json:"questions"`
	QuestionCount int        `json:"questionCount"`
	CreatedAt     time.Time  `json:"createdAt"`
}

type Question struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer int      `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

// IsCorrect reports whether selected is the correct option. The unanswered
// sentinel is never correct.
func (q Question) IsCorrect(selected int) bool {
	return selected != UnansweredIndex && selected == q.CorrectAnswer
}

// GeneratedQuiz is the decorated quiz returned by the generate endpoint. It
// is not persisted until the client saves it.
type GeneratedQuiz struct {
	ID          uuid.UUID  `json:"id"`
	Title       string     `json:"title"`
	Questions   []Question `json:"questions"`
	Difficulty  string     `json:"difficulty"`
	Topic       string     `json:"topic"`
	Description string     `json:"description"`
	CreatedAt   time.Time  `json:"createdAt"`
	UserID      uuid.UUID  `json:"userId"`
}

type GenerateQuizRequest struct {
	Content           string
	NumberOfQuestions int
	Difficulty        string
}

type SaveQuizRequest struct {
	Title       string     `json:"title"`
	Questions   []Question `json:"questions"`
	Difficulty  string     `json:"difficulty"`
	Description *string    `json:"description,omitempty"`
	Topic       *string    `json:"topic,omitempty"`
}

type QuizAttempt struct {
	ID               uuid.UUID       `json:"id"`
	UserID           uuid.UUID       `json:"userId"`
	QuizID           uuid.UUID       `json:"quizId"`
	Score            int             `json:"score"`
	TotalQuestions   int             `json:"totalQuestions"`
	Percentage       int             `json:"percentage"`
	Answers          []AttemptAnswer `json:"answers"`
	TimeTakenSeconds *int            `json:"timeTakenSeconds"`
	SessionID        *uuid.UUID      `json:"sessionId"`
	IsLateSubmission bool            `json:"isLateSubmission"`
	CompletedAt      time.Time       `json:"completedAt"`

	// Joined on list queries
	QuizTitle *string `json:"quizTitle,omitempty"`
}

type AttemptAnswer struct {
	QuestionIndex  int  `json:"questionIndex"`
	SelectedAnswer int  `json:"selectedAnswer"`
	IsCorrect      bool `json:"isCorrect"`
}

type SubmitAttemptRequest struct {
	QuizID           *uuid.UUID      `json:"quizId"`
	Score            *int            `json:"score"`
	TotalQuestions   int             `json:"totalQuestions"`
	Percentage       *int            `json:"percentage"`
	Answers          []AttemptAnswer `json:"answers"`
	TimeTakenSeconds *int            `json:"timeTakenSeconds,omitempty"`
	SessionID        *uuid.UUID      `json:"sessionId,omitempty"`
}

type SubmitAttemptResponse struct {
	Success          bool         `json:"success"`
	Attempt          *QuizAttempt `json:"attempt"`
	IsLateSubmission bool         `json:"isLateSubmission"`
}

type FavoriteQuiz struct {
	ID        uuid.UUID `json:"id"`
	UserID    uuid.UUID `json:"userId"`
	QuizID    uuid.UUID `json:"quizId"`
	CreatedAt time.Time `json:"createdAt"`
	Quiz      *Quiz     `json:"quiz,omitempty"`
}
