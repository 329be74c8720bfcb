package models

import (
	"time"

	"github.com/google/uuid"
)

type QuizSession struct {
	ID                   uuid.UUID  `json:"id"`
	UserID               uuid.UUID  `json:"userId"`
	QuizID               *uuid.UUID `json:"quizId"`
	AllocatedTimeSeconds int        `json:"allocatedTimeSeconds"`
	StartedAt            time.Time  `json:"startedAt"`
	IsCompleted          bool       `json:"isCompleted"`
	CompletedAt          *time.Time `json:"completedAt,omitempty"`
}

// ExpiresAt is derived from the stored start instant on every read.
func (s *QuizSession) ExpiresAt() time.Time {
	return s.StartedAt.Add(time.Duration(s.AllocatedTimeSeconds) * time.Second)
}

type CreateSessionRequest struct {
	QuizID               *uuid.UUID `json:"quizId"`
	AllocatedTimeSeconds int        `json:"allocatedTimeSeconds"`
}

type SessionCreated struct {
	SessionID            uuid.UUID `json:"sessionId"`
	StartedAt            time.Time `json:"startedAt"`
	AllocatedTimeSeconds int       `json:"allocatedTimeSeconds"`
	ExpiresAt            time.Time `json:"expiresAt"`
}

type SessionStatus struct {
	SessionID            uuid.UUID `json:"sessionId"`
	StartedAt            time.Time `json:"startedAt"`
	AllocatedTimeSeconds int       `json:"allocatedTimeSeconds"`
	ExpiresAt            time.Time `json:"expiresAt"`
	TimeRemainingSeconds int       `json:"timeRemainingSeconds"`
	IsExpired            bool      `json:"isExpired"`
	IsCompleted          bool      `json:"isCompleted"`
}
