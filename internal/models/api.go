package models

import "github.com/google/uuid"

// WebSocket message types
type WSMessage struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload"`
}

type SessionEvent struct {
	SessionID        uuid.UUID  `json:"sessionId"`
	QuizID           *uuid.UUID `json:"quizId,omitempty"`
	ExpiresAt        string     `json:"expiresAt,omitempty"`
	IsLateSubmission bool       `json:"isLateSubmission,omitempty"`
}

// API Error response
type APIError struct {
	Code      string            `json:"code"`
	Message   string            `json:"message"`
	Fields    map[string]string `json:"fields,omitempty"`
	RequestID string            `json:"request_id"`
}

type ErrorResponse struct {
	Error APIError `json:"error"`
}
