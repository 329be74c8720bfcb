// Package session owns the server-side timing window of a timed quiz attempt.
// Every deadline is derived from the stored start instant and the server
// clock; nothing the client reports about elapsed time is trusted.
package session

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"freshr-backend/internal/models"
	"freshr-backend/internal/services"
)

const (
	// GracePeriod is added to the allocation only when judging lateness.
	GracePeriod         = 30 * time.Second
	MinAllocatedSeconds = 60
)

const (
	EventSessionCreated   = "session_created"
	EventSessionCompleted = "session_completed"
)

type Store interface {
	Create(ctx context.Context, s *models.QuizSession) error
	GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.QuizSession, error)
	MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error)
}

// Publisher fans session events out to the owner's websocket connections.
type Publisher interface {
	PublishUpdate(ctx context.Context, userID uuid.UUID, msg models.WSMessage)
}

type Clock interface {
	Now() time.Time
}

type SystemClock struct{}

func (SystemClock) Now() time.Time { return time.Now() }

type Engine struct {
	store  Store
	events Publisher
	clock  Clock
}

func NewEngine(store Store, events Publisher, clock Clock) *Engine {
	if clock == nil {
		clock = SystemClock{}
	}
	return &Engine{store: store, events: events, clock: clock}
}

// Create starts a timed window for quizID. The start instant comes from the
// engine clock, truncated to the datastore's microsecond precision so that
// later reads derive the same expiry.
func (e *Engine) Create(ctx context.Context, userID uuid.UUID, quizID *uuid.UUID, allocatedSeconds int) (*models.SessionCreated, error) {
	fields := map[string]string{}
	if quizID == nil || *quizID == uuid.Nil {
		fields["quizId"] = "Quiz ID is required"
	}
	if allocatedSeconds < MinAllocatedSeconds {
		fields["allocatedTimeSeconds"] = fmt.Sprintf("Allocated time must be at least %d seconds", MinAllocatedSeconds)
	}
	if len(fields) > 0 {
		return nil, &services.ValidationError{Message: "Invalid session request", Fields: fields}
	}

	s := &models.QuizSession{
		ID:                   uuid.New(),
		UserID:               userID,
		QuizID:               quizID,
		AllocatedTimeSeconds: allocatedSeconds,
		StartedAt:            e.clock.Now().UTC().Truncate(time.Microsecond),
	}
	if err := e.store.Create(ctx, s); err != nil {
		return nil, &services.PersistenceError{Op: "create session", Err: err}
	}

	e.publish(ctx, userID, EventSessionCreated, models.SessionEvent{
		SessionID: s.ID,
		QuizID:    s.QuizID,
		ExpiresAt: s.ExpiresAt().Format(time.RFC3339Nano),
	})

	return &models.SessionCreated{
		SessionID:            s.ID,
		StartedAt:            s.StartedAt,
		AllocatedTimeSeconds: s.AllocatedTimeSeconds,
		ExpiresAt:            s.ExpiresAt(),
	}, nil
}

// Remaining reports the countdown for a session owned by userID. It never
// mutates state.
func (e *Engine) Remaining(ctx context.Context, userID, sessionID uuid.UUID) (*models.SessionStatus, error) {
	s, err := e.store.GetOwned(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, &services.NotFoundError{Message: "Session not found"}
		}
		return nil, fmt.Errorf("get session: %w", err)
	}

	remaining := RemainingSeconds(s.ExpiresAt(), e.clock.Now())
	return &models.SessionStatus{
		SessionID:            s.ID,
		StartedAt:            s.StartedAt,
		AllocatedTimeSeconds: s.AllocatedTimeSeconds,
		ExpiresAt:            s.ExpiresAt(),
		TimeRemainingSeconds: remaining,
		IsExpired:            remaining == 0,
		IsCompleted:          s.IsCompleted,
	}, nil
}

// EvaluateSubmission loads the session a submission refers to and reports
// whether it arrived after the allocation plus GracePeriod. Late submissions
// are still accepted.
func (e *Engine) EvaluateSubmission(ctx context.Context, userID, sessionID uuid.UUID, submittedAt time.Time) (*models.QuizSession, bool, error) {
	s, err := e.store.GetOwned(ctx, sessionID, userID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, false, &services.ValidationError{
				Message: "Invalid session",
				Fields:  map[string]string{"sessionId": "Invalid session"},
			}
		}
		return nil, false, fmt.Errorf("get session: %w", err)
	}
	return s, IsLate(s, submittedAt), nil
}

// Complete marks the session completed at the submission instant. A session
// that is already completed is left untouched and reports false.
func (e *Engine) Complete(ctx context.Context, userID, sessionID uuid.UUID, at time.Time, late bool) (bool, error) {
	ok, err := e.store.MarkCompleted(ctx, sessionID, at.UTC())
	if err != nil {
		return false, &services.PersistenceError{Op: "complete session", Err: err}
	}
	if ok {
		e.publish(ctx, userID, EventSessionCompleted, models.SessionEvent{
			SessionID:        sessionID,
			IsLateSubmission: late,
		})
	}
	return ok, nil
}

func (e *Engine) Now() time.Time {
	return e.clock.Now()
}

func (e *Engine) publish(ctx context.Context, userID uuid.UUID, eventType string, payload models.SessionEvent) {
	if e.events == nil {
		return
	}
	e.events.PublishUpdate(ctx, userID, models.WSMessage{Type: eventType, Payload: payload})
}

// RemainingSeconds is max(0, floor((expiresAt - now) / 1s)).
func RemainingSeconds(expiresAt, now time.Time) int {
	d := expiresAt.Sub(now)
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// IsLate reports whether submittedAt is strictly after the graced deadline.
func IsLate(s *models.QuizSession, submittedAt time.Time) bool {
	return submittedAt.After(s.ExpiresAt().Add(GracePeriod))
}
