package services

import "context"

// LLM is a text-in, JSON-text-out completion backend.
type LLM interface {
	Complete(ctx context.Context, system, prompt string) (string, error)
}
