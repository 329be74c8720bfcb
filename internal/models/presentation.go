package models

import (
	"time"

	"github.com/google/uuid"
)

type SlideFormat string

const (
	SlideFormatConcise     SlideFormat = "concise"
	SlideFormatDetailed    SlideFormat = "detailed"
	SlideFormatBulletpoint SlideFormat = "bulletpoint"
)

func (f SlideFormat) Valid() bool {
	switch f {
	case SlideFormatConcise, SlideFormatDetailed, SlideFormatBulletpoint:
		return true
	}
	return false
}

type Slide struct {
	Title   string      `json:"title"`
	Content string      `json:"content"`
	Format  SlideFormat `json:"format"`
}

type GeneratedPresentationData struct {
	ID                uuid.UUID `json:"id"`
	Title             string    `json:"title"`
	Subtitle          string    `json:"subtitle,omitempty"`
	Slides            []Slide   `json:"slides"`
	EstimatedDuration string    `json:"estimatedDuration"`
	CreatedAt         time.Time `json:"createdAt"`
	UserID            uuid.UUID `json:"userId"`
}

type GeneratePresentationRequest struct {
	Content        string
	NumberOfSlides int
	Style          string
	Format         SlideFormat
}

type ExportPresentationRequest struct {
	Presentation *GeneratedPresentationData `json:"presentation"`
	Format       string                     `json:"format"`
	Theme        string                     `json:"theme"`
}
