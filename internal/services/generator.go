package services

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"freshr-backend/internal/models"
)

const (
	DefaultQuestionCount = 5
	MaxQuestionCount     = 20
	DefaultSlideCount    = 10
	MaxSlideCount        = 30
)

var (
	difficultyPrompt = map[string]string{
		"easy":   "simple and straightforward questions suitable for beginners",
		"medium": "moderately challenging questions that test understanding",
		"hard":   "complex questions that require deep understanding and critical thinking",
	}
	stylePrompt = map[string]string{
		"professional": "formal and business-appropriate language, suitable for corporate presentations",
		"academic":     "scholarly tone with emphasis on key concepts and evidence-based points",
		"casual":       "friendly and conversational tone, easy to understand for general audiences",
	}
	formatInstruction = map[models.SlideFormat]string{
		models.SlideFormatBulletpoint: "3-5 concise bullet points covering main topics in one sentence each. Format as bullet points separated by newlines with '- ' prefix.",
		models.SlideFormatConcise:     "a short paragraph (50-100 words) that is to-the-point, clear, and informative",
		models.SlideFormatDetailed:    "a longer paragraph (150-200 words) with more details and well-structured information",
	}
)

// Generator turns study material into quizzes and presentation outlines.
type Generator struct {
	llm      LLM
	timeout  time.Duration
	rateChan chan struct{} // Token bucket
	now      func() time.Time
}

func NewGenerator(llm LLM, concurrentReqs int, timeout time.Duration) *Generator {
	if concurrentReqs < 1 {
		concurrentReqs = 1
	}
	rateChan := make(chan struct{}, concurrentReqs)
	for i := 0; i < concurrentReqs; i++ {
		rateChan <- struct{}{}
	}

	return &Generator{
		llm:      llm,
		timeout:  timeout,
		rateChan: rateChan,
		now:      time.Now,
	}
}

// acquireRate blocks until a rate slot is available
func (g *Generator) acquireRate(ctx context.Context) error {
	select {
	case <-g.rateChan:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	case <-time.After(5 * time.Minute):
		return fmt.Errorf("timeout waiting for LLM rate slot")
	}
}

func (g *Generator) releaseRate() {
	g.rateChan <- struct{}{}
}

func (g *Generator) complete(ctx context.Context, op, system, prompt string) (string, error) {
	if err := g.acquireRate(ctx); err != nil {
		return "", &UpstreamError{Op: op, Err: err}
	}
	defer g.releaseRate()

	if g.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.timeout)
		defer cancel()
	}

	raw, err := g.llm.Complete(ctx, system, prompt)
	if err != nil {
		log.Printf("%s: LLM call failed: %v", op, err)
		return "", &UpstreamError{Op: op, Err: err}
	}
	return raw, nil
}

// GenerateQuiz asks the model for a multiple-choice quiz and validates every
// question before returning it. The result is not persisted.
func (g *Generator) GenerateQuiz(ctx context.Context, userID uuid.UUID, req models.GenerateQuizRequest) (*models.GeneratedQuiz, error) {
	if len([]rune(req.Content)) < MinContentLength {
		return nil, &ValidationError{
			Message: "Content is too short",
			Fields:  map[string]string{"content": fmt.Sprintf("Content must be at least %d characters", MinContentLength)},
		}
	}

	n := clampCount(req.NumberOfQuestions, DefaultQuestionCount, MaxQuestionCount)
	difficulty := req.Difficulty
	if difficulty == "" {
		difficulty = "medium"
	}
	if _, ok := difficultyPrompt[difficulty]; !ok {
		return nil, &ValidationError{
			Message: "Invalid difficulty",
			Fields:  map[string]string{"difficulty": "Must be one of easy, medium, hard"},
		}
	}

	raw, err := g.complete(ctx, "generate quiz", "You are an expert quiz creator.", buildQuizPrompt(req.Content, n, difficulty))
	if err != nil {
		return nil, err
	}

	title, questions, err := parseQuiz(raw)
	if err != nil {
		log.Printf("generate quiz: rejected model response: %v\n%s", err, raw)
		return nil, &UpstreamError{Op: "generate quiz", Err: err}
	}

	return &models.GeneratedQuiz{
		ID:          uuid.New(),
		Title:       title,
		Questions:   questions,
		Difficulty:  difficulty,
		Topic:       title,
		Description: fmt.Sprintf("A %s difficulty quiz with %d questions", difficulty, len(questions)),
		CreatedAt:   g.now().UTC(),
		UserID:      userID,
	}, nil
}

// GeneratePresentation asks the model for a slide outline. Slides with no
// format inherit the requested one.
func (g *Generator) GeneratePresentation(ctx context.Context, userID uuid.UUID, req models.GeneratePresentationRequest) (*models.GeneratedPresentationData, error) {
	if len([]rune(req.Content)) < MinContentLength {
		return nil, &ValidationError{
			Message: "Content is too short",
			Fields:  map[string]string{"content": fmt.Sprintf("Content must be at least %d characters", MinContentLength)},
		}
	}

	n := clampCount(req.NumberOfSlides, DefaultSlideCount, MaxSlideCount)
	style := req.Style
	if style == "" {
		style = "professional"
	}
	if _, ok := stylePrompt[style]; !ok {
		return nil, &ValidationError{
			Message: "Invalid style",
			Fields:  map[string]string{"style": "Must be one of professional, academic, casual"},
		}
	}
	format := req.Format
	if format == "" {
		format = models.SlideFormatBulletpoint
	}
	if !format.Valid() {
		return nil, &ValidationError{
			Message: "Invalid format",
			Fields:  map[string]string{"format": "Must be one of concise, detailed, bulletpoint"},
		}
	}

	raw, err := g.complete(ctx, "generate presentation", "You are an expert presentation designer.",
		buildPresentationPrompt(req.Content, n, style, format))
	if err != nil {
		return nil, err
	}

	p, err := parsePresentation(raw, format)
	if err != nil {
		log.Printf("generate presentation: rejected model response: %v\n%s", err, raw)
		return nil, &UpstreamError{Op: "generate presentation", Err: err}
	}
	p.ID = uuid.New()
	p.CreatedAt = g.now().UTC()
	p.UserID = userID
	return p, nil
}

func clampCount(n, def, max int) int {
	switch {
	case n <= 0:
		return def
	case n > max:
		return max
	}
	return n
}

// stripCodeFences removes markdown fences and anything around the outermost
// JSON object.
func stripCodeFences(raw string) string {
	s := strings.TrimSpace(raw)
	s = strings.ReplaceAll(s, "```json", "")
	s = strings.ReplaceAll(s, "```", "")
	s = strings.TrimSpace(s)

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start >= 0 && end > start {
		s = s[start : end+1]
	}
	return s
}

type rawQuestion struct {
	Question      string   `json:"question"`
	Options       []string `json:"options"`
	CorrectAnswer *int     `json:"correctAnswer"`
	Explanation   string   `json:"explanation"`
}

func parseQuiz(raw string) (string, []models.Question, error) {
	var out struct {
		Title     string        `json:"title"`
		Questions []rawQuestion `json:"questions"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &out); err != nil {
		return "", nil, fmt.Errorf("invalid quiz JSON: %w", err)
	}

	title := strings.TrimSpace(out.Title)
	if title == "" {
		return "", nil, fmt.Errorf("quiz has no title")
	}
	if len(out.Questions) == 0 {
		return "", nil, fmt.Errorf("quiz has no questions")
	}

	questions := make([]models.Question, len(out.Questions))
	for i, q := range out.Questions {
		if strings.TrimSpace(q.Question) == "" {
			return "", nil, fmt.Errorf("question %d has no text", i)
		}
		if len(q.Options) != models.OptionsPerQuestion {
			return "", nil, fmt.Errorf("question %d has %d options, want %d", i, len(q.Options), models.OptionsPerQuestion)
		}
		for j, opt := range q.Options {
			if strings.TrimSpace(opt) == "" {
				return "", nil, fmt.Errorf("question %d option %d is empty", i, j)
			}
		}
		if q.CorrectAnswer == nil {
			return "", nil, fmt.Errorf("question %d has no correctAnswer", i)
		}
		if *q.CorrectAnswer < 0 || *q.CorrectAnswer >= len(q.Options) {
			return "", nil, fmt.Errorf("question %d correctAnswer %d out of range", i, *q.CorrectAnswer)
		}
		questions[i] = models.Question{
			Question:      strings.TrimSpace(q.Question),
			Options:       q.Options,
			CorrectAnswer: *q.CorrectAnswer,
			Explanation:   strings.TrimSpace(q.Explanation),
		}
	}
	return title, questions, nil
}

func parsePresentation(raw string, format models.SlideFormat) (*models.GeneratedPresentationData, error) {
	var out struct {
		Title             string         `json:"title"`
		Subtitle          string         `json:"subtitle"`
		Slides            []models.Slide `json:"slides"`
		EstimatedDuration string         `json:"estimatedDuration"`
	}
	if err := json.Unmarshal([]byte(stripCodeFences(raw)), &out); err != nil {
		return nil, fmt.Errorf("invalid presentation JSON: %w", err)
	}

	if strings.TrimSpace(out.Title) == "" {
		return nil, fmt.Errorf("presentation has no title")
	}
	if len(out.Slides) == 0 {
		return nil, fmt.Errorf("presentation has no slides")
	}
	for i := range out.Slides {
		s := &out.Slides[i]
		if strings.TrimSpace(s.Title) == "" {
			return nil, fmt.Errorf("slide %d has no title", i)
		}
		if strings.TrimSpace(s.Content) == "" {
			return nil, fmt.Errorf("slide %d has no content", i)
		}
		if s.Format == "" {
			s.Format = format
		}
		if !s.Format.Valid() {
			return nil, fmt.Errorf("slide %d has unknown format %q", i, s.Format)
		}
	}

	duration := strings.TrimSpace(out.EstimatedDuration)
	if duration == "" {
		duration = fmt.Sprintf("%d minutes", len(out.Slides)*2)
	}

	return &models.GeneratedPresentationData{
		Title:             strings.TrimSpace(out.Title),
		Subtitle:          strings.TrimSpace(out.Subtitle),
		Slides:            out.Slides,
		EstimatedDuration: duration,
	}, nil
}

func buildQuizPrompt(content string, n int, difficulty string) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Based on the following content, generate a quiz with exactly %d multiple-choice questions.\n\n", n))
	b.WriteString("Content:\n")
	b.WriteString(content)
	b.WriteString("\n\nRequirements:\n")
	b.WriteString(fmt.Sprintf("1. Create %s\n", difficultyPrompt[difficulty]))
	b.WriteString("2. Each question should have exactly 4 options (A, B, C, D)\n")
	b.WriteString("3. Only one option should be correct\n")
	b.WriteString("4. Provide a brief explanation for the correct answer\n")
	b.WriteString("5. Questions should cover different aspects of the content\n")
	b.WriteString("6. Make sure questions are clear and unambiguous\n")

	b.WriteString(`
Respond in the following JSON format only (no markdown, no code blocks):
{
  "title": "Quiz title based on the content",
  "questions": [
    {
      "question": "The question text",
      "options": ["Option A", "Option B", "Option C", "Option D"],
      "correctAnswer": 0,
      "explanation": "Brief explanation of why this is correct"
    }
  ]
}

Important: correctAnswer should be the index (0-3) of the correct option.`)

	return b.String()
}

func buildPresentationPrompt(content string, n int, style string, format models.SlideFormat) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("Based on the following content, create a presentation with approximately %d slides.\n\n", n))
	b.WriteString("Content:\n")
	b.WriteString(content)
	b.WriteString("\n\nRequirements:\n")
	b.WriteString(fmt.Sprintf("1. Use %s\n", stylePrompt[style]))
	b.WriteString("2. Create a logical flow from introduction to conclusion\n")
	b.WriteString("3. Each slide should have a clear, concise title (one-liner)\n")
	b.WriteString(fmt.Sprintf("4. Each slide content should be: %s\n", formatInstruction[format]))
	b.WriteString("5. Ensure the presentation tells a cohesive story\n")
	b.WriteString("6. Keep titles short to fit on one line\n")

	b.WriteString(fmt.Sprintf(`
Respond in the following JSON format only (no markdown, no code blocks):
{
  "title": "Main presentation title",
  "subtitle": "Optional subtitle or tagline",
  "slides": [
    {
      "title": "Slide title",
      "content": "Slide content based on format",
      "format": "%s"
    }
  ],
  "estimatedDuration": "X minutes"
}`, format))

	return b.String()
}
