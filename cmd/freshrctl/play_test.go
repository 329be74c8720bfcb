package main

import (
	"bytes"
	"context"
	"io"
	"strings"
	"sync"
	"testing"

	"github.com/google/uuid"

	"freshr-backend/internal/models"
	"freshr-backend/internal/player"
)

type recordingBackend struct {
	mu       sync.Mutex
	attempts []models.SubmitAttemptRequest
}

func (b *recordingBackend) SaveQuiz(ctx context.Context, req models.SaveQuizRequest) (uuid.UUID, error) {
	return uuid.New(), nil
}

func (b *recordingBackend) CreateSession(ctx context.Context, quizID uuid.UUID, allocatedSeconds int) (*models.SessionCreated, error) {
	return nil, context.DeadlineExceeded
}

func (b *recordingBackend) SubmitAttempt(ctx context.Context, req models.SubmitAttemptRequest) (*models.SubmitAttemptResponse, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.attempts = append(b.attempts, req)
	return &models.SubmitAttemptResponse{Success: true, Attempt: &models.QuizAttempt{ID: uuid.New()}}, nil
}

func testQuiz() models.Quiz {
	return models.Quiz{
		ID:    uuid.New(),
		Title: "Cells",
		Questions: []models.Question{
			{Question: "Powerhouse?", Options: []string{"Nucleus", "Mitochondria", "Ribosome", "Wall"}, CorrectAnswer: 1},
			{Question: "Genetic material?", Options: []string{"DNA", "ATP", "Lipid", "Water"}, CorrectAnswer: 0},
		},
	}
}

func TestTerminalAnswersAndSubmits(t *testing.T) {
	backend := &recordingBackend{}
	p := player.New(testQuiz(), backend, player.Options{})
	var out bytes.Buffer
	term := &terminal{p: p, out: &out}

	res, err := term.run(context.Background(), strings.NewReader("2\n3\ns\n"), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res == nil {
		t.Fatalf("expected a result, output:\n%s", out.String())
	}
	if res.Correct != 1 || res.Total != 2 || res.Percentage != 50 {
		t.Errorf("unexpected result %+v", res)
	}
	if len(backend.attempts) != 1 {
		t.Fatalf("expected 1 submitted attempt, got %d", len(backend.attempts))
	}
	if !strings.Contains(out.String(), "Score: 1/2 (50%)") {
		t.Errorf("missing score line in:\n%s", out.String())
	}
}

func TestTerminalAsksBeforeSubmittingUnanswered(t *testing.T) {
	backend := &recordingBackend{}
	p := player.New(testQuiz(), backend, player.Options{})
	var out bytes.Buffer
	term := &terminal{p: p, out: &out}

	res, err := term.run(context.Background(), strings.NewReader("s\nn\ns\ny\n"), nil)
	if err != nil {
		t.Fatalf("run: %v", err)
	}
	if res == nil || res.Correct != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
	if got := strings.Count(out.String(), "2 question(s) unanswered"); got != 2 {
		t.Errorf("expected two confirmation prompts, got %d", got)
	}
	if !strings.Contains(out.String(), "Submission cancelled.") {
		t.Error("expected the first confirmation to be cancelled")
	}
}

func TestTerminalQuit(t *testing.T) {
	backend := &recordingBackend{}
	p := player.New(testQuiz(), backend, player.Options{})
	defer p.Close()
	term := &terminal{p: p, out: &bytes.Buffer{}}

	res, err := term.run(context.Background(), strings.NewReader("g 2\nq\n"), nil)
	if err != nil || res != nil {
		t.Fatalf("run = %+v, %v", res, err)
	}
	if p.Current() != 1 {
		t.Errorf("expected jump to question 2, at %d", p.Current()+1)
	}
	if len(backend.attempts) != 0 {
		t.Error("quit must not submit")
	}
}

func TestTerminalAutoSubmit(t *testing.T) {
	p := player.New(testQuiz(), &recordingBackend{}, player.Options{})
	var out bytes.Buffer
	term := &terminal{p: p, out: &out}

	auto := make(chan *player.Result, 1)
	auto <- &player.Result{Total: 2, Auto: true, Answers: make([]models.AttemptAnswer, 2)}

	// Input never ends, so only the timer can finish the run.
	r, w := io.Pipe()
	defer w.Close()

	res, err := term.run(context.Background(), r, auto)
	if err != nil || res == nil || !res.Auto {
		t.Fatalf("run = %+v, %v", res, err)
	}
	if !strings.Contains(out.String(), "Time's up!") {
		t.Errorf("missing timeout notice in:\n%s", out.String())
	}
}

func TestFormatClock(t *testing.T) {
	tests := map[int]string{0: "0:00", 59: "0:59", 61: "1:01", 600: "10:00"}
	for in, want := range tests {
		if got := formatClock(in); got != want {
			t.Errorf("formatClock(%d) = %q, want %q", in, got, want)
		}
	}
}

func TestQuizFromGenerated(t *testing.T) {
	q := quizFromGenerated(&models.GeneratedQuiz{ID: uuid.New(), Title: "T", Topic: "Bio"})
	if q.ID != uuid.Nil {
		t.Error("generated quizzes must start unsaved")
	}
	if q.Topic == nil || *q.Topic != "Bio" || q.Description != nil {
		t.Errorf("unexpected optional fields %+v", q)
	}
}
