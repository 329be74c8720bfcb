// Package player drives a single quiz playthrough: navigation, answer
// recording, an optional server-anchored countdown and one-shot scoring.
package player

import (
	"context"
	"math"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"

	"freshr-backend/internal/models"
)

const DefaultRequestTimeout = 20 * time.Second

type State int

const (
	StateInitializing State = iota
	StateInProgress
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateInitializing:
		return "initializing"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

// Backend persists quizzes and attempts and creates timed sessions.
type Backend interface {
	SaveQuiz(ctx context.Context, req models.SaveQuizRequest) (uuid.UUID, error)
	CreateSession(ctx context.Context, quizID uuid.UUID, allocatedSeconds int) (*models.SessionCreated, error)
	SubmitAttempt(ctx context.Context, req models.SubmitAttemptRequest) (*models.SubmitAttemptResponse, error)
}

type Options struct {
	// TimeLimit enables the countdown. Zero plays untimed.
	TimeLimit time.Duration
	// RequestTimeout bounds every backend call. Defaults to DefaultRequestTimeout.
	RequestTimeout time.Duration
	Clock          Clock
	// OnTick receives the remaining seconds once per tick. It runs on the
	// countdown goroutine and must not call Close.
	OnTick func(remaining int)
	// OnAutoSubmit receives the result of the timer-triggered submission
	// after the countdown goroutine has finished, so it may call Close.
	OnAutoSubmit func(*Result)
}

type Result struct {
	Answers          []models.AttemptAnswer
	Correct          int
	Total            int
	Percentage       int
	TimeTakenSeconds int
	Auto             bool

	QuizID           uuid.UUID
	AttemptID        uuid.UUID
	IsLateSubmission bool
	// SaveErr is set when the quiz or attempt could not be persisted.
	SaveErr error
}

type Player struct {
	backend Backend
	opts    Options
	clock   Clock

	mu      sync.Mutex
	quiz    models.Quiz
	state   State
	current int
	answers map[int]int
	// unanswered is frozen at submission, when answers is dropped.
	unanswered int
	session    *models.SessionCreated
	deadline   time.Time
	startedAt  time.Time
	result     *Result

	submitted atomic.Bool
	stop      chan struct{}
	stopOnce  sync.Once
	ticking   sync.WaitGroup
}

// New prepares a playthrough of quiz. A quiz with a nil ID has not been
// saved yet and is persisted on Start (timed) or on submission.
func New(quiz models.Quiz, backend Backend, opts Options) *Player {
	if opts.RequestTimeout <= 0 {
		opts.RequestTimeout = DefaultRequestTimeout
	}
	clock := opts.Clock
	if clock == nil {
		clock = systemClock{}
	}

	p := &Player{
		backend: backend,
		opts:    opts,
		clock:   clock,
		quiz:    quiz,
		answers: make(map[int]int),
		stop:    make(chan struct{}),
	}
	if opts.TimeLimit > 0 {
		p.state = StateInitializing
	} else {
		p.state = StateInProgress
		p.startedAt = clock.Now()
	}
	return p
}

// Start moves a timed player into play. The quiz is saved first when it has
// no id, then the session is created against that id. Any failure degrades
// the player to untimed and is returned as *SessionInitError.
func (p *Player) Start(ctx context.Context) error {
	p.mu.Lock()
	if p.state != StateInitializing {
		p.mu.Unlock()
		return nil
	}
	quizID := p.quiz.ID
	p.mu.Unlock()

	if quizID == uuid.Nil {
		id, err := p.saveQuiz(ctx)
		if err != nil {
			p.beginUntimed()
			return &SessionInitError{Step: "save quiz", Err: err}
		}
		quizID = id
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	created, err := p.backend.CreateSession(callCtx, quizID, int(p.opts.TimeLimit/time.Second))
	cancel()
	if err != nil {
		p.beginUntimed()
		return &SessionInitError{Step: "create session", Err: err}
	}

	p.mu.Lock()
	now := p.clock.Now()
	p.session = created
	// The server's allocation measured from the moment its answer arrived.
	p.deadline = now.Add(created.ExpiresAt.Sub(created.StartedAt))
	p.startedAt = now
	p.state = StateInProgress
	ticker := p.clock.NewTicker(time.Second)
	p.mu.Unlock()

	p.ticking.Add(1)
	go func() {
		res := p.countdown(ticker)
		p.ticking.Done()
		if res != nil && p.opts.OnAutoSubmit != nil {
			p.opts.OnAutoSubmit(res)
		}
	}()
	return nil
}

func (p *Player) beginUntimed() {
	p.mu.Lock()
	p.state = StateInProgress
	p.startedAt = p.clock.Now()
	p.mu.Unlock()
}

// countdown ticks until the deadline and returns the automatic result, or
// nil when the player was stopped or submitted first.
func (p *Player) countdown(ticker Ticker) *Result {
	defer ticker.Stop()

	for {
		remaining := p.Remaining()
		if p.opts.OnTick != nil {
			p.opts.OnTick(remaining)
		}
		if remaining == 0 {
			res, err := p.submit(context.Background(), true)
			if err != nil {
				return nil
			}
			return res
		}

		select {
		case <-ticker.C():
		case <-p.stop:
			return nil
		}
	}
}

// Remaining is the countdown in whole seconds, or -1 when untimed.
func (p *Player) Remaining() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.session == nil {
		return -1
	}
	d := p.deadline.Sub(p.clock.Now())
	if d <= 0 {
		return 0
	}
	return int(d / time.Second)
}

// Select records option for the current question, replacing any earlier choice.
func (p *Player) Select(option int) error {
	p.mu.Lock()
	q := p.current
	p.mu.Unlock()
	return p.Answer(q, option)
}

func (p *Player) Answer(question, option int) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.state != StateInProgress {
		return ErrNotInProgress
	}
	if question < 0 || question >= len(p.quiz.Questions) {
		return ErrInvalidQuestion
	}
	if option < 0 || option >= len(p.quiz.Questions[question].Options) {
		return ErrInvalidOption
	}
	p.answers[question] = option
	return nil
}

func (p *Player) Next() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current+1 >= len(p.quiz.Questions) {
		return false
	}
	p.current++
	return true
}

func (p *Player) Prev() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == 0 {
		return false
	}
	p.current--
	return true
}

func (p *Player) Jump(index int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.quiz.Questions) {
		return ErrInvalidQuestion
	}
	p.current = index
	return nil
}

func (p *Player) Current() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.current
}

func (p *Player) Question(index int) (models.Question, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	if index < 0 || index >= len(p.quiz.Questions) {
		return models.Question{}, false
	}
	return p.quiz.Questions[index], true
}

// Selected returns the recorded option for question, if any.
func (p *Player) Selected(question int) (int, bool) {
	p.mu.Lock()
	defer p.mu.Unlock()
	opt, ok := p.answers[question]
	return opt, ok
}

func (p *Player) Unanswered() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.state == StateComplete {
		return p.unanswered
	}
	return len(p.quiz.Questions) - len(p.answers)
}

func (p *Player) Total() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.quiz.Questions)
}

func (p *Player) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.state
}

func (p *Player) Session() *models.SessionCreated {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.session
}

func (p *Player) QuizID() uuid.UUID {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.quiz.ID
}

func (p *Player) Result() *Result {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.result
}

// Submit ends the playthrough on the caller's request. With unanswered
// questions and confirm false it returns *ConfirmationRequiredError and
// changes nothing.
func (p *Player) Submit(ctx context.Context, confirm bool) (*Result, error) {
	if p.submitted.Load() {
		return nil, ErrAlreadySubmitted
	}

	p.mu.Lock()
	if p.state != StateInProgress {
		p.mu.Unlock()
		return nil, ErrNotInProgress
	}
	unanswered := len(p.quiz.Questions) - len(p.answers)
	p.mu.Unlock()

	if unanswered > 0 && !confirm {
		return nil, &ConfirmationRequiredError{Unanswered: unanswered}
	}
	return p.submit(ctx, false)
}

// Close stops the countdown without submitting.
func (p *Player) Close() {
	p.stopOnce.Do(func() { close(p.stop) })
	p.ticking.Wait()
}

func (p *Player) submit(ctx context.Context, auto bool) (*Result, error) {
	if !p.submitted.CompareAndSwap(false, true) {
		return nil, ErrAlreadySubmitted
	}
	p.stopOnce.Do(func() { close(p.stop) })

	p.mu.Lock()
	res := p.score(auto)
	p.unanswered = len(p.quiz.Questions) - len(p.answers)
	p.state = StateComplete
	p.answers = nil
	session := p.session
	quiz := p.quiz
	p.mu.Unlock()

	p.persist(ctx, quiz, session, res)

	p.mu.Lock()
	p.result = res
	p.mu.Unlock()
	return res, nil
}

// score must be called with p.mu held.
func (p *Player) score(auto bool) *Result {
	total := len(p.quiz.Questions)
	res := &Result{
		Answers: make([]models.AttemptAnswer, total),
		Total:   total,
		Auto:    auto,
	}
	for i, q := range p.quiz.Questions {
		selected, ok := p.answers[i]
		if !ok {
			selected = models.UnansweredIndex
		}
		correct := q.IsCorrect(selected)
		if correct {
			res.Correct++
		}
		res.Answers[i] = models.AttemptAnswer{QuestionIndex: i, SelectedAnswer: selected, IsCorrect: correct}
	}
	if total > 0 {
		res.Percentage = int(math.Round(100 * float64(res.Correct) / float64(total)))
	}
	res.TimeTakenSeconds = int(p.clock.Now().Sub(p.startedAt) / time.Second)
	return res
}

// persist saves the quiz when needed, then the attempt. A failed quiz save
// skips the attempt. Failures land in res.SaveErr.
func (p *Player) persist(ctx context.Context, quiz models.Quiz, session *models.SessionCreated, res *Result) {
	quizID := quiz.ID
	if quizID == uuid.Nil {
		id, err := p.saveQuiz(ctx)
		if err != nil {
			res.SaveErr = &SaveError{Step: "quiz", Err: err}
			return
		}
		quizID = id
	}
	res.QuizID = quizID

	score := res.Correct
	percentage := res.Percentage
	timeTaken := res.TimeTakenSeconds
	req := models.SubmitAttemptRequest{
		QuizID:           &quizID,
		Score:            &score,
		TotalQuestions:   res.Total,
		Percentage:       &percentage,
		Answers:          res.Answers,
		TimeTakenSeconds: &timeTaken,
	}
	if session != nil {
		sessionID := session.SessionID
		req.SessionID = &sessionID
	}

	callCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	defer cancel()
	resp, err := p.backend.SubmitAttempt(callCtx, req)
	if err != nil {
		res.SaveErr = &SaveError{Step: "attempt", Err: err}
		return
	}
	res.IsLateSubmission = resp.IsLateSubmission
	if resp.Attempt != nil {
		res.AttemptID = resp.Attempt.ID
	}
}

func (p *Player) saveQuiz(ctx context.Context) (uuid.UUID, error) {
	p.mu.Lock()
	req := models.SaveQuizRequest{
		Title:       p.quiz.Title,
		Questions:   p.quiz.Questions,
		Difficulty:  p.quiz.Difficulty,
		Description: p.quiz.Description,
		Topic:       p.quiz.Topic,
	}
	p.mu.Unlock()

	callCtx, cancel := context.WithTimeout(ctx, p.opts.RequestTimeout)
	defer cancel()
	id, err := p.backend.SaveQuiz(callCtx, req)
	if err != nil {
		return uuid.Nil, err
	}

	p.mu.Lock()
	p.quiz.ID = id
	p.mu.Unlock()
	return id, nil
}
