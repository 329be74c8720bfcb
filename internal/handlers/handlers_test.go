package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"freshr-backend/internal/middleware"
	"freshr-backend/internal/models"
	"freshr-backend/internal/services"
	"freshr-backend/internal/session"
)

// ──── Stubs ────

type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.now = c.now.Add(d)
	c.mu.Unlock()
}

type stubQuizRepo struct {
	quizzes map[uuid.UUID]*models.Quiz
	created []*models.Quiz
	deleted []uuid.UUID
	err     error
}

func newStubQuizRepo(quizzes ...*models.Quiz) *stubQuizRepo {
	repo := &stubQuizRepo{quizzes: map[uuid.UUID]*models.Quiz{}}
	for _, q := range quizzes {
		repo.quizzes[q.ID] = q
	}
	return repo
}

func (s *stubQuizRepo) Create(ctx context.Context, q *models.Quiz) error {
	if s.err != nil {
		return s.err
	}
	q.ID = uuid.New()
	q.QuestionCount = len(q.Questions)
	s.quizzes[q.ID] = q
	s.created = append(s.created, q)
	return nil
}

func (s *stubQuizRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Quiz, error) {
	q, ok := s.quizzes[id]
	if !ok {
		return nil, pgx.ErrNoRows
	}
	return q, nil
}

func (s *stubQuizRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]*models.Quiz, error) {
	out := []*models.Quiz{}
	for _, q := range s.quizzes {
		if q.UserID == userID {
			out = append(out, q)
		}
	}
	return out, nil
}

func (s *stubQuizRepo) CountByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	list, _ := s.ListByUser(ctx, userID, 0, 0)
	return len(list), nil
}

func (s *stubQuizRepo) Delete(ctx context.Context, id, userID uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	return nil
}

type stubSessionStore struct {
	mu       sync.Mutex
	sessions map[uuid.UUID]*models.QuizSession
}

func (s *stubSessionStore) Create(ctx context.Context, sess *models.QuizSession) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sessions == nil {
		s.sessions = map[uuid.UUID]*models.QuizSession{}
	}
	sess.ID = uuid.New()
	cp := *sess
	s.sessions[sess.ID] = &cp
	return nil
}

func (s *stubSessionStore) GetOwned(ctx context.Context, id, userID uuid.UUID) (*models.QuizSession, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.UserID != userID {
		return nil, pgx.ErrNoRows
	}
	cp := *sess
	return &cp, nil
}

func (s *stubSessionStore) MarkCompleted(ctx context.Context, id uuid.UUID, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	if !ok || sess.IsCompleted {
		return false, nil
	}
	sess.IsCompleted = true
	sess.CompletedAt = &at
	return true, nil
}

type stubAttemptRepo struct {
	mu       sync.Mutex
	attempts []*models.QuizAttempt
	err      error
}

func (s *stubAttemptRepo) Create(ctx context.Context, a *models.QuizAttempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.err != nil {
		return s.err
	}
	for _, existing := range s.attempts {
		if a.SessionID != nil && existing.SessionID != nil && *existing.SessionID == *a.SessionID {
			return &pgconn.PgError{Code: "23505"}
		}
	}
	a.ID = uuid.New()
	s.attempts = append(s.attempts, a)
	return nil
}

func (s *stubAttemptRepo) ListByUser(ctx context.Context, userID uuid.UUID, quizID *uuid.UUID, limit, offset int) ([]*models.QuizAttempt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := []*models.QuizAttempt{}
	for _, a := range s.attempts {
		if a.UserID == userID && (quizID == nil || a.QuizID == *quizID) {
			out = append(out, a)
		}
	}
	return out, nil
}

type memLock struct {
	mu   sync.Mutex
	held map[uuid.UUID]bool
	err  error
}

func (l *memLock) Acquire(ctx context.Context, sessionID uuid.UUID) (bool, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.err != nil {
		return false, l.err
	}
	if l.held == nil {
		l.held = map[uuid.UUID]bool{}
	}
	if l.held[sessionID] {
		return false, nil
	}
	l.held[sessionID] = true
	return true, nil
}

func (l *memLock) Release(ctx context.Context, sessionID uuid.UUID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.held, sessionID)
}

type stubFavoriteRepo struct {
	favorites map[uuid.UUID]bool
}

func (s *stubFavoriteRepo) Add(ctx context.Context, f *models.FavoriteQuiz) error {
	if s.favorites == nil {
		s.favorites = map[uuid.UUID]bool{}
	}
	if s.favorites[f.QuizID] {
		return &pgconn.PgError{Code: "23505"}
	}
	s.favorites[f.QuizID] = true
	f.ID = uuid.New()
	return nil
}

func (s *stubFavoriteRepo) ListByUser(ctx context.Context, userID uuid.UUID) ([]*models.FavoriteQuiz, error) {
	return []*models.FavoriteQuiz{}, nil
}

func (s *stubFavoriteRepo) Remove(ctx context.Context, userID, quizID uuid.UUID) error {
	delete(s.favorites, quizID)
	return nil
}

type stubProfileRepo struct {
	profile *models.UserProfile
	saved   *models.UserProfile
}

func (s *stubProfileRepo) Get(ctx context.Context, userID uuid.UUID) (*models.UserProfile, error) {
	if s.profile == nil {
		return nil, pgx.ErrNoRows
	}
	return s.profile, nil
}

func (s *stubProfileRepo) Upsert(ctx context.Context, p *models.UserProfile) error {
	now := time.Now()
	p.UpdatedAt = &now
	s.saved = p
	return nil
}

type stubQuizGenerator struct {
	calls int
	req   models.GenerateQuizRequest
	err   error
}

func (s *stubQuizGenerator) GenerateQuiz(ctx context.Context, userID uuid.UUID, req models.GenerateQuizRequest) (*models.GeneratedQuiz, error) {
	s.calls++
	s.req = req
	if s.err != nil {
		return nil, s.err
	}
	return &models.GeneratedQuiz{ID: uuid.New(), Title: "Cells", Difficulty: "medium", UserID: userID}, nil
}

// ──── Helpers ────

func authedRequest(method, target string, body interface{}, userID uuid.UUID) *http.Request {
	var buf bytes.Buffer
	if body != nil {
		json.NewEncoder(&buf).Encode(body)
	}
	req := httptest.NewRequest(method, target, &buf)
	req.Header.Set("Content-Type", "application/json")
	ctx := context.WithValue(req.Context(), middleware.UserIDKey, userID)
	ctx = context.WithValue(ctx, middleware.EmailKey, "ada@example.com")
	return req.WithContext(ctx)
}

func decodeError(t *testing.T, rr *httptest.ResponseRecorder) models.APIError {
	t.Helper()
	var resp models.ErrorResponse
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	return resp.Error
}

func intPtr(n int) *int { return &n }

type timedFixture struct {
	clock    *fakeClock
	store    *stubSessionStore
	quizRepo *stubQuizRepo
	attempts *stubAttemptRepo
	lock     *memLock
	engine   *session.Engine
	userID   uuid.UUID
	quiz     *models.Quiz
}

func newTimedFixture() *timedFixture {
	userID := uuid.New()
	quiz := &models.Quiz{ID: uuid.New(), UserID: userID, Title: "Cells"}
	f := &timedFixture{
		clock:    &fakeClock{now: time.Date(2024, 5, 1, 9, 0, 0, 0, time.UTC)},
		store:    &stubSessionStore{},
		quizRepo: newStubQuizRepo(quiz),
		attempts: &stubAttemptRepo{},
		lock:     &memLock{},
		userID:   userID,
		quiz:     quiz,
	}
	f.engine = session.NewEngine(f.store, nil, f.clock)
	return f
}

func (f *timedFixture) startSession(t *testing.T, allocated int) uuid.UUID {
	t.Helper()
	created, err := f.engine.Create(context.Background(), f.userID, &f.quiz.ID, allocated)
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	return created.SessionID
}

func (f *timedFixture) attemptHandler() *AttemptHandler {
	return NewAttemptHandler(f.attempts, f.quizRepo, f.engine, f.lock)
}

func (f *timedFixture) submitBody(sessionID *uuid.UUID) models.SubmitAttemptRequest {
	return models.SubmitAttemptRequest{
		QuizID:         &f.quiz.ID,
		Score:          intPtr(1),
		TotalQuestions: 2,
		Percentage:     intPtr(50),
		Answers: []models.AttemptAnswer{
			{QuestionIndex: 0, SelectedAnswer: 1, IsCorrect: true},
			{QuestionIndex: 1, SelectedAnswer: -1},
		},
		SessionID: sessionID,
	}
}

// ──── Tests ────

func TestHandleServiceError(t *testing.T) {
	tests := []struct {
		name     string
		err      error
		wantCode int
		wantErr  string
	}{
		{"validation", &services.ValidationError{Message: "bad"}, http.StatusBadRequest, "VALIDATION_ERROR"},
		{"conflict", &services.ConflictError{Message: "dup"}, http.StatusConflict, "CONFLICT"},
		{"not found", &services.NotFoundError{Message: "gone"}, http.StatusNotFound, "NOT_FOUND"},
		{"unauthorized", &services.UnauthorizedError{Message: "no"}, http.StatusUnauthorized, "UNAUTHORIZED"},
		{"rate limit", &services.RateLimitError{Message: "slow"}, http.StatusTooManyRequests, "RATE_LIMITED"},
		{"upstream", &services.UpstreamError{Op: "generate quiz", Err: errors.New("raw model payload")}, http.StatusBadGateway, "UPSTREAM_ERROR"},
		{"persistence", &services.PersistenceError{Op: "save", Err: errors.New("pg down")}, http.StatusInternalServerError, "INTERNAL_ERROR"},
		{"wrapped validation", errors.Join(errors.New("ctx"), &services.ValidationError{Message: "bad"}), http.StatusBadRequest, "VALIDATION_ERROR"},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, "INTERNAL_ERROR"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set(middleware.RequestIDHeader, "req-1")
			rr := httptest.NewRecorder()
			handleServiceError(rr, req, tt.err)

			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d", tt.wantCode, rr.Code)
			}
			apiErr := decodeError(t, rr)
			if apiErr.Code != tt.wantErr {
				t.Errorf("expected code %s, got %s", tt.wantErr, apiErr.Code)
			}
			if apiErr.RequestID != "req-1" {
				t.Errorf("expected request id to be echoed, got %q", apiErr.RequestID)
			}
			if strings.Contains(apiErr.Message, "raw model payload") || strings.Contains(apiErr.Message, "pg down") {
				t.Errorf("internal detail leaked: %q", apiErr.Message)
			}
		})
	}
}

func TestPagination(t *testing.T) {
	tests := []struct {
		query       string
		limit, offs int
	}{
		{"", defaultPageSize, 0},
		{"?limit=5&offset=10", 5, 10},
		{"?limit=abc&offset=-3", defaultPageSize, 0},
		{"?limit=1000", maxPageSize, 0},
	}
	for _, tt := range tests {
		limit, offset := pagination(httptest.NewRequest(http.MethodGet, "/x"+tt.query, nil))
		if limit != tt.limit || offset != tt.offs {
			t.Errorf("%q: got (%d, %d), want (%d, %d)", tt.query, limit, offset, tt.limit, tt.offs)
		}
	}
}

func TestSessionHandler_Create(t *testing.T) {
	f := newTimedFixture()
	other := &models.Quiz{ID: uuid.New(), UserID: uuid.New()}
	f.quizRepo.quizzes[other.ID] = other
	h := NewSessionHandler(f.engine, f.quizRepo)

	tests := []struct {
		name     string
		body     models.CreateSessionRequest
		wantCode int
	}{
		{"too short", models.CreateSessionRequest{QuizID: &f.quiz.ID, AllocatedTimeSeconds: 59}, http.StatusBadRequest},
		{"missing quiz", models.CreateSessionRequest{AllocatedTimeSeconds: 120}, http.StatusBadRequest},
		{"other user's quiz", models.CreateSessionRequest{QuizID: &other.ID, AllocatedTimeSeconds: 120}, http.StatusNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Create(rr, authedRequest(http.MethodPost, "/api/v1/quiz/sessions", tt.body, f.userID))
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
		})
	}
	if len(f.store.sessions) != 0 {
		t.Fatalf("rejected requests must not create sessions, found %d", len(f.store.sessions))
	}

	rr := httptest.NewRecorder()
	h.Create(rr, authedRequest(http.MethodPost, "/api/v1/quiz/sessions",
		models.CreateSessionRequest{QuizID: &f.quiz.ID, AllocatedTimeSeconds: 300}, f.userID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	var resp struct {
		Success bool `json:"success"`
		models.SessionCreated
	}
	if err := json.NewDecoder(rr.Body).Decode(&resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !resp.Success || resp.SessionID == uuid.Nil {
		t.Fatalf("unexpected response %+v", resp)
	}
	if !resp.StartedAt.Equal(f.clock.Now()) {
		t.Errorf("startedAt = %s, want server clock %s", resp.StartedAt, f.clock.Now())
	}
	if !resp.ExpiresAt.Equal(resp.StartedAt.Add(300 * time.Second)) {
		t.Errorf("expiresAt = %s, want startedAt+300s", resp.ExpiresAt)
	}
}

func TestSessionHandler_Get(t *testing.T) {
	f := newTimedFixture()
	h := NewSessionHandler(f.engine, f.quizRepo)
	sessionID := f.startSession(t, 60)

	f.clock.Advance(15*time.Second + 500*time.Millisecond)

	rr := httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/api/v1/quiz/sessions?sessionId="+sessionID.String(), nil, f.userID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	var status models.SessionStatus
	json.NewDecoder(rr.Body).Decode(&status)
	if status.TimeRemainingSeconds != 44 || status.IsExpired || status.IsCompleted {
		t.Errorf("unexpected status %+v", status)
	}

	rr = httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/api/v1/quiz/sessions?sessionId="+sessionID.String(), nil, uuid.New()))
	if rr.Code != http.StatusNotFound {
		t.Errorf("expected 404 for another user, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/api/v1/quiz/sessions", nil, f.userID))
	if rr.Code != http.StatusBadRequest {
		t.Errorf("expected 400 without sessionId, got %d", rr.Code)
	}
}

func TestAttemptHandler_SubmitValidation(t *testing.T) {
	f := newTimedFixture()
	h := f.attemptHandler()

	missingScore := f.submitBody(nil)
	missingScore.Score = nil
	noTotal := f.submitBody(nil)
	noTotal.TotalQuestions = 0
	unknownSession := f.submitBody(nil)
	bogus := uuid.New()
	unknownSession.SessionID = &bogus

	shortAnswers := f.submitBody(nil)
	shortAnswers.TotalQuestions = 5
	duplicateIndex := f.submitBody(nil)
	duplicateIndex.Answers[1].QuestionIndex = 0
	indexOutOfRange := f.submitBody(nil)
	indexOutOfRange.Answers[1].QuestionIndex = 2
	badOption := f.submitBody(nil)
	badOption.Answers[1].SelectedAnswer = 4
	unansweredCorrect := f.submitBody(nil)
	unansweredCorrect.Answers[1].IsCorrect = true

	// A second quiz the user owns, submitted against the first quiz's session.
	other := &models.Quiz{ID: uuid.New(), UserID: f.userID, Title: "Genetics"}
	f.quizRepo.quizzes[other.ID] = other
	sessionID := f.startSession(t, 60)
	otherQuiz := f.submitBody(&sessionID)
	otherQuiz.QuizID = &other.ID

	tests := []struct {
		name string
		body models.SubmitAttemptRequest
	}{
		{"missing score", missingScore},
		{"zero total", noTotal},
		{"unknown session", unknownSession},
		{"fewer answers than questions", shortAnswers},
		{"duplicate question index", duplicateIndex},
		{"question index out of range", indexOutOfRange},
		{"option out of range", badOption},
		{"unanswered marked correct", unansweredCorrect},
		{"session for another quiz", otherQuiz},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Submit(rr, authedRequest(http.MethodPost, "/api/v1/quiz/attempts", tt.body, f.userID))
			if rr.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d: %s", rr.Code, rr.Body.String())
			}
		})
	}
	if len(f.attempts.attempts) != 0 {
		t.Errorf("no attempt should be stored, got %d", len(f.attempts.attempts))
	}
	if sess := f.store.sessions[sessionID]; sess == nil || sess.IsCompleted {
		t.Error("session must stay open after a submission for another quiz")
	}
}

func TestAttemptHandler_SubmitLateness(t *testing.T) {
	tests := []struct {
		name     string
		after    time.Duration
		wantLate bool
	}{
		{"before deadline", 45 * time.Second, false},
		{"inside grace", 60*time.Second + 29*time.Second, false},
		{"after grace", 60*time.Second + 31*time.Second, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newTimedFixture()
			sessionID := f.startSession(t, 60)
			f.clock.Advance(tt.after)

			rr := httptest.NewRecorder()
			f.attemptHandler().Submit(rr, authedRequest(http.MethodPost, "/api/v1/quiz/attempts", f.submitBody(&sessionID), f.userID))
			if rr.Code != http.StatusCreated {
				t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
			}

			var resp models.SubmitAttemptResponse
			json.NewDecoder(rr.Body).Decode(&resp)
			if resp.IsLateSubmission != tt.wantLate || resp.Attempt.IsLateSubmission != tt.wantLate {
				t.Errorf("late = %v / %v, want %v", resp.IsLateSubmission, resp.Attempt.IsLateSubmission, tt.wantLate)
			}

			sess := f.store.sessions[sessionID]
			if !sess.IsCompleted || sess.CompletedAt == nil || !sess.CompletedAt.Equal(f.clock.Now()) {
				t.Errorf("session not completed at submission instant: %+v", sess)
			}
		})
	}
}

func TestAttemptHandler_DuplicateSubmission(t *testing.T) {
	f := newTimedFixture()
	sessionID := f.startSession(t, 60)
	h := f.attemptHandler()

	const racers = 8
	codes := make([]int, racers)
	var wg sync.WaitGroup
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			rr := httptest.NewRecorder()
			h.Submit(rr, authedRequest(http.MethodPost, "/api/v1/quiz/attempts", f.submitBody(&sessionID), f.userID))
			codes[i] = rr.Code
		}(i)
	}
	wg.Wait()

	created := 0
	for _, code := range codes {
		switch code {
		case http.StatusCreated:
			created++
		case http.StatusConflict:
		default:
			t.Errorf("unexpected status %d", code)
		}
	}
	if created != 1 || len(f.attempts.attempts) != 1 {
		t.Fatalf("expected exactly one attempt, got %d responses / %d rows", created, len(f.attempts.attempts))
	}
}

func TestAttemptHandler_UniqueIndexBacksLock(t *testing.T) {
	f := newTimedFixture()
	sessionID := f.startSession(t, 60)
	f.lock.err = errors.New("redis unavailable")
	h := f.attemptHandler()

	rr := httptest.NewRecorder()
	h.Submit(rr, authedRequest(http.MethodPost, "/api/v1/quiz/attempts", f.submitBody(&sessionID), f.userID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected first submission to succeed without redis, got %d", rr.Code)
	}

	// Reopen the session so only the unique index stands in the way.
	f.store.sessions[sessionID].IsCompleted = false

	rr = httptest.NewRecorder()
	h.Submit(rr, authedRequest(http.MethodPost, "/api/v1/quiz/attempts", f.submitBody(&sessionID), f.userID))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 from unique violation, got %d", rr.Code)
	}
}

func TestAttemptHandler_PersistenceFailureReleasesLock(t *testing.T) {
	f := newTimedFixture()
	sessionID := f.startSession(t, 60)
	f.attempts.err = errors.New("connection reset")
	h := f.attemptHandler()

	rr := httptest.NewRecorder()
	h.Submit(rr, authedRequest(http.MethodPost, "/api/v1/quiz/attempts", f.submitBody(&sessionID), f.userID))
	if rr.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rr.Code)
	}
	if f.store.sessions[sessionID].IsCompleted {
		t.Error("session must stay open when the attempt was not saved")
	}

	f.attempts.err = nil
	rr = httptest.NewRecorder()
	h.Submit(rr, authedRequest(http.MethodPost, "/api/v1/quiz/attempts", f.submitBody(&sessionID), f.userID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected retry to succeed, got %d", rr.Code)
	}
}

func TestAttemptHandler_UntimedAndList(t *testing.T) {
	f := newTimedFixture()
	h := f.attemptHandler()

	rr := httptest.NewRecorder()
	h.Submit(rr, authedRequest(http.MethodPost, "/api/v1/quiz/attempts", f.submitBody(nil), f.userID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}

	rr = httptest.NewRecorder()
	h.List(rr, authedRequest(http.MethodGet, "/api/v1/quiz/attempts?quizId="+f.quiz.ID.String(), nil, f.userID))
	var resp struct {
		Attempts []models.QuizAttempt `json:"attempts"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if len(resp.Attempts) != 1 || resp.Attempts[0].IsLateSubmission {
		t.Errorf("unexpected attempts %+v", resp.Attempts)
	}
}

func formRequest(target string, form url.Values, userID uuid.UUID) *http.Request {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	return req.WithContext(context.WithValue(req.Context(), middleware.UserIDKey, userID))
}

func TestQuizHandler_GenerateRejectsShortContent(t *testing.T) {
	gen := &stubQuizGenerator{}
	h := NewQuizHandler(gen, services.NewFileExtractService(), newStubQuizRepo(), &stubFavoriteRepo{})

	rr := httptest.NewRecorder()
	h.Generate(rr, formRequest("/api/v1/quiz/generate", url.Values{"text": {"too short"}, "numberOfQuestions": {"5"}}, uuid.New()))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rr.Code)
	}
	if gen.calls != 0 {
		t.Fatalf("generator must not be called for short content")
	}
}

func TestQuizHandler_GenerateFromText(t *testing.T) {
	gen := &stubQuizGenerator{}
	h := NewQuizHandler(gen, services.NewFileExtractService(), newStubQuizRepo(), &stubFavoriteRepo{})

	text := strings.Repeat("Mitochondria produce energy for the cell. ", 5)
	form := url.Values{"text": {text}, "numberOfQuestions": {"7"}, "difficulty": {"Hard"}}

	rr := httptest.NewRecorder()
	h.Generate(rr, formRequest("/api/v1/quiz/generate", form, uuid.New()))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rr.Code, rr.Body.String())
	}
	if gen.calls != 1 || gen.req.NumberOfQuestions != 7 || gen.req.Difficulty != "hard" {
		t.Errorf("unexpected generator request %+v", gen.req)
	}
	if gen.req.Content != strings.TrimSpace(text) {
		t.Errorf("content not passed through: %q", gen.req.Content)
	}
}

func TestQuizHandler_GenerateUpstreamFailure(t *testing.T) {
	gen := &stubQuizGenerator{err: &services.UpstreamError{Op: "generate quiz", Err: errors.New("bad json")}}
	h := NewQuizHandler(gen, services.NewFileExtractService(), newStubQuizRepo(), &stubFavoriteRepo{})

	form := url.Values{"text": {strings.Repeat("x", 150)}}
	rr := httptest.NewRecorder()
	h.Generate(rr, formRequest("/api/v1/quiz/generate", form, uuid.New()))
	if rr.Code != http.StatusBadGateway {
		t.Fatalf("expected 502, got %d", rr.Code)
	}
}

func TestQuizHandler_SaveAndFavorites(t *testing.T) {
	userID := uuid.New()
	repo := newStubQuizRepo()
	favs := &stubFavoriteRepo{}
	h := NewQuizHandler(&stubQuizGenerator{}, services.NewFileExtractService(), repo, favs)

	bad := models.SaveQuizRequest{Title: "Cells", Questions: []models.Question{{Question: "Q", Options: []string{"a", "b"}}}}
	rr := httptest.NewRecorder()
	h.Save(rr, authedRequest(http.MethodPost, "/api/v1/quiz/save", bad, userID))
	if rr.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 for 2-option question, got %d", rr.Code)
	}

	good := models.SaveQuizRequest{
		Title:     "Cells",
		Questions: []models.Question{{Question: "Q", Options: []string{"a", "b", "c", "d"}, CorrectAnswer: 2}},
	}
	rr = httptest.NewRecorder()
	h.Save(rr, authedRequest(http.MethodPost, "/api/v1/quiz/save", good, userID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d: %s", rr.Code, rr.Body.String())
	}
	if len(repo.created) != 1 || repo.created[0].Difficulty != "medium" || repo.created[0].UserID != userID {
		t.Fatalf("unexpected stored quiz %+v", repo.created)
	}
	quizID := repo.created[0].ID

	body := map[string]string{"quizId": quizID.String()}
	rr = httptest.NewRecorder()
	h.AddFavorite(rr, authedRequest(http.MethodPost, "/api/v1/quiz/favorites", body, userID))
	if rr.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.AddFavorite(rr, authedRequest(http.MethodPost, "/api/v1/quiz/favorites", body, userID))
	if rr.Code != http.StatusConflict {
		t.Fatalf("expected 409 for duplicate favorite, got %d", rr.Code)
	}
	rr = httptest.NewRecorder()
	h.AddFavorite(rr, authedRequest(http.MethodPost, "/api/v1/quiz/favorites", body, uuid.New()))
	if rr.Code != http.StatusNotFound {
		t.Fatalf("expected 404 for another user's quiz, got %d", rr.Code)
	}

	rr = httptest.NewRecorder()
	h.Delete(rr, authedRequest(http.MethodDelete, "/api/v1/quiz/save?quizId="+quizID.String(), nil, userID))
	if rr.Code != http.StatusOK || len(repo.deleted) != 1 {
		t.Fatalf("expected delete to succeed, got %d", rr.Code)
	}
}

func TestProfileHandler(t *testing.T) {
	userID := uuid.New()
	repo := &stubProfileRepo{}
	h := NewProfileHandler(repo)

	rr := httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/api/v1/profile", nil, userID))
	var resp struct {
		Profile models.UserProfile `json:"profile"`
		IsNew   bool               `json:"isNew"`
	}
	json.NewDecoder(rr.Body).Decode(&resp)
	if !resp.IsNew || resp.Profile.Email != "ada@example.com" || resp.Profile.UserID != userID {
		t.Fatalf("unexpected default profile %+v", resp)
	}

	rr = httptest.NewRecorder()
	h.Update(rr, authedRequest(http.MethodPut, "/api/v1/profile", models.UpdateProfileRequest{FirstName: " Ada "}, userID))
	if rr.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rr.Code)
	}
	if repo.saved.FirstName != "Ada" || repo.saved.Email != "ada@example.com" {
		t.Errorf("unexpected saved profile %+v", repo.saved)
	}
}

func TestAnalyticsHandler(t *testing.T) {
	f := newTimedFixture()
	f.attempts.attempts = []*models.QuizAttempt{
		{UserID: f.userID, QuizID: f.quiz.ID, Percentage: 80, TotalQuestions: 5, CompletedAt: f.clock.Now()},
		{UserID: f.userID, QuizID: f.quiz.ID, Percentage: 40, TotalQuestions: 5, CompletedAt: f.clock.Now()},
	}
	h := NewAnalyticsHandler(f.attempts, f.quizRepo)
	h.now = f.clock.Now

	rr := httptest.NewRecorder()
	h.Get(rr, authedRequest(http.MethodGet, "/api/v1/analytics", nil, f.userID))
	var a models.Analytics
	json.NewDecoder(rr.Body).Decode(&a)
	if a.TotalAttempts != 2 || a.AverageScore != 60 || a.BestScore != 80 || a.TotalQuizzes != 1 {
		t.Errorf("unexpected analytics %+v", a)
	}
}

func TestPresentationHandler_Export(t *testing.T) {
	h := NewPresentationHandler(nil, services.NewFileExtractService())
	outline := &models.GeneratedPresentationData{
		Title:  "My Quiz! #1",
		Slides: []models.Slide{{Title: "T1", Content: "- A\n- B", Format: models.SlideFormatBulletpoint}},
	}

	tests := []struct {
		name     string
		body     models.ExportPresentationRequest
		wantCode int
		wantType string
		wantFile string
	}{
		{"pptx", models.ExportPresentationRequest{Presentation: outline, Format: "pptx"}, http.StatusOK,
			"application/vnd.openxmlformats-officedocument.presentationml.presentation", `attachment; filename="my-quiz-1.pptx"`},
		{"pdf", models.ExportPresentationRequest{Presentation: outline, Format: "pdf", Theme: "dark"}, http.StatusOK,
			"application/pdf", `attachment; filename="my-quiz-1.pdf"`},
		{"bad format", models.ExportPresentationRequest{Presentation: outline, Format: "docx"}, http.StatusBadRequest, "", ""},
		{"bad theme", models.ExportPresentationRequest{Presentation: outline, Format: "pdf", Theme: "neon"}, http.StatusBadRequest, "", ""},
		{"missing presentation", models.ExportPresentationRequest{Format: "pdf"}, http.StatusBadRequest, "", ""},
		{"no slides", models.ExportPresentationRequest{Presentation: &models.GeneratedPresentationData{Title: "x"}, Format: "pptx"}, http.StatusBadRequest, "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rr := httptest.NewRecorder()
			h.Export(rr, authedRequest(http.MethodPost, "/api/v1/presentation/export", tt.body, uuid.New()))
			if rr.Code != tt.wantCode {
				t.Fatalf("expected %d, got %d: %s", tt.wantCode, rr.Code, rr.Body.String())
			}
			if tt.wantCode != http.StatusOK {
				return
			}
			if got := rr.Header().Get("Content-Type"); got != tt.wantType {
				t.Errorf("Content-Type = %q", got)
			}
			if got := rr.Header().Get("Content-Disposition"); got != tt.wantFile {
				t.Errorf("Content-Disposition = %q", got)
			}
			if rr.Body.Len() == 0 {
				t.Error("empty body")
			}
		})
	}
}
