// Package apiclient talks to the FRESHR HTTP API on behalf of terminal
// clients. It satisfies player.Backend.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"freshr-backend/internal/models"
)

const DefaultTimeout = 30 * time.Second

// APIError is a non-2xx response decoded from the error envelope.
type APIError struct {
	Status    int
	Code      string
	Message   string
	Fields    map[string]string
	RequestID string
}

func (e *APIError) Error() string {
	if e.RequestID != "" {
		return fmt.Sprintf("%s (%d %s, request %s)", e.Message, e.Status, e.Code, e.RequestID)
	}
	return fmt.Sprintf("%s (%d %s)", e.Message, e.Status, e.Code)
}

type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

func New(baseURL, token string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		token:   token,
		http:    &http.Client{Timeout: DefaultTimeout},
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+"/api/v1"+path, body)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

// send executes req and returns the response when the status is 2xx.
// Callers own the body.
func (c *Client) send(req *http.Request) (*http.Response, error) {
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%s %s: %w", req.Method, req.URL.Path, err)
	}
	if resp.StatusCode >= 200 && resp.StatusCode < 300 {
		return resp, nil
	}
	defer resp.Body.Close()

	apiErr := &APIError{Status: resp.StatusCode, Code: "HTTP_ERROR", Message: http.StatusText(resp.StatusCode)}
	var envelope models.ErrorResponse
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil && envelope.Error.Code != "" {
		apiErr.Code = envelope.Error.Code
		apiErr.Message = envelope.Error.Message
		apiErr.Fields = envelope.Error.Fields
		apiErr.RequestID = envelope.Error.RequestID
	}
	return nil, apiErr
}

func (c *Client) doJSON(ctx context.Context, method, path string, in, out interface{}) error {
	var body io.Reader
	contentType := ""
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
		contentType = "application/json"
	}

	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return err
	}
	return c.decode(req, out)
}

func (c *Client) decode(req *http.Request, out interface{}) error {
	resp, err := c.send(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s response: %w", req.URL.Path, err)
	}
	return nil
}

func (c *Client) postForm(ctx context.Context, path string, form url.Values, out interface{}) error {
	req, err := c.newRequest(ctx, http.MethodPost, path, strings.NewReader(form.Encode()), "application/x-www-form-urlencoded")
	if err != nil {
		return err
	}
	return c.decode(req, out)
}

// GenerateQuiz asks the server for a quiz built from pasted text.
func (c *Client) GenerateQuiz(ctx context.Context, text string, questions int, difficulty string) (*models.GeneratedQuiz, error) {
	form := url.Values{"text": {text}}
	if questions > 0 {
		form.Set("numberOfQuestions", strconv.Itoa(questions))
	}
	if difficulty != "" {
		form.Set("difficulty", difficulty)
	}

	var out struct {
		Quiz *models.GeneratedQuiz `json:"quiz"`
	}
	if err := c.postForm(ctx, "/quiz/generate", form, &out); err != nil {
		return nil, err
	}
	if out.Quiz == nil {
		return nil, fmt.Errorf("generate quiz: empty response")
	}
	return out.Quiz, nil
}

func (c *Client) SaveQuiz(ctx context.Context, req models.SaveQuizRequest) (uuid.UUID, error) {
	var out struct {
		Quiz models.Quiz `json:"quiz"`
	}
	if err := c.doJSON(ctx, http.MethodPost, "/quiz/save", req, &out); err != nil {
		return uuid.Nil, err
	}
	if out.Quiz.ID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("save quiz: response has no quiz id")
	}
	return out.Quiz.ID, nil
}

func (c *Client) ListQuizzes(ctx context.Context, limit, offset int) ([]models.Quiz, int, error) {
	q := url.Values{}
	q.Set("limit", strconv.Itoa(limit))
	q.Set("offset", strconv.Itoa(offset))

	var out struct {
		Quizzes []models.Quiz `json:"quizzes"`
		Total   int           `json:"total"`
	}
	if err := c.doJSON(ctx, http.MethodGet, "/quiz/save?"+q.Encode(), nil, &out); err != nil {
		return nil, 0, err
	}
	return out.Quizzes, out.Total, nil
}

func (c *Client) CreateSession(ctx context.Context, quizID uuid.UUID, allocatedSeconds int) (*models.SessionCreated, error) {
	var out models.SessionCreated
	err := c.doJSON(ctx, http.MethodPost, "/quiz/sessions", models.CreateSessionRequest{
		QuizID:               &quizID,
		AllocatedTimeSeconds: allocatedSeconds,
	}, &out)
	if err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SessionStatus(ctx context.Context, sessionID uuid.UUID) (*models.SessionStatus, error) {
	var out models.SessionStatus
	if err := c.doJSON(ctx, http.MethodGet, "/quiz/sessions?sessionId="+sessionID.String(), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) SubmitAttempt(ctx context.Context, req models.SubmitAttemptRequest) (*models.SubmitAttemptResponse, error) {
	var out models.SubmitAttemptResponse
	if err := c.doJSON(ctx, http.MethodPost, "/quiz/attempts", req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Analytics(ctx context.Context) (*models.Analytics, error) {
	var out models.Analytics
	if err := c.doJSON(ctx, http.MethodGet, "/analytics", nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// GeneratePresentation asks the server for a slide outline built from
// pasted text.
func (c *Client) GeneratePresentation(ctx context.Context, text string, slides int, style string, format models.SlideFormat) (*models.GeneratedPresentationData, error) {
	form := url.Values{"text": {text}}
	if slides > 0 {
		form.Set("numberOfSlides", strconv.Itoa(slides))
	}
	if style != "" {
		form.Set("style", style)
	}
	if format != "" {
		form.Set("format", string(format))
	}

	var out struct {
		Presentation *models.GeneratedPresentationData `json:"presentation"`
	}
	if err := c.postForm(ctx, "/presentation/generate", form, &out); err != nil {
		return nil, err
	}
	if out.Presentation == nil {
		return nil, fmt.Errorf("generate presentation: empty response")
	}
	return out.Presentation, nil
}

// Export downloads a rendered presentation and the filename the server
// suggested for it.
func (c *Client) Export(ctx context.Context, p *models.GeneratedPresentationData, format, theme string) ([]byte, string, error) {
	data, err := json.Marshal(models.ExportPresentationRequest{Presentation: p, Format: format, Theme: theme})
	if err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	req, err := c.newRequest(ctx, http.MethodPost, "/presentation/export", bytes.NewReader(data), "application/json")
	if err != nil {
		return nil, "", err
	}

	resp, err := c.send(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, "", fmt.Errorf("read export: %w", err)
	}

	filename := "presentation." + strings.ToLower(format)
	if _, params, err := mime.ParseMediaType(resp.Header.Get("Content-Disposition")); err == nil && params["filename"] != "" {
		filename = params["filename"]
	}
	return body, filename, nil
}
