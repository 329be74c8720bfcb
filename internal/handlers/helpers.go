package handlers

import (
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	"freshr-backend/internal/middleware"
	"freshr-backend/internal/models"
	"freshr-backend/internal/services"
)

const (
	defaultPageSize = 20
	maxPageSize     = 100
)

func writeJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(data)
}

func errorResp(code, message string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

func errorRespWithFields(code, message string, fields map[string]string, r *http.Request) models.ErrorResponse {
	return models.ErrorResponse{
		Error: models.APIError{
			Code:      code,
			Message:   message,
			Fields:    fields,
			RequestID: r.Header.Get(middleware.RequestIDHeader),
		},
	}
}

// handleServiceError maps the service error taxonomy onto the JSON error
// envelope. Upstream and persistence details are logged, never returned.
func handleServiceError(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validation  *services.ValidationError
		conflict    *services.ConflictError
		notFound    *services.NotFoundError
		unauth      *services.UnauthorizedError
		forbidden   *services.ForbiddenError
		rateLimit   *services.RateLimitError
		upstream    *services.UpstreamError
		persistence *services.PersistenceError
	)
	switch {
	case errors.As(err, &validation):
		writeJSON(w, http.StatusBadRequest, errorRespWithFields("VALIDATION_ERROR", validation.Error(), validation.Fields, r))
	case errors.As(err, &conflict):
		writeJSON(w, http.StatusConflict, errorResp("CONFLICT", conflict.Message, r))
	case errors.As(err, &notFound):
		writeJSON(w, http.StatusNotFound, errorResp("NOT_FOUND", notFound.Message, r))
	case errors.As(err, &unauth):
		writeJSON(w, http.StatusUnauthorized, errorResp("UNAUTHORIZED", unauth.Message, r))
	case errors.As(err, &forbidden):
		writeJSON(w, http.StatusForbidden, errorResp("FORBIDDEN", forbidden.Message, r))
	case errors.As(err, &rateLimit):
		writeJSON(w, http.StatusTooManyRequests, errorResp("RATE_LIMITED", rateLimit.Message, r))
	case errors.As(err, &upstream):
		log.Printf("Upstream failure (%s): %v", upstream.Op, upstream.Err)
		writeJSON(w, http.StatusBadGateway, errorResp("UPSTREAM_ERROR", "The AI service is unavailable right now. Please try again.", r))
	case errors.As(err, &persistence):
		log.Printf("Persistence failure (%s): %v", persistence.Op, persistence.Err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "Failed to save your data. Please try again.", r))
	default:
		log.Printf("Unexpected error on %s %s: %v", r.Method, r.URL.Path, err)
		writeJSON(w, http.StatusInternalServerError, errorResp("INTERNAL_ERROR", "An unexpected error occurred", r))
	}
}

func decodeJSON(r *http.Request, dst interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return &services.ValidationError{Message: "Invalid request body"}
	}
	return nil
}

// pagination reads limit/offset query parameters, falling back to defaults
// on anything unparsable.
func pagination(r *http.Request) (limit, offset int) {
	q := r.URL.Query()
	limit, err := strconv.Atoi(q.Get("limit"))
	if err != nil || limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset, err = strconv.Atoi(q.Get("offset"))
	if err != nil || offset < 0 {
		offset = 0
	}
	return limit, offset
}

func queryUUID(r *http.Request, name string) (uuid.UUID, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return uuid.Nil, &services.ValidationError{
			Message: name + " is required",
			Fields:  map[string]string{name: "Required"},
		}
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, &services.ValidationError{
			Message: "Invalid " + name,
			Fields:  map[string]string{name: "Must be a UUID"},
		}
	}
	return id, nil
}

// contentForm is the multipart input shared by the generate endpoints.
type contentForm struct {
	file     []byte
	mimeType string
	text     string
	values   map[string]string
}

func (f *contentForm) intValue(name string) int {
	n, _ := strconv.Atoi(strings.TrimSpace(f.values[name]))
	return n
}

// readContentForm parses a multipart (or url-encoded) form holding either a
// "file" upload or a "text" field.
func readContentForm(w http.ResponseWriter, r *http.Request) (*contentForm, error) {
	r.Body = http.MaxBytesReader(w, r.Body, services.MaxUploadBytes+1<<20)

	ct := r.Header.Get("Content-Type")
	var err error
	if strings.HasPrefix(ct, "multipart/form-data") {
		err = r.ParseMultipartForm(services.MaxUploadBytes)
	} else {
		err = r.ParseForm()
	}
	if err != nil {
		return nil, &services.ValidationError{
			Message: "Invalid form data",
			Fields:  map[string]string{"file": "File must be 10MB or smaller"},
		}
	}

	form := &contentForm{text: r.FormValue("text"), values: map[string]string{}}
	for key := range r.Form {
		form.values[key] = r.FormValue(key)
	}

	file, header, err := r.FormFile("file")
	if err == nil {
		defer file.Close()
		if header.Size > services.MaxUploadBytes {
			return nil, &services.ValidationError{
				Message: "File is too large",
				Fields:  map[string]string{"file": "File must be 10MB or smaller"},
			}
		}
		data, err := io.ReadAll(file)
		if err != nil {
			return nil, &services.ValidationError{Message: "Failed to read uploaded file"}
		}
		form.file = data
		form.mimeType = header.Header.Get("Content-Type")
		if form.mimeType == "" || form.mimeType == "application/octet-stream" {
			form.mimeType = http.DetectContentType(data)
		}
	}
	return form, nil
}
