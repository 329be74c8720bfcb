package services

import (
	"bytes"
	"fmt"
	"regexp"
	"strings"

	"github.com/ledongthuc/pdf"
)

const (
	MinContentLength = 100
	MaxContentLength = 15000
	MaxUploadBytes   = 10 << 20
)

const unsupportedFileMessage = "Unsupported file type. Please upload a PDF or text file."

type FileExtractService struct{}

func NewFileExtractService() *FileExtractService {
	return &FileExtractService{}
}

// ExtractText turns an uploaded document into normalized plain text. Only PDF
// and plain text are accepted.
func (s *FileExtractService) ExtractText(data []byte, mimeType string) (string, error) {
	mediaType := strings.ToLower(strings.TrimSpace(strings.Split(mimeType, ";")[0]))

	var (
		text string
		err  error
	)
	switch mediaType {
	case "application/pdf":
		text, err = s.extractPDF(data)
		if err != nil {
			return "", &ValidationError{
				Message: "Could not read the PDF file",
				Fields:  map[string]string{"file": err.Error()},
			}
		}
		text = cleanExtractedText(text)
	case "text/plain":
		text = normalizeExtractedText(string(data))
	default:
		return "", &ValidationError{
			Message: unsupportedFileMessage,
			Fields:  map[string]string{"file": unsupportedFileMessage},
		}
	}

	if text == "" {
		return "", &ValidationError{
			Message: "No extractable text found in the file",
			Fields:  map[string]string{"file": "File contains no text"},
		}
	}
	return text, nil
}

// PrepareContent picks the uploaded file over pasted text, enforces the
// minimum length and truncates oversized input.
func (s *FileExtractService) PrepareContent(file []byte, mimeType, text string) (string, error) {
	var content string
	switch {
	case len(file) > 0:
		extracted, err := s.ExtractText(file, mimeType)
		if err != nil {
			return "", err
		}
		content = extracted
	case strings.TrimSpace(text) != "":
		content = strings.TrimSpace(text)
	default:
		return "", &ValidationError{
			Message: "No content provided",
			Fields:  map[string]string{"content": "Upload a file or paste some text"},
		}
	}

	if len([]rune(content)) < MinContentLength {
		return "", &ValidationError{
			Message: "Content is too short",
			Fields:  map[string]string{"content": fmt.Sprintf("Content must be at least %d characters", MinContentLength)},
		}
	}
	if r := []rune(content); len(r) > MaxContentLength {
		content = string(r[:MaxContentLength])
	}
	return content, nil
}

func (s *FileExtractService) extractPDF(data []byte) (text string, err error) {
	// The pdf package panics on some malformed inputs.
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("malformed pdf: %v", r)
		}
	}()

	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", err
	}

	var b strings.Builder
	totalPage := reader.NumPage()
	for pageIndex := 1; pageIndex <= totalPage; pageIndex++ {
		page := reader.Page(pageIndex)
		if page.V.IsNull() {
			continue
		}

		content, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		b.WriteString(content)
		b.WriteString("\n")
	}

	return b.String(), nil
}

var (
	pageMarkerPattern = regexp.MustCompile(`(?i)Page \d+ of \d+`)
	pageNumberLine    = regexp.MustCompile(`(?m)^\s*\d+\s*$`)
	whitespaceRun     = regexp.MustCompile(`\s+`)
)

// cleanExtractedText drops page markers and bare page-number lines, then
// collapses every whitespace run to a single space.
func cleanExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = pageNumberLine.ReplaceAllString(s, "")
	s = pageMarkerPattern.ReplaceAllString(s, "")
	s = whitespaceRun.ReplaceAllString(s, " ")
	return strings.TrimSpace(s)
}

func normalizeExtractedText(s string) string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.ReplaceAll(s, "\r", "\n")

	lines := strings.Split(s, "\n")
	buf := bytes.Buffer{}

	emptyCount := 0
	for _, line := range lines {
		trimmed := strings.TrimSpace(line)
		if trimmed == "" {
			emptyCount++
			if emptyCount > 1 {
				continue
			}
			buf.WriteString("\n")
			continue
		}
		emptyCount = 0
		buf.WriteString(trimmed)
		buf.WriteString("\n")
	}

	return strings.TrimSpace(buf.String())
}
