package export

import (
	"regexp"
	"strings"

	"freshr-backend/internal/models"
	"freshr-backend/internal/services"
)

type Format string

const (
	FormatPPTX Format = "pptx"
	FormatPDF  Format = "pdf"
)

const (
	maxTitleRunes    = 55
	maxFilenameRunes = 50
	fallbackFilename = "presentation"
	creditLine       = "Generated with FRESHR"
)

func ParseFormat(s string) (Format, error) {
	switch f := Format(strings.ToLower(strings.TrimSpace(s))); f {
	case FormatPPTX, FormatPDF:
		return f, nil
	}
	return "", &services.ValidationError{
		Message: "Invalid format. Must be 'pptx' or 'pdf'",
		Fields:  map[string]string{"format": "Must be 'pptx' or 'pdf'"},
	}
}

func (f Format) ContentType() string {
	if f == FormatPDF {
		return "application/pdf"
	}
	return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
}

// Validate rejects outlines that cannot be rendered. It runs before any
// encoding work.
func Validate(p *models.GeneratedPresentationData) error {
	if p == nil {
		return &services.ValidationError{
			Message: "Presentation data is required",
			Fields:  map[string]string{"presentation": "Presentation data is required"},
		}
	}
	fields := map[string]string{}
	if strings.TrimSpace(p.Title) == "" {
		fields["title"] = "Title is required"
	}
	if len(p.Slides) == 0 {
		fields["slides"] = "Presentation must have at least one slide"
	}
	for _, s := range p.Slides {
		if s.Format != "" && !s.Format.Valid() {
			fields["slides"] = "Slide format must be concise, detailed or bulletpoint"
			break
		}
	}
	if len(fields) > 0 {
		return &services.ValidationError{Message: "Invalid presentation data structure", Fields: fields}
	}
	return nil
}

var (
	nonAlphanumRun = regexp.MustCompile(`[^a-zA-Z0-9]+`)
	bulletPrefix   = regexp.MustCompile(`^-\s*`)
)

// Filename derives a filesystem-safe download name from a title.
func Filename(title string, f Format) string {
	name := nonAlphanumRun.ReplaceAllString(title, "-")
	name = strings.Trim(name, "-")
	name = strings.ToLower(name)
	if r := []rune(name); len(r) > maxFilenameRunes {
		name = string(r[:maxFilenameRunes])
	}
	if name == "" {
		name = fallbackFilename
	}
	return name + "." + string(f)
}

func truncateTitle(title string) string {
	r := []rune(title)
	if len(r) > maxTitleRunes {
		return string(r[:maxTitleRunes]) + "..."
	}
	return title
}

// bulletItems splits slide content into non-blank lines with any leading
// "-" marker removed.
func bulletItems(content string) []string {
	var items []string
	for _, line := range strings.Split(content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		items = append(items, bulletPrefix.ReplaceAllString(line, ""))
	}
	return items
}

// paragraphSize is the body font size in points for non-bullet slides.
func paragraphSize(f models.SlideFormat) int {
	if f == models.SlideFormatConcise {
		return 16
	}
	return 14
}
