package export

import (
	"fmt"
	"strconv"
	"strings"

	"freshr-backend/internal/services"
)

type Theme string

const (
	ThemeDark         Theme = "dark"
	ThemeWhite        Theme = "white"
	ThemeClassic      Theme = "classic"
	ThemeProfessional Theme = "professional"
)

const DefaultTheme = ThemeProfessional

// Palette is the fixed color tuple of a theme, as RRGGBB hex.
type Palette struct {
	Primary    string
	Secondary  string
	Text       string
	Background string
	Accent     string
	TitleText  string
}

var palettes = map[Theme]Palette{
	ThemeDark:         {Primary: "1E293B", Secondary: "64748B", Text: "1F2937", Background: "0F172A", Accent: "06B6D4", TitleText: "FFFFFF"},
	ThemeWhite:        {Primary: "FFFFFF", Secondary: "E5E7EB", Text: "1F2937", Background: "FFFFFF", Accent: "3B82F6", TitleText: "1F2937"},
	ThemeClassic:      {Primary: "1E3A8A", Secondary: "1E40AF", Text: "1F2937", Background: "1E3A8A", Accent: "FBBF24", TitleText: "FFFFFF"},
	ThemeProfessional: {Primary: "2563EB", Secondary: "64748B", Text: "1E293B", Background: "F1F5F9", Accent: "8B5CF6", TitleText: "FFFFFF"},
}

// ParseTheme maps a request value to a Theme. Empty selects DefaultTheme.
func ParseTheme(s string) (Theme, error) {
	if s == "" {
		return DefaultTheme, nil
	}
	t := Theme(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := palettes[t]; !ok {
		return "", &services.ValidationError{
			Message: "Invalid theme",
			Fields:  map[string]string{"theme": "Must be one of dark, white, classic, professional"},
		}
	}
	return t, nil
}

func (t Theme) Palette() Palette {
	if p, ok := palettes[t]; ok {
		return p
	}
	return palettes[DefaultTheme]
}

// rgb splits an RRGGBB string into components.
func rgb(hex string) (int, int, int) {
	v, err := strconv.ParseUint(hex, 16, 32)
	if err != nil || len(hex) != 6 {
		panic(fmt.Sprintf("export: bad color %q", hex))
	}
	return int(v >> 16 & 0xFF), int(v >> 8 & 0xFF), int(v & 0xFF)
}
