package main

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"freshr-backend/internal/export"
	"freshr-backend/internal/models"
)

func slidesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "slides <notes.txt>",
		Short: "Generate a presentation outline from a text file",
		Args:  cobra.ExactArgs(1),
		RunE:  runSlides,
	}
	f := cmd.Flags()
	f.Int("slides", 5, "Number of slides")
	f.String("style", "professional", "Writing style")
	f.String("format", string(models.SlideFormatBulletpoint), "Slide format (bulletpoint, concise, detailed)")
	f.StringP("output", "o", "", "Write the outline JSON here instead of stdout")
	return cmd
}

func runSlides(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)

	text, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}

	slog.Info("generating presentation", "slides", v.GetInt("slides"), "style", v.GetString("style"))
	outline, err := clientFor(v).GeneratePresentation(cmd.Context(), string(text), v.GetInt("slides"), v.GetString("style"), models.SlideFormat(v.GetString("format")))
	if err != nil {
		return err
	}

	data, err := json.MarshalIndent(outline, "", "  ")
	if err != nil {
		return err
	}
	if out := v.GetString("output"); out != "" {
		return os.WriteFile(out, data, 0o644)
	}
	fmt.Fprintln(cmd.OutOrStdout(), string(data))
	return nil
}

func exportCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "export <outline.json>",
		Short: "Export a presentation outline to PPTX or PDF",
		Args:  cobra.ExactArgs(1),
		RunE:  runExport,
	}
	f := cmd.Flags()
	f.String("format", string(export.FormatPPTX), "Output format (pptx, pdf)")
	f.String("theme", string(export.DefaultTheme), "Theme (dark, white, classic, professional)")
	f.StringP("dir", "d", ".", "Directory to write the file to")
	f.Bool("local", false, "Render in-process instead of calling the server")
	return cmd
}

func runExport(cmd *cobra.Command, args []string) error {
	v := viperForCmd(cmd)

	raw, err := os.ReadFile(args[0])
	if err != nil {
		return err
	}
	var outline models.GeneratedPresentationData
	if err := json.Unmarshal(raw, &outline); err != nil {
		return fmt.Errorf("parse %s: %w", args[0], err)
	}

	var (
		data     []byte
		filename string
	)
	if v.GetBool("local") {
		data, filename, err = renderLocal(&outline, v.GetString("format"), v.GetString("theme"))
	} else {
		data, filename, err = clientFor(v).Export(cmd.Context(), &outline, v.GetString("format"), v.GetString("theme"))
	}
	if err != nil {
		return err
	}

	path := filepath.Join(v.GetString("dir"), filepath.Base(filename))
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return err
	}
	slog.Info("presentation exported", "path", path, "bytes", len(data))
	return nil
}

func renderLocal(p *models.GeneratedPresentationData, rawFormat, rawTheme string) ([]byte, string, error) {
	format, err := export.ParseFormat(rawFormat)
	if err != nil {
		return nil, "", err
	}
	theme, err := export.ParseTheme(rawTheme)
	if err != nil {
		return nil, "", err
	}

	var data []byte
	switch format {
	case export.FormatPDF:
		data, err = export.RenderPDF(p, theme)
	default:
		data, err = export.RenderPPTX(p, theme)
	}
	if err != nil {
		return nil, "", err
	}
	return data, export.Filename(p.Title, format), nil
}

func statsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show quiz performance analytics",
		RunE: func(cmd *cobra.Command, _ []string) error {
			v := viperForCmd(cmd)
			a, err := clientFor(v).Analytics(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Quizzes: %d   Attempts: %d   Questions answered: %d\n", a.TotalQuizzes, a.TotalAttempts, a.TotalQuestionsAnswered)
			fmt.Fprintf(out, "Average: %d%%   Best: %d%%\n", a.AverageScore, a.BestScore)
			for _, b := range a.ScoreDistribution {
				fmt.Fprintf(out, "  %-8s %d\n", b.Range, b.Count)
			}
			return nil
		},
	}
}
