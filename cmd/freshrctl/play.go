package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"

	"freshr-backend/internal/apiclient"
	"freshr-backend/internal/models"
	"freshr-backend/internal/player"
)

func playCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "play",
		Short: "Play a quiz in the terminal, optionally against a server-side timer",
		Long: `Play a quiz loaded from a saved quiz id, a JSON file, or generated from a
text file. Commands during play:
  1-4      choose an option        n / p    next / previous question
  g <k>    go to question k        s        submit
  q        quit without submitting`,
		RunE: runPlay,
	}
	f := cmd.Flags()
	f.String("quiz-id", "", "Play a quiz already saved on the server")
	f.String("file", "", "Play a quiz from a JSON file")
	f.String("from-text", "", "Generate a quiz from a text file first")
	f.Int("questions", 5, "Number of questions to generate")
	f.String("difficulty", "medium", "Difficulty to generate (easy, medium, hard)")
	f.Duration("time-limit", 0, "Countdown for the whole quiz (0 plays untimed)")
	return cmd
}

func runPlay(cmd *cobra.Command, _ []string) error {
	v := viperForCmd(cmd)
	client := clientFor(v)
	ctx := cmd.Context()

	quiz, err := loadQuiz(ctx, client, v.GetString("quiz-id"), v.GetString("file"), v.GetString("from-text"), v.GetInt("questions"), v.GetString("difficulty"))
	if err != nil {
		return err
	}
	if len(quiz.Questions) == 0 {
		return fmt.Errorf("quiz %q has no questions", quiz.Title)
	}

	autoDone := make(chan *player.Result, 1)
	p := player.New(*quiz, client, player.Options{
		TimeLimit: v.GetDuration("time-limit"),
		OnTick: func(remaining int) {
			switch remaining {
			case 60, 30, 10, 5:
				fmt.Fprintf(cmd.OutOrStdout(), "\n⏱  %ds left\n", remaining)
			}
		},
		OnAutoSubmit: func(res *player.Result) { autoDone <- res },
	})

	if err := p.Start(ctx); err != nil {
		var initErr *player.SessionInitError
		if !errors.As(err, &initErr) {
			return err
		}
		slog.Warn("timer unavailable, playing untimed", "step", initErr.Step, "error", initErr.Err)
	}

	t := &terminal{p: p, out: cmd.OutOrStdout()}
	res, err := t.run(ctx, cmd.InOrStdin(), autoDone)
	if res == nil {
		p.Close()
	}
	return err
}

// loadQuiz resolves the quiz source flags in priority order: saved id,
// file, then generation from text.
func loadQuiz(ctx context.Context, client *apiclient.Client, quizID, file, textFile string, questions int, difficulty string) (*models.Quiz, error) {
	switch {
	case quizID != "":
		id, err := uuid.Parse(quizID)
		if err != nil {
			return nil, fmt.Errorf("invalid --quiz-id: %w", err)
		}
		return findSavedQuiz(ctx, client, id)

	case file != "":
		data, err := os.ReadFile(file)
		if err != nil {
			return nil, err
		}
		var q models.Quiz
		if err := json.Unmarshal(data, &q); err != nil {
			return nil, fmt.Errorf("parse %s: %w", file, err)
		}
		// Quizzes from disk are saved on first use.
		q.ID = uuid.Nil
		return &q, nil

	case textFile != "":
		text, err := os.ReadFile(textFile)
		if err != nil {
			return nil, err
		}
		slog.Info("generating quiz", "questions", questions, "difficulty", difficulty)
		gen, err := client.GenerateQuiz(ctx, string(text), questions, difficulty)
		if err != nil {
			return nil, err
		}
		return quizFromGenerated(gen), nil
	}
	return nil, fmt.Errorf("one of --quiz-id, --file or --from-text is required")
}

func findSavedQuiz(ctx context.Context, client *apiclient.Client, id uuid.UUID) (*models.Quiz, error) {
	const page = 100
	for offset := 0; ; offset += page {
		quizzes, total, err := client.ListQuizzes(ctx, page, offset)
		if err != nil {
			return nil, err
		}
		for i := range quizzes {
			if quizzes[i].ID == id {
				return &quizzes[i], nil
			}
		}
		if len(quizzes) == 0 || offset+len(quizzes) >= total {
			return nil, fmt.Errorf("quiz %s not found", id)
		}
	}
}

func quizFromGenerated(g *models.GeneratedQuiz) *models.Quiz {
	q := &models.Quiz{
		Title:      g.Title,
		Difficulty: g.Difficulty,
		Questions:  g.Questions,
	}
	if g.Description != "" {
		q.Description = &g.Description
	}
	if g.Topic != "" {
		q.Topic = &g.Topic
	}
	return q
}

// terminal renders a player on a line-oriented stream.
type terminal struct {
	p   *player.Player
	out io.Writer

	confirming bool
}

// run reads commands until the quiz is submitted by the user or the timer,
// the input ends, or ctx is cancelled. It returns the final result, if any.
func (t *terminal) run(ctx context.Context, in io.Reader, autoDone <-chan *player.Result) (*player.Result, error) {
	lines := make(chan string)
	done := make(chan struct{})
	defer close(done)

	go func() {
		defer close(lines)
		scanner := bufio.NewScanner(in)
		for scanner.Scan() {
			select {
			case lines <- scanner.Text():
			case <-done:
				return
			}
		}
	}()

	t.show()
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()

		case res := <-autoDone:
			fmt.Fprintln(t.out, "\n⏰ Time's up! Your answers were submitted automatically.")
			t.report(res)
			return res, nil

		case line, ok := <-lines:
			if !ok {
				return nil, nil
			}
			res, quit, err := t.handle(ctx, strings.TrimSpace(line))
			if err != nil {
				return nil, err
			}
			if res != nil {
				t.report(res)
				return res, nil
			}
			if quit {
				return nil, nil
			}
		}
	}
}

func (t *terminal) handle(ctx context.Context, line string) (*player.Result, bool, error) {
	if t.confirming {
		t.confirming = false
		if strings.EqualFold(line, "y") || strings.EqualFold(line, "yes") {
			return t.submit(ctx, true)
		}
		fmt.Fprintln(t.out, "Submission cancelled.")
		t.show()
		return nil, false, nil
	}

	fields := strings.Fields(line)
	if len(fields) == 0 {
		t.show()
		return nil, false, nil
	}

	switch cmd := strings.ToLower(fields[0]); cmd {
	case "n":
		if !t.p.Next() {
			fmt.Fprintln(t.out, "Already at the last question.")
		}
	case "p":
		if !t.p.Prev() {
			fmt.Fprintln(t.out, "Already at the first question.")
		}
	case "g":
		k := 0
		if len(fields) > 1 {
			k, _ = strconv.Atoi(fields[1])
		}
		if err := t.p.Jump(k - 1); err != nil {
			fmt.Fprintf(t.out, "No question %d.\n", k)
		}
	case "s":
		return t.submit(ctx, false)
	case "q":
		fmt.Fprintln(t.out, "Quit without submitting.")
		return nil, true, nil
	default:
		n, err := strconv.Atoi(cmd)
		if err != nil {
			fmt.Fprintln(t.out, "Unknown command. Use 1-4, n, p, g <k>, s or q.")
			return nil, false, nil
		}
		if err := t.p.Select(n - 1); err != nil {
			if errors.Is(err, player.ErrNotInProgress) {
				return nil, false, err
			}
			fmt.Fprintf(t.out, "No option %d.\n", n)
			return nil, false, nil
		}
		if !t.p.Next() {
			fmt.Fprintln(t.out, "That was the last question. Type s to submit.")
			return nil, false, nil
		}
	}
	t.show()
	return nil, false, nil
}

func (t *terminal) submit(ctx context.Context, confirm bool) (*player.Result, bool, error) {
	res, err := t.p.Submit(ctx, confirm)
	if err == nil {
		return res, false, nil
	}

	var needConfirm *player.ConfirmationRequiredError
	switch {
	case errors.As(err, &needConfirm):
		t.confirming = true
		fmt.Fprintf(t.out, "%d question(s) unanswered. Submit anyway? [y/N] ", needConfirm.Unanswered)
		return nil, false, nil
	case errors.Is(err, player.ErrAlreadySubmitted):
		// The timer won the race; its result arrives on autoDone.
		return nil, false, nil
	}
	return nil, false, err
}

func (t *terminal) show() {
	i := t.p.Current()
	q, ok := t.p.Question(i)
	if !ok {
		return
	}

	header := fmt.Sprintf("\nQuestion %d of %d", i+1, t.p.Total())
	if remaining := t.p.Remaining(); remaining >= 0 {
		header += fmt.Sprintf("   [%s left]", formatClock(remaining))
	}
	fmt.Fprintln(t.out, header)
	fmt.Fprintln(t.out, q.Question)

	selected, answered := t.p.Selected(i)
	for j, opt := range q.Options {
		marker := " "
		if answered && selected == j {
			marker = "●"
		}
		fmt.Fprintf(t.out, "  %s %d) %s\n", marker, j+1, opt)
	}
	fmt.Fprint(t.out, "> ")
}

func (t *terminal) report(res *player.Result) {
	fmt.Fprintf(t.out, "\nScore: %d/%d (%d%%) in %s\n", res.Correct, res.Total, res.Percentage, formatClock(res.TimeTakenSeconds))
	if res.IsLateSubmission {
		fmt.Fprintln(t.out, "Submitted after the deadline.")
	}
	if res.SaveErr != nil {
		fmt.Fprintf(t.out, "Your score could not be saved: %v\n", res.SaveErr)
	}

	for i, a := range res.Answers {
		q, _ := t.p.Question(i)
		mark := "✗"
		if a.IsCorrect {
			mark = "✓"
		}
		fmt.Fprintf(t.out, "%s %d. %s\n", mark, i+1, q.Question)
		if q.CorrectAnswer >= 0 && q.CorrectAnswer < len(q.Options) {
			fmt.Fprintf(t.out, "    answer: %s\n", q.Options[q.CorrectAnswer])
		}
		if q.Explanation != "" {
			fmt.Fprintf(t.out, "    %s\n", q.Explanation)
		}
	}
}

func formatClock(seconds int) string {
	d := time.Duration(seconds) * time.Second
	return fmt.Sprintf("%d:%02d", int(d.Minutes()), seconds%60)
}
