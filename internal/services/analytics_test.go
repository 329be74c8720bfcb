package services

import (
	"testing"
	"time"

	"github.com/google/uuid"

	"freshr-backend/internal/models"
)

func attemptAt(pct, total int, at time.Time, title *string) *models.QuizAttempt {
	return &models.QuizAttempt{
		ID:             uuid.New(),
		Percentage:     pct,
		TotalQuestions: total,
		CompletedAt:    at,
		QuizTitle:      title,
	}
}

func TestComputeAnalytics_Empty(t *testing.T) {
	got := ComputeAnalytics(nil, 3, time.Now())

	if got.TotalQuizzes != 3 || got.TotalAttempts != 0 || got.AverageScore != 0 {
		t.Errorf("Unexpected totals %+v", got)
	}
	if len(got.ScoreDistribution) != 5 {
		t.Fatalf("Expected 5 buckets, got %d", len(got.ScoreDistribution))
	}
	if got.RecentAttempts == nil || got.PerformanceOverTime == nil || got.TopicBreakdown == nil {
		t.Error("Expected empty slices rather than nil")
	}
}

func TestComputeAnalytics(t *testing.T) {
	now := time.Date(2026, 5, 20, 12, 0, 0, 0, time.UTC)
	title := "Cells"
	attempts := []*models.QuizAttempt{
		attemptAt(100, 5, now.Add(-1*time.Hour), &title),
		attemptAt(61, 5, now.Add(-2*time.Hour), nil),
		attemptAt(20, 10, now.Add(-26*time.Hour), &title),
		attemptAt(21, 10, now.Add(-40*24*time.Hour), &title),
	}

	got := ComputeAnalytics(attempts, 2, now)

	if got.TotalAttempts != 4 {
		t.Errorf("Expected 4 attempts, got %d", got.TotalAttempts)
	}
	if got.TotalQuestionsAnswered != 30 {
		t.Errorf("Expected 30 questions, got %d", got.TotalQuestionsAnswered)
	}
	// (100+61+20+21)/4 = 50.5
	if got.AverageScore != 51 {
		t.Errorf("Expected average 51, got %d", got.AverageScore)
	}
	if got.BestScore != 100 {
		t.Errorf("Expected best 100, got %d", got.BestScore)
	}

	wantBuckets := []int{1, 1, 0, 1, 1}
	for i, want := range wantBuckets {
		if got.ScoreDistribution[i].Count != want {
			t.Errorf("Bucket %s: expected %d, got %d", got.ScoreDistribution[i].Range, want, got.ScoreDistribution[i].Count)
		}
	}

	if len(got.PerformanceOverTime) != 2 {
		t.Fatalf("Expected 2 days of performance, got %+v", got.PerformanceOverTime)
	}
	if got.PerformanceOverTime[0].Date != "2026-05-19" || got.PerformanceOverTime[0].AvgScore != 20 {
		t.Errorf("Unexpected first day %+v", got.PerformanceOverTime[0])
	}
	if got.PerformanceOverTime[1].Date != "2026-05-20" || got.PerformanceOverTime[1].Count != 2 || got.PerformanceOverTime[1].AvgScore != 81 {
		t.Errorf("Unexpected second day %+v", got.PerformanceOverTime[1])
	}

	if got.RecentAttempts[1].QuizTitle != untitledQuiz {
		t.Errorf("Expected fallback title, got %q", got.RecentAttempts[1].QuizTitle)
	}
}

func TestComputeAnalytics_RecentAttemptsCapped(t *testing.T) {
	now := time.Now()
	var attempts []*models.QuizAttempt
	for i := 0; i < 15; i++ {
		attempts = append(attempts, attemptAt(50, 4, now.Add(-time.Duration(i)*time.Minute), nil))
	}

	got := ComputeAnalytics(attempts, 1, now)
	if len(got.RecentAttempts) != recentAttemptLimit {
		t.Errorf("Expected %d recent attempts, got %d", recentAttemptLimit, len(got.RecentAttempts))
	}
}
