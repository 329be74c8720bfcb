package services

import (
	"math"
	"sort"
	"time"

	"freshr-backend/internal/models"
)

const (
	performanceWindow  = 30 * 24 * time.Hour
	recentAttemptLimit = 10
	untitledQuiz       = "Untitled Quiz"
)

var scoreRanges = []struct {
	label    string
	min, max int
}{
	{"0-20%", 0, 20},
	{"21-40%", 21, 40},
	{"41-60%", 41, 60},
	{"61-80%", 61, 80},
	{"81-100%", 81, 100},
}

// ComputeAnalytics summarizes a user's attempts. attempts must be ordered
// newest first, as AttemptRepo.ListByUser returns them.
func ComputeAnalytics(attempts []*models.QuizAttempt, totalQuizzes int, now time.Time) models.Analytics {
	a := models.Analytics{
		TotalQuizzes:        totalQuizzes,
		TotalAttempts:       len(attempts),
		ScoreDistribution:   make([]models.ScoreBucket, len(scoreRanges)),
		PerformanceOverTime: []models.DailyPerformance{},
		TopicBreakdown:      []models.TopicBreakdown{},
		RecentAttempts:      []models.RecentAttemptView{},
	}
	for i, r := range scoreRanges {
		a.ScoreDistribution[i].Range = r.label
	}

	if len(attempts) == 0 {
		return a
	}

	type dayTotal struct{ total, count int }
	days := map[string]*dayTotal{}
	cutoff := now.Add(-performanceWindow)

	sum := 0
	for _, at := range attempts {
		sum += at.Percentage
		a.TotalQuestionsAnswered += at.TotalQuestions
		if at.Percentage > a.BestScore {
			a.BestScore = at.Percentage
		}

		for i, r := range scoreRanges {
			if at.Percentage >= r.min && at.Percentage <= r.max {
				a.ScoreDistribution[i].Count++
				break
			}
		}

		if !at.CompletedAt.Before(cutoff) {
			date := at.CompletedAt.UTC().Format("2006-01-02")
			d, ok := days[date]
			if !ok {
				d = &dayTotal{}
				days[date] = d
			}
			d.total += at.Percentage
			d.count++
		}
	}
	a.AverageScore = roundDiv(sum, len(attempts))

	for date, d := range days {
		a.PerformanceOverTime = append(a.PerformanceOverTime, models.DailyPerformance{
			Date:     date,
			AvgScore: roundDiv(d.total, d.count),
			Count:    d.count,
		})
	}
	sort.Slice(a.PerformanceOverTime, func(i, j int) bool {
		return a.PerformanceOverTime[i].Date < a.PerformanceOverTime[j].Date
	})

	for i, at := range attempts {
		if i == recentAttemptLimit {
			break
		}
		title := untitledQuiz
		if at.QuizTitle != nil && *at.QuizTitle != "" {
			title = *at.QuizTitle
		}
		timeTaken := 0
		if at.TimeTakenSeconds != nil {
			timeTaken = *at.TimeTakenSeconds
		}
		a.RecentAttempts = append(a.RecentAttempts, models.RecentAttemptView{
			ID:          at.ID,
			QuizTitle:   title,
			Score:       at.Percentage,
			TimeTaken:   timeTaken,
			CompletedAt: at.CompletedAt,
		})
	}

	return a
}

// roundDiv rounds half away from zero, matching the percentages shown to users.
func roundDiv(total, count int) int {
	if count == 0 {
		return 0
	}
	return int(math.Round(float64(total) / float64(count)))
}
