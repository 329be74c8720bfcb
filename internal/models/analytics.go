package models

import (
	"time"

	"github.com/google/uuid"
)

type Analytics struct {
	TotalQuizzes           int                 `json:"totalQuizzes"`
	TotalAttempts          int                 `json:"totalAttempts"`
	TotalQuestionsAnswered int                 `json:"totalQuestionsAnswered"`
	AverageScore           int                 `json:"averageScore"`
	BestScore              int                 `json:"bestScore"`
	ScoreDistribution      []ScoreBucket       `json:"scoreDistribution"`
	PerformanceOverTime    []DailyPerformance  `json:"performanceOverTime"`
	TopicBreakdown         []TopicBreakdown    `json:"topicBreakdown"`
	RecentAttempts         []RecentAttemptView `json:"recentAttempts"`
}

type ScoreBucket struct {
	Range string `json:"range"`
	Count int    `json:"count"`
}

type DailyPerformance struct {
	Date     string `json:"date"`
	AvgScore int    `json:"avgScore"`
	Count    int    `json:"count"`
}

type TopicBreakdown struct {
	Topic    string `json:"topic"`
	Attempts int    `json:"attempts"`
	AvgScore int    `json:"avgScore"`
}

type RecentAttemptView struct {
	ID          uuid.UUID `json:"id"`
	QuizTitle   string    `json:"quizTitle"`
	Score       int       `json:"score"`
	TimeTaken   int       `json:"timeTaken"`
	CompletedAt time.Time `json:"completedAt"`
}
