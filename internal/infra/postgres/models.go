package postgres

import (
	"time"

	"github.com/uptrace/bun"

	"quiz-ledger-service/internal/domain"
)

type quizRow struct {
	bun.BaseModel `bun:"table:quizzes"`

	ID          string            `bun:"id,pk"`
	Title       string            `bun:"title"`
	Description string            `bun:"description"`
	Duration    int               `bun:"duration"`
	CreatedBy   string            `bun:"created_by"`
	IsActive    bool              `bun:"is_active"`
	Questions   []domain.Question `bun:"questions,type:jsonb"`
	CreatedAt   time.Time         `bun:"created_at"`
	UpdatedAt   time.Time         `bun:"updated_at"`
}

func newQuizRow(q domain.Quiz) *quizRow {
	return &quizRow{
		ID:          q.ID,
		Title:       q.Title,
		Description: q.Description,
		Duration:    q.Duration,
		CreatedBy:   q.CreatedBy,
		IsActive:    q.IsActive,
		Questions:   q.Questions,
		CreatedAt:   q.CreatedAt,
		UpdatedAt:   q.UpdatedAt,
	}
}

func (r quizRow) toDomain() domain.Quiz {
	return domain.Quiz{
		ID:          r.ID,
		Title:       r.Title,
		Description: r.Description,
		Questions:   r.Questions,
		Duration:    r.Duration,
		CreatedBy:   r.CreatedBy,
		IsActive:    r.IsActive,
		CreatedAt:   r.CreatedAt,
		UpdatedAt:   r.UpdatedAt,
	}
}

type attemptRow struct {
	bun.BaseModel `bun:"table:attempts"`

	ID             string                   `bun:"id,pk"`
	StudentID      string                   `bun:"student_id"`
	QuizID         string                   `bun:"quiz_id"`
	Score          int                      `bun:"score"`
	TotalQuestions int                      `bun:"total_questions"`
	Percentage     float64                  `bun:"percentage"`
	Questions      []domain.AttemptQuestion `bun:"questions,type:jsonb"`
	CompletedAt    time.Time                `bun:"completed_at"`
}

func newAttemptRow(a domain.Attempt) *attemptRow {
	return &attemptRow{
		ID:             a.ID,
		StudentID:      a.StudentID,
		QuizID:         a.QuizID,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		Percentage:     a.Percentage,
		Questions:      a.Questions,
		CompletedAt:    a.CompletedAt,
	}
}

func (r attemptRow) toDomain() domain.Attempt {
	return domain.Attempt{
		ID:             r.ID,
		StudentID:      r.StudentID,
		QuizID:         r.QuizID,
		Score:          r.Score,
		TotalQuestions: r.TotalQuestions,
		Percentage:     r.Percentage,
		Questions:      r.Questions,
		CompletedAt:    r.CompletedAt,
	}
}

type scoreRow struct {
	bun.BaseModel `bun:"table:scores"`

	ID             int64     `bun:"id,pk,autoincrement"`
	QuizID         string    `bun:"quiz_id"`
	StudentID      string    `bun:"student_id"`
	Score          int       `bun:"score"`
	TotalQuestions int       `bun:"total_questions"`
	Percentage     float64   `bun:"percentage"`
	CreatedAt      time.Time `bun:"created_at"`
}

func newScoreRow(s domain.ScoreRecord) *scoreRow {
	return &scoreRow{
		QuizID:         s.QuizID,
		StudentID:      s.StudentID,
		Score:          s.Score,
		TotalQuestions: s.TotalQuestions,
		Percentage:     s.Percentage,
		CreatedAt:      s.CreatedAt,
	}
}
