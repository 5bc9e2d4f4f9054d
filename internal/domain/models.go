package domain

import "time"

// QuestionKind distinguishes single-best-answer questions from fill-in-the-blank ones.
type QuestionKind string

const (
	KindMultipleChoice QuestionKind = "multiple-choice"
	KindFillInBlank    QuestionKind = "fill-in-blank"
)

// KindFor derives the question kind from its option count.
func KindFor(options []string) QuestionKind {
	if len(options) == 1 {
		return KindFillInBlank
	}
	return KindMultipleChoice
}

// Question is embedded in a Quiz. CorrectAnswer must equal one of Options.
type Question struct {
	ID            string       `json:"id,omitempty"`
	Text          string       `json:"question"`
	Options       []string     `json:"options"`
	CorrectAnswer string       `json:"correctAnswer"`
	Kind          QuestionKind `json:"type,omitempty"`
}

// Quiz is a collection of questions. Question order defines answer alignment.
type Quiz struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	Duration    int        `json:"duration"`
	CreatedBy   string     `json:"createdBy"`
	IsActive    bool       `json:"isActive"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// QuizDraft carries the author-controlled fields of a quiz.
type QuizDraft struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Questions   []Question `json:"questions"`
	Duration    int        `json:"duration"`
}

// Answer is one positional answer in a submission.
type Answer struct {
	SelectedOption string `json:"selectedOption"`
}

// AttemptQuestion is a frozen copy of a question as it was scored.
type AttemptQuestion struct {
	Question       string   `json:"question"`
	Options        []string `json:"options"`
	CorrectAnswer  string   `json:"correctAnswer"`
	SelectedOption string   `json:"selectedOption"`
}

// Attempt is the immutable record of a completed quiz.
type Attempt struct {
	ID             string            `json:"id"`
	StudentID      string            `json:"student"`
	QuizID         string            `json:"quiz"`
	Score          int               `json:"score"`
	TotalQuestions int               `json:"totalQuestions"`
	Percentage     float64           `json:"percentage"`
	Questions      []AttemptQuestion `json:"questions"`
	CompletedAt    time.Time         `json:"completedAt"`
}

// ScoreRecord is the leaderboard projection of an Attempt.
type ScoreRecord struct {
	QuizID         string    `json:"quizId"`
	StudentID      string    `json:"studentId"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"totalQuestions"`
	Percentage     float64   `json:"percentage"`
	CreatedAt      time.Time `json:"createdAt"`
}

// ScoreRecordFor projects an attempt onto its leaderboard record.
func ScoreRecordFor(a Attempt) ScoreRecord {
	return ScoreRecord{
		QuizID:         a.QuizID,
		StudentID:      a.StudentID,
		Score:          a.Score,
		TotalQuestions: a.TotalQuestions,
		Percentage:     a.Percentage,
		CreatedAt:      a.CompletedAt,
	}
}

// StudentProfile is the subset of the account record the core reads.
type StudentProfile struct {
	ID        string `json:"id"`
	FullName  string `json:"fullName"`
	Email     string `json:"email"`
	AvatarURL string `json:"avatar"`
}

// Standing is a ScoreRecord joined with the student's profile, if one exists.
type Standing struct {
	ScoreRecord
	Student *StudentProfile `json:"student,omitempty"`
}

// Leaderboard captures the ordered standings for a quiz.
type Leaderboard struct {
	QuizID    string     `json:"quizId"`
	Entries   []Standing `json:"entries"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// CompletedQuiz pairs a student's attempt with the quiz it belongs to.
type CompletedQuiz struct {
	Attempt Attempt `json:"score"`
	Quiz    Quiz    `json:"quiz"`
}
