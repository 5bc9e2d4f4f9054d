package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiz-ledger-service/internal/domain"
)

// AttemptStore persists attempts and their score records.
//
// RecordAttempt writes the attempt and its ScoreRecord as one unit. It returns
// domain.ErrDuplicateAttempt when an attempt for the same (student, quiz)
// already exists and an error wrapping domain.ErrScorePersistence when the
// score record could not be written.
type AttemptStore interface {
	FindAttempt(ctx context.Context, studentID, quizID string) (domain.Attempt, error)
	RecordAttempt(ctx context.Context, attempt domain.Attempt) error
	ListAttemptsByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error)
	ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error)
	// SaveScore inserts the record unless one exists for the same (quiz, student).
	SaveScore(ctx context.Context, record domain.ScoreRecord) (bool, error)
}

// StandingsPublisher is told when a quiz's standings changed.
type StandingsPublisher interface {
	Publish(ctx context.Context, quizID string)
}

// Ledger records quiz submissions. Each (student, quiz) pair moves from not
// attempted to attempted exactly once.
type Ledger struct {
	attempts  AttemptStore
	quizzes   QuizRepository
	publisher StandingsPublisher
	log       logrus.FieldLogger
	now       func() time.Time
}

func NewLedger(attempts AttemptStore, quizzes QuizRepository, publisher StandingsPublisher, log logrus.FieldLogger) *Ledger {
	return &Ledger{
		attempts:  attempts,
		quizzes:   quizzes,
		publisher: publisher,
		log:       log,
		now:       time.Now,
	}
}

// NewLedgerWithClock is test-only for deterministic timestamps.
func NewLedgerWithClock(attempts AttemptStore, quizzes QuizRepository, publisher StandingsPublisher, log logrus.FieldLogger, now func() time.Time) *Ledger {
	l := NewLedger(attempts, quizzes, publisher, log)
	l.now = now
	return l
}

// Submit scores answers against the quiz and records the attempt. A repeated
// submission returns *domain.AlreadyAttemptedError carrying the first attempt.
func (l *Ledger) Submit(ctx context.Context, studentID, quizID string, answers []domain.Answer) (domain.Attempt, error) {
	log := l.log.WithFields(logrus.Fields{"quiz_id": quizID, "student_id": studentID})

	existing, err := l.attempts.FindAttempt(ctx, studentID, quizID)
	switch {
	case err == nil:
		log.Info("submission rejected: quiz already attempted")
		return domain.Attempt{}, &domain.AlreadyAttemptedError{Attempt: existing}
	case !errors.Is(err, domain.ErrAttemptNotFound):
		return domain.Attempt{}, err
	}

	quiz, err := l.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Attempt{}, err
	}

	result, err := ScoreAnswers(quiz.Questions, answers)
	if err != nil {
		return domain.Attempt{}, err
	}

	attempt := domain.Attempt{
		ID:             uuid.NewString(),
		StudentID:      studentID,
		QuizID:         quizID,
		Score:          result.RawScore,
		TotalQuestions: result.Total,
		Percentage:     result.Percentage,
		Questions:      result.Breakdown,
		CompletedAt:    l.now().UTC(),
	}
	if err := l.attempts.RecordAttempt(ctx, attempt); err != nil {
		if errors.Is(err, domain.ErrDuplicateAttempt) {
			// Lost a race with a concurrent submission; the stored one wins.
			first, findErr := l.attempts.FindAttempt(ctx, studentID, quizID)
			if findErr != nil {
				return domain.Attempt{}, findErr
			}
			log.Info("concurrent submission collapsed onto existing attempt")
			return domain.Attempt{}, &domain.AlreadyAttemptedError{Attempt: first}
		}
		log.WithError(err).Error("attempt not recorded")
		return domain.Attempt{}, err
	}

	log.WithFields(logrus.Fields{"score": attempt.Score, "total": attempt.TotalQuestions}).Info("attempt recorded")
	if l.publisher != nil {
		l.publisher.Publish(ctx, quizID)
	}
	return attempt, nil
}

// RepairScores recreates missing score records for a quiz from its attempts.
// Running it again is a no-op.
func (l *Ledger) RepairScores(ctx context.Context, quizID string) (int, error) {
	attempts, err := l.attempts.ListAttemptsByQuiz(ctx, quizID)
	if err != nil {
		return 0, err
	}
	repaired := 0
	for _, a := range attempts {
		created, err := l.attempts.SaveScore(ctx, domain.ScoreRecordFor(a))
		if err != nil {
			return repaired, err
		}
		if created {
			repaired++
		}
	}
	if repaired > 0 {
		l.log.WithFields(logrus.Fields{"quiz_id": quizID, "repaired": repaired}).Warn("score records rebuilt from attempts")
		if l.publisher != nil {
			l.publisher.Publish(ctx, quizID)
		}
	}
	return repaired, nil
}
