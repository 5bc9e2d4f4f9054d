package memory

import (
	"context"
	"sort"
	"sync"

	"quiz-ledger-service/internal/domain"
)

// AttemptStore keeps attempts and score records under one lock, so an attempt
// and its score record always land together.
type AttemptStore struct {
	mu       sync.RWMutex
	attempts map[pairKey]domain.Attempt
	scores   map[pairKey]domain.ScoreRecord

	// FailScoreWrites simulates a broken score collection.
	FailScoreWrites bool
}

type pairKey struct {
	studentID string
	quizID    string
}

func NewAttemptStore() *AttemptStore {
	return &AttemptStore{
		attempts: make(map[pairKey]domain.Attempt),
		scores:   make(map[pairKey]domain.ScoreRecord),
	}
}

func (s *AttemptStore) FindAttempt(_ context.Context, studentID, quizID string) (domain.Attempt, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if a, ok := s.attempts[pairKey{studentID, quizID}]; ok {
		return a, nil
	}
	return domain.Attempt{}, domain.ErrAttemptNotFound
}

func (s *AttemptStore) RecordAttempt(_ context.Context, attempt domain.Attempt) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{attempt.StudentID, attempt.QuizID}
	if _, ok := s.attempts[key]; ok {
		return domain.ErrDuplicateAttempt
	}
	if s.FailScoreWrites {
		return domain.ErrScorePersistence
	}
	s.attempts[key] = attempt
	s.scores[key] = domain.ScoreRecordFor(attempt)
	return nil
}

// ListAttemptsByStudent returns a student's attempts, newest first.
func (s *AttemptStore) ListAttemptsByStudent(_ context.Context, studentID string) ([]domain.Attempt, error) {
	return s.filter(func(k pairKey) bool { return k.studentID == studentID }), nil
}

// ListAttemptsByQuiz returns a quiz's attempts, newest first.
func (s *AttemptStore) ListAttemptsByQuiz(_ context.Context, quizID string) ([]domain.Attempt, error) {
	return s.filter(func(k pairKey) bool { return k.quizID == quizID }), nil
}

func (s *AttemptStore) SaveScore(_ context.Context, record domain.ScoreRecord) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	key := pairKey{record.StudentID, record.QuizID}
	if _, ok := s.scores[key]; ok {
		return false, nil
	}
	if s.FailScoreWrites {
		return false, domain.ErrScorePersistence
	}
	s.scores[key] = record
	return true, nil
}

// DropScore removes a score record, leaving its attempt orphaned.
func (s *AttemptStore) DropScore(studentID, quizID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.scores, pairKey{studentID, quizID})
}

func (s *AttemptStore) ListScores(_ context.Context, quizID string) ([]domain.ScoreRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []domain.ScoreRecord
	for k, rec := range s.scores {
		if k.quizID == quizID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (s *AttemptStore) filter(match func(pairKey) bool) []domain.Attempt {
	s.mu.RLock()
	var out []domain.Attempt
	for k, a := range s.attempts {
		if match(k) {
			out = append(out, a)
		}
	}
	s.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].CompletedAt.Equal(out[j].CompletedAt) {
			return out[i].CompletedAt.After(out[j].CompletedAt)
		}
		return out[i].ID < out[j].ID
	})
	return out
}
