package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/driver/pgdriver"

	"quiz-ledger-service/internal/domain"
)

const uniqueViolation = "23505"

// AttemptStore keeps attempts and score records. The attempts table carries
// UNIQUE(student_id, quiz_id); that constraint, not a read-then-write check,
// is what makes a second submission fail.
type AttemptStore struct {
	db *bun.DB
}

func NewAttemptStore(db *bun.DB) *AttemptStore {
	return &AttemptStore{db: db}
}

func (s *AttemptStore) FindAttempt(ctx context.Context, studentID, quizID string) (domain.Attempt, error) {
	var row attemptRow
	err := s.db.NewSelect().
		Model(&row).
		Where("student_id = ?", studentID).
		Where("quiz_id = ?", quizID).
		Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Attempt{}, domain.ErrAttemptNotFound
	}
	if err != nil {
		return domain.Attempt{}, fmt.Errorf("find attempt: %w", err)
	}
	return row.toDomain(), nil
}

// RecordAttempt inserts the attempt and its score record in one transaction.
func (s *AttemptStore) RecordAttempt(ctx context.Context, attempt domain.Attempt) error {
	return s.db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
		if _, err := tx.NewInsert().Model(newAttemptRow(attempt)).Exec(ctx); err != nil {
			if isUniqueViolation(err) {
				return domain.ErrDuplicateAttempt
			}
			return fmt.Errorf("insert attempt: %w", err)
		}
		if _, err := tx.NewInsert().Model(newScoreRow(domain.ScoreRecordFor(attempt))).Exec(ctx); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrScorePersistence, err)
		}
		return nil
	})
}

func (s *AttemptStore) ListAttemptsByStudent(ctx context.Context, studentID string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, "student_id = ?", studentID)
}

func (s *AttemptStore) ListAttemptsByQuiz(ctx context.Context, quizID string) ([]domain.Attempt, error) {
	return s.listAttempts(ctx, "quiz_id = ?", quizID)
}

func (s *AttemptStore) listAttempts(ctx context.Context, where string, arg string) ([]domain.Attempt, error) {
	var rows []attemptRow
	if err := s.db.NewSelect().Model(&rows).Where(where, arg).OrderExpr("completed_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	out := make([]domain.Attempt, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out, nil
}

// SaveScore inserts a score record unless one exists for the same (quiz, student).
func (s *AttemptStore) SaveScore(ctx context.Context, record domain.ScoreRecord) (bool, error) {
	res, err := s.db.NewInsert().
		Model(newScoreRow(record)).
		On("CONFLICT (quiz_id, student_id) DO NOTHING").
		Exec(ctx)
	if err != nil {
		return false, fmt.Errorf("%w: %v", domain.ErrScorePersistence, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func isUniqueViolation(err error) bool {
	var pgErr pgdriver.Error
	return errors.As(err, &pgErr) && pgErr.Field('C') == uniqueViolation
}
