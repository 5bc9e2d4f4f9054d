package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/uptrace/bun"

	"quiz-ledger-service/internal/domain"
)

// QuizStore writes and lists quiz documents through bun.
type QuizStore struct {
	db *bun.DB
}

func NewQuizStore(db *bun.DB) *QuizStore {
	return &QuizStore{db: db}
}

func (s *QuizStore) CreateQuiz(ctx context.Context, quiz domain.Quiz) error {
	if _, err := s.db.NewInsert().Model(newQuizRow(quiz)).Exec(ctx); err != nil {
		return fmt.Errorf("insert quiz: %w", err)
	}
	return nil
}

func (s *QuizStore) ReplaceQuiz(ctx context.Context, quiz domain.Quiz) error {
	res, err := s.db.NewUpdate().
		Model(newQuizRow(quiz)).
		Column("title", "description", "duration", "is_active", "questions", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("update quiz: %w", err)
	}
	return requireRow(res, domain.ErrQuizNotFound)
}

func (s *QuizStore) DeleteQuiz(ctx context.Context, quizID string) error {
	res, err := s.db.NewDelete().
		Model((*quizRow)(nil)).
		Where("id = ?", quizID).
		Exec(ctx)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	return requireRow(res, domain.ErrQuizNotFound)
}

func (s *QuizStore) LatestQuiz(ctx context.Context) (domain.Quiz, error) {
	var row quizRow
	err := s.db.NewSelect().Model(&row).OrderExpr("created_at DESC").Limit(1).Scan(ctx)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.Quiz{}, domain.ErrQuizNotFound
	}
	if err != nil {
		return domain.Quiz{}, fmt.Errorf("latest quiz: %w", err)
	}
	return row.toDomain(), nil
}

func (s *QuizStore) ListQuizzes(ctx context.Context) ([]domain.Quiz, error) {
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).OrderExpr("created_at DESC").Scan(ctx); err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	return quizzesOf(rows), nil
}

// QuizzesByID returns the quizzes in the order of ids; unknown IDs are skipped.
func (s *QuizStore) QuizzesByID(ctx context.Context, ids []string) ([]domain.Quiz, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	var rows []quizRow
	if err := s.db.NewSelect().Model(&rows).Where("id IN (?)", bun.In(ids)).Scan(ctx); err != nil {
		return nil, fmt.Errorf("quizzes by id: %w", err)
	}
	byID := make(map[string]quizRow, len(rows))
	for _, r := range rows {
		byID[r.ID] = r
	}
	out := make([]domain.Quiz, 0, len(rows))
	for _, id := range ids {
		if r, ok := byID[id]; ok {
			out = append(out, r.toDomain())
			delete(byID, id)
		}
	}
	return out, nil
}

func quizzesOf(rows []quizRow) []domain.Quiz {
	out := make([]domain.Quiz, len(rows))
	for i, r := range rows {
		out[i] = r.toDomain()
	}
	return out
}

func requireRow(res sql.Result, notFound error) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return notFound
	}
	return nil
}
