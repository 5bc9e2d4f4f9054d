package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-ledger-service/internal/domain"
)

// ScoreReader lists score records for leaderboards.
type ScoreReader struct {
	pool *pgxpool.Pool
}

func NewScoreReader(pool *pgxpool.Pool) *ScoreReader {
	return &ScoreReader{pool: pool}
}

func (r *ScoreReader) ListScores(ctx context.Context, quizID string) ([]domain.ScoreRecord, error) {
	rows, err := r.pool.Query(ctx, `
		SELECT quiz_id, student_id, score, total_questions, percentage, created_at
		FROM scores WHERE quiz_id=$1
		ORDER BY score DESC, created_at ASC, student_id ASC`, quizID)
	if err != nil {
		return nil, fmt.Errorf("list scores: %w", err)
	}
	defer rows.Close()

	var records []domain.ScoreRecord
	for rows.Next() {
		var s domain.ScoreRecord
		if err := rows.Scan(&s.QuizID, &s.StudentID, &s.Score, &s.TotalQuestions, &s.Percentage, &s.CreatedAt); err != nil {
			return nil, fmt.Errorf("scan score: %w", err)
		}
		records = append(records, s)
	}
	return records, rows.Err()
}
