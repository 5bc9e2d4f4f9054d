package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v4/pgxpool"

	"quiz-ledger-service/internal/domain"
)

// UserDirectory reads student profiles owned by the account system.
type UserDirectory struct {
	pool *pgxpool.Pool
}

func NewUserDirectory(pool *pgxpool.Pool) *UserDirectory {
	return &UserDirectory{pool: pool}
}

func (d *UserDirectory) Profiles(ctx context.Context, userIDs []string) (map[string]domain.StudentProfile, error) {
	rows, err := d.pool.Query(ctx, `SELECT id, full_name, email, avatar_url FROM users WHERE id = ANY($1)`, userIDs)
	if err != nil {
		return nil, fmt.Errorf("load profiles: %w", err)
	}
	defer rows.Close()

	profiles := make(map[string]domain.StudentProfile, len(userIDs))
	for rows.Next() {
		var p domain.StudentProfile
		if err := rows.Scan(&p.ID, &p.FullName, &p.Email, &p.AvatarURL); err != nil {
			return nil, fmt.Errorf("scan profile: %w", err)
		}
		profiles[p.ID] = p
	}
	return profiles, rows.Err()
}
