package memory

import (
	"context"
	"sync"

	"quiz-ledger-service/internal/domain"
)

// UserDirectory is a map-backed app.UserDirectory.
type UserDirectory struct {
	mu       sync.RWMutex
	profiles map[string]domain.StudentProfile
}

func NewUserDirectory(profiles ...domain.StudentProfile) *UserDirectory {
	d := &UserDirectory{profiles: make(map[string]domain.StudentProfile, len(profiles))}
	for _, p := range profiles {
		d.profiles[p.ID] = p
	}
	return d
}

func (d *UserDirectory) Put(p domain.StudentProfile) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.profiles[p.ID] = p
}

func (d *UserDirectory) Profiles(_ context.Context, userIDs []string) (map[string]domain.StudentProfile, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	out := make(map[string]domain.StudentProfile, len(userIDs))
	for _, id := range userIDs {
		if p, ok := d.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}
