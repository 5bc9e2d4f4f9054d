package app

import (
	"sync"

	"quiz-ledger-service/internal/domain"
)

// Feed fans leaderboard snapshots for one quiz out to live subscribers.
type Feed struct {
	quizID      string
	mu          sync.Mutex
	subscribers map[chan domain.Leaderboard]struct{}
}

// NewFeed is exported for infrastructure layers that keep feed registries.
func NewFeed(quizID string) *Feed {
	return &Feed{
		quizID:      quizID,
		subscribers: make(map[chan domain.Leaderboard]struct{}),
	}
}

// IsEmpty reports whether the feed has no subscribers.
func (f *Feed) IsEmpty() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.subscribers) == 0
}

// Subscribe registers a subscriber that first receives initial. The returned
// cancel closes the channel and may be called more than once.
func (f *Feed) Subscribe(initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	ch := make(chan domain.Leaderboard, 8)
	ch <- initial

	f.mu.Lock()
	f.subscribers[ch] = struct{}{}
	f.mu.Unlock()

	cancel := func() {
		f.mu.Lock()
		if _, ok := f.subscribers[ch]; ok {
			delete(f.subscribers, ch)
			close(ch)
		}
		f.mu.Unlock()
	}
	return ch, cancel
}

func (f *Feed) broadcast(lb domain.Leaderboard) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for ch := range f.subscribers {
		select {
		case ch <- lb:
		default:
			// Slow subscriber: drop its oldest snapshot so the newest always lands.
			select {
			case <-ch:
			default:
			}
			ch <- lb
		}
	}
}
