package memory

import (
	"sync"

	"quiz-ledger-service/internal/app"
	"quiz-ledger-service/internal/domain"
)

// FeedStore is an in-memory implementation of app.FeedRepository.
type FeedStore struct {
	mu    sync.RWMutex
	feeds map[string]*app.Feed
}

func NewFeedStore() *FeedStore {
	return &FeedStore{
		feeds: make(map[string]*app.Feed),
	}
}

func (s *FeedStore) Subscribe(quizID string, initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[quizID]
	if !ok {
		feed = app.NewFeed(quizID)
		s.feeds[quizID] = feed
	}
	ch, unsubscribe := feed.Subscribe(initial)

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsubscribe()
		if s.feeds[quizID] == feed && feed.IsEmpty() {
			delete(s.feeds, quizID)
		}
	}
	return ch, cancel
}

func (s *FeedStore) Get(quizID string) (*app.Feed, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	feed, ok := s.feeds[quizID]
	return feed, ok
}
