package redis

import (
	"context"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"

	"quiz-ledger-service/internal/app"
	"quiz-ledger-service/internal/domain"
)

// FeedStore is a Redis-aware implementation of app.FeedRepository.
// Feeds live in process so broadcasting stays local; Redis only carries a
// liveness marker per quiz that other instances and operators can inspect.
type FeedStore struct {
	client *redis.Client
	ttl    time.Duration
	mu     sync.RWMutex
	feeds  map[string]*app.Feed
}

func NewFeedStore(client *redis.Client, ttl time.Duration) *FeedStore {
	return &FeedStore{
		client: client,
		ttl:    ttl,
		feeds:  make(map[string]*app.Feed),
	}
}

func (s *FeedStore) Subscribe(quizID string, initial domain.Leaderboard) (<-chan domain.Leaderboard, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()
	feed, ok := s.feeds[quizID]
	if !ok {
		feed = app.NewFeed(quizID)
		s.feeds[quizID] = feed
		// best-effort liveness marker
		_ = s.client.Set(context.Background(), s.key(quizID), "1", s.ttl).Err()
	}
	ch, unsubscribe := feed.Subscribe(initial)

	cancel := func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		unsubscribe()
		if s.feeds[quizID] == feed && feed.IsEmpty() {
			delete(s.feeds, quizID)
			_ = s.client.Del(context.Background(), s.key(quizID)).Err()
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

func (s *FeedStore) key(quizID string) string {
	return "quiz:feed:" + quizID
}
