package app

import (
	"context"
	"sort"
	"time"

	"github.com/sirupsen/logrus"

	"quiz-ledger-service/internal/domain"
)

// ScoreReader lists the score records of a quiz.
type ScoreReader interface {
	ListScores(ctx context.Context, quizID string) ([]domain.ScoreRecord, error)
}

// UserDirectory resolves student profiles. Unknown IDs are absent from the result.
type UserDirectory interface {
	Profiles(ctx context.Context, userIDs []string) (map[string]domain.StudentProfile, error)
}

// FeedRepository abstracts where live leaderboard feeds are kept (in-memory, Redis, etc).
//
// Subscribe finds or creates the quiz's feed and attaches the subscriber as one
// step; its cancel detaches and drops the feed once nobody listens. Both hold
// the registry lock, so a feed is never dropped while it has a subscriber.
type FeedRepository interface {
	Subscribe(quizID string, initial domain.Leaderboard) (<-chan domain.Leaderboard, func())
	Get(quizID string) (*Feed, bool)
}

// LeaderboardService ranks score records and pushes fresh rankings to live feeds.
type LeaderboardService struct {
	scores ScoreReader
	users  UserDirectory
	feeds  FeedRepository
	log    logrus.FieldLogger
	now    func() time.Time
}

func NewLeaderboardService(scores ScoreReader, users UserDirectory, feeds FeedRepository, log logrus.FieldLogger) *LeaderboardService {
	return &LeaderboardService{
		scores: scores,
		users:  users,
		feeds:  feeds,
		log:    log,
		now:    time.Now,
	}
}

// Standings returns the quiz's score records joined with student profiles,
// ranked by score descending, then earliest submission, then student ID.
func (s *LeaderboardService) Standings(ctx context.Context, quizID string) (domain.Leaderboard, error) {
	records, err := s.scores.ListScores(ctx, quizID)
	if err != nil {
		return domain.Leaderboard{}, err
	}
	SortScores(records)

	ids := make([]string, 0, len(records))
	for _, r := range records {
		ids = append(ids, r.StudentID)
	}
	profiles := map[string]domain.StudentProfile{}
	if len(ids) > 0 {
		if profiles, err = s.users.Profiles(ctx, ids); err != nil {
			return domain.Leaderboard{}, err
		}
	}

	entries := make([]domain.Standing, len(records))
	for i, r := range records {
		entries[i] = domain.Standing{ScoreRecord: r}
		if p, ok := profiles[r.StudentID]; ok {
			entries[i].Student = &p
		}
	}
	return domain.Leaderboard{QuizID: quizID, Entries: entries, UpdatedAt: s.now().UTC()}, nil
}

// Subscribe returns a channel that receives the current standings followed by
// every later update. The caller must invoke the returned cancel function to avoid leaks.
func (s *LeaderboardService) Subscribe(ctx context.Context, quizID string) (<-chan domain.Leaderboard, func(), error) {
	initial, err := s.Standings(ctx, quizID)
	if err != nil {
		return nil, nil, err
	}
	ch, cancel := s.feeds.Subscribe(quizID, initial)
	return ch, cancel, nil
}

// Publish recomputes standings and broadcasts them when anyone is listening.
func (s *LeaderboardService) Publish(ctx context.Context, quizID string) {
	feed, ok := s.feeds.Get(quizID)
	if !ok || feed.IsEmpty() {
		return
	}
	lb, err := s.Standings(ctx, quizID)
	if err != nil {
		s.log.WithError(err).WithField("quiz_id", quizID).Warn("leaderboard broadcast skipped")
		return
	}
	feed.broadcast(lb)
}

// SortScores orders records by score descending; ties go to the earlier
// submission and then the lower student ID so the order is total.
func SortScores(records []domain.ScoreRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		a, b := records[i], records[j]
		if a.Score != b.Score {
			return a.Score > b.Score
		}
		if !a.CreatedAt.Equal(b.CreatedAt) {
			return a.CreatedAt.Before(b.CreatedAt)
		}
		return a.StudentID < b.StudentID
	})
}
