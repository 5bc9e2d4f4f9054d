package app_test

import (
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"

	"quiz-ledger-service/internal/app"
	"quiz-ledger-service/internal/domain"
	"quiz-ledger-service/internal/infra/memory"
)

type fixture struct {
	quizStore   *memory.QuizStore
	attempts    *memory.AttemptStore
	users       *memory.UserDirectory
	quizzes     *app.QuizService
	ledger      *app.Ledger
	leaderboard *app.LeaderboardService
	log         *logtest.Hook
}

func newFixture(seed ...domain.Quiz) *fixture {
	logger, hook := logtest.NewNullLogger()
	logger.SetLevel(logrus.DebugLevel)

	quizStore := memory.NewQuizStore(seed...)
	repo := memory.NewQuizRepository(quizStore, time.Minute)
	attempts := memory.NewAttemptStore()
	users := memory.NewUserDirectory()
	leaderboard := app.NewLeaderboardService(attempts, users, memory.NewFeedStore(), logger)

	clock := newStepClock(time.Date(2024, 3, 1, 9, 0, 0, 0, time.UTC))
	return &fixture{
		quizStore:   quizStore,
		attempts:    attempts,
		users:       users,
		quizzes:     app.NewQuizService(quizStore, repo, attempts, logger),
		ledger:      app.NewLedgerWithClock(attempts, repo, leaderboard, logger, clock),
		leaderboard: leaderboard,
		log:         hook,
	}
}

// newStepClock returns a clock that advances one second per call.
func newStepClock(start time.Time) func() time.Time {
	var mu sync.Mutex
	current := start
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		current = current.Add(time.Second)
		return current
	}
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "General knowledge",
		Duration:  10,
		IsActive:  true,
		CreatedAt: time.Date(2024, 2, 1, 0, 0, 0, 0, time.UTC),
		Questions: threeQuestions(),
	}
}

var (
	teacher = domain.Principal{UserID: "t1", Role: domain.RoleTeacher}
	student = domain.Principal{UserID: "s1", Role: domain.RoleStudent}
)

func newNullLogger() (*logrus.Logger, *logtest.Hook) {
	return logtest.NewNullLogger()
}
