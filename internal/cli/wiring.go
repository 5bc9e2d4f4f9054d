package cli

import (
	"context"
	"time"

	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/uptrace/bun"

	"quiz-ledger-service/internal/app"
	"quiz-ledger-service/internal/config"
	"quiz-ledger-service/internal/infra/memory"
	"quiz-ledger-service/internal/infra/postgres"
	redisinfra "quiz-ledger-service/internal/infra/redis"
)

// services is the assembled application plus the resources to release on exit.
type services struct {
	quizzes     *app.QuizService
	ledger      *app.Ledger
	leaderboard *app.LeaderboardService
	closers     []func()
}

func (s *services) Close() {
	for i := len(s.closers) - 1; i >= 0; i-- {
		s.closers[i]()
	}
}

type stores struct {
	quizStore app.QuizStore
	loader    memory.QuizLoader
	attempts  app.AttemptStore
	scores    app.ScoreReader
	users     app.UserDirectory
}

// buildServices wires Postgres and Redis when configured and falls back to in-memory stores otherwise.
func buildServices(ctx context.Context, cfg config.Config, log logrus.FieldLogger) (*services, error) {
	svc := &services{}
	var st stores

	if cfg.Postgres.URL != "" {
		db := openBun(cfg.Postgres.URL)
		svc.closers = append(svc.closers, func() { _ = db.Close() })
		if err := migrateDB(ctx, db, log); err != nil {
			svc.Close()
			return nil, err
		}
		pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
		if err != nil {
			svc.Close()
			return nil, err
		}
		svc.closers = append(svc.closers, pool.Close)
		st = postgresStores(db, pool)
		log.Info("using postgres storage")
	} else {
		st = memoryStores()
		log.Warn("postgres url not configured, using in-memory storage")
	}

	quizTTL := config.TTLDuration(cfg.Quiz.TTL, 10*time.Minute)
	var quizRepo app.QuizRepository
	var feeds app.FeedRepository
	if cfg.Redis.Addr != "" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		svc.closers = append(svc.closers, func() { _ = client.Close() })
		quizRepo = redisinfra.NewQuizRepository(client, st.loader, quizTTL, log)
		feeds = redisinfra.NewFeedStore(client, config.TTLDuration(cfg.Redis.TTL, 10*time.Minute))
	} else {
		quizRepo = memory.NewQuizRepository(st.loader, quizTTL)
		feeds = memory.NewFeedStore()
	}

	svc.leaderboard = app.NewLeaderboardService(st.scores, st.users, feeds, log)
	svc.ledger = app.NewLedger(st.attempts, quizRepo, svc.leaderboard, log)
	svc.quizzes = app.NewQuizService(st.quizStore, quizRepo, st.attempts, log)
	return svc, nil
}

func postgresStores(db *bun.DB, pool *pgxpool.Pool) stores {
	return stores{
		quizStore: postgres.NewQuizStore(db),
		loader:    postgres.NewQuizLoader(pool),
		attempts:  postgres.NewAttemptStore(db),
		scores:    postgres.NewScoreReader(pool),
		users:     postgres.NewUserDirectory(pool),
	}
}

func memoryStores() stores {
	quizStore := memory.NewQuizStore()
	attempts := memory.NewAttemptStore()
	return stores{
		quizStore: quizStore,
		loader:    quizStore,
		attempts:  attempts,
		scores:    attempts,
		users:     memory.NewUserDirectory(),
	}
}
