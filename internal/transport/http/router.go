package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/sirupsen/logrus"

	"quiz-ledger-service/internal/domain"
)

// RouterConfig carries everything the HTTP surface needs.
type RouterConfig struct {
	Quiz        *QuizHandler
	Live        *LiveHandler
	Auth        *Authenticator
	Log         logrus.FieldLogger
	CORSOrigins []string
}

// corsOptions allows any origin without credentials when no origins are
// configured. Credentials are only allowed for an explicit origin list.
func corsOptions(origins []string) cors.Options {
	opts := cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type"},
		ExposedHeaders: []string{"Content-Disposition"},
		MaxAge:         300,
	}
	if len(origins) == 0 {
		return opts
	}
	opts.AllowedOrigins = origins
	opts.AllowCredentials = true
	for _, o := range origins {
		if o == "*" {
			opts.AllowCredentials = false
			break
		}
	}
	return opts
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(requestLogger(cfg.Log))
	r.Use(middleware.Recoverer)

	r.Use(cors.Handler(corsOptions(cfg.CORSOrigins)))

	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte("ok"))
	})

	h := cfg.Quiz
	can := func(c domain.Capability) func(http.Handler) http.Handler {
		return RequireCapability(c, cfg.Log)
	}

	r.Route("/quiz", func(r chi.Router) {
		r.Get("/latest", h.LatestQuiz)

		r.Group(func(r chi.Router) {
			r.Use(cfg.Auth.Middleware)

			r.Get("/getall", h.ListQuizzes)
			r.Get("/template/{format}", h.DownloadTemplate)
			r.Get("/completed-quizzes/{studentId}", h.CompletedQuizzes)

			r.Group(func(r chi.Router) {
				r.Use(can(domain.CapAuthorQuiz))
				r.Post("/add", h.AddQuiz)
				r.Post("/upload", h.UploadQuiz)
				r.Put("/update/{id}", h.UpdateQuiz)
				r.Delete("/delete/{id}", h.DeleteQuiz)
				r.Delete("/delete/{quizId}/question/{questionId}", h.DeleteQuestion)
			})

			r.With(can(domain.CapTakeQuiz)).Post("/submit/{quizId}", h.SubmitQuiz)
			r.With(can(domain.CapViewLeaderboard)).Get("/leaderboard/{quizId}", h.Leaderboard)
			r.With(can(domain.CapViewLeaderboard)).Get("/leaderboard/{quizId}/live", cfg.Live.ServeLive)
			r.With(can(domain.CapViewResults)).Get("/results/{quizId}/{format}", h.DownloadResults)
		})

		r.Get("/{id}", h.GetQuiz)
	})
	return r
}

func requestLogger(log logrus.FieldLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()
			next.ServeHTTP(ww, r)
			log.WithFields(logrus.Fields{
				"request_id": middleware.GetReqID(r.Context()),
				"method":     r.Method,
				"path":       r.URL.Path,
				"status":     ww.Status(),
				"duration":   time.Since(start).String(),
			}).Debug("request served")
		})
	}
}
