package app

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"quiz-ledger-service/internal/domain"
	"quiz-ledger-service/internal/importer"
	"quiz-ledger-service/internal/validation"
)

// QuizStore persists quiz documents.
type QuizStore interface {
	CreateQuiz(ctx context.Context, quiz domain.Quiz) error
	ReplaceQuiz(ctx context.Context, quiz domain.Quiz) error
	DeleteQuiz(ctx context.Context, quizID string) error
	LatestQuiz(ctx context.Context) (domain.Quiz, error)
	ListQuizzes(ctx context.Context) ([]domain.Quiz, error)
	QuizzesByID(ctx context.Context, ids []string) ([]domain.Quiz, error)
}

// QuizRepository loads quiz content (from cache/backing store).
type QuizRepository interface {
	GetQuiz(ctx context.Context, quizID string) (domain.Quiz, error)
	Invalidate(ctx context.Context, quizID string)
}

// QuizService contains the quiz authoring and browsing use cases.
type QuizService struct {
	store    QuizStore
	quizzes  QuizRepository
	attempts AttemptStore
	log      logrus.FieldLogger
	now      func() time.Time
}

func NewQuizService(store QuizStore, quizzes QuizRepository, attempts AttemptStore, log logrus.FieldLogger) *QuizService {
	return &QuizService{
		store:    store,
		quizzes:  quizzes,
		attempts: attempts,
		log:      log,
		now:      time.Now,
	}
}

// Create validates a manually authored quiz and stores it.
func (s *QuizService) Create(ctx context.Context, author domain.Principal, draft domain.QuizDraft) (domain.Quiz, error) {
	draft = validation.Normalize(draft)
	if err := validation.Quiz(draft); err != nil {
		return domain.Quiz{}, err
	}

	now := s.now().UTC()
	quiz := domain.Quiz{
		ID:          uuid.NewString(),
		Title:       draft.Title,
		Description: draft.Description,
		Questions:   assignQuestionIDs(draft.Questions),
		Duration:    draft.Duration,
		CreatedBy:   author.UserID,
		IsActive:    true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	if err := s.store.CreateQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.log.WithFields(logrus.Fields{"quiz_id": quiz.ID, "questions": len(quiz.Questions)}).Info("quiz created")
	return quiz, nil
}

// Import parses an uploaded file and creates a quiz from it. Nothing is stored
// unless every question in the file is valid.
func (s *QuizService) Import(ctx context.Context, author domain.Principal, filename string, data []byte, meta domain.QuizDraft) (domain.Quiz, error) {
	if meta.Title == "" || meta.Duration == 0 {
		return domain.Quiz{}, domain.Invalid("title and duration are required")
	}

	questions, err := importer.Load(data, importer.ExtensionOf(filename))
	if err != nil {
		s.log.WithError(err).WithField("file", filename).Warn("quiz import rejected")
		return domain.Quiz{}, &domain.ValidationError{Reason: "Error processing file: " + err.Error(), Err: err}
	}

	meta.Questions = questions
	return s.Create(ctx, author, meta)
}

// Update replaces a quiz's metadata and questions.
func (s *QuizService) Update(ctx context.Context, quizID string, draft domain.QuizDraft) (domain.Quiz, error) {
	draft = validation.Normalize(draft)
	if err := validation.Quiz(draft); err != nil {
		return domain.Quiz{}, err
	}

	current, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}
	current.Title = draft.Title
	current.Description = draft.Description
	current.Duration = draft.Duration
	current.Questions = assignQuestionIDs(draft.Questions)
	return s.replace(ctx, current)
}

// Delete removes a quiz. Attempts and scores already recorded are kept.
func (s *QuizService) Delete(ctx context.Context, quizID string) error {
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.quizzes.Invalidate(ctx, quizID)
	s.log.WithField("quiz_id", quizID).Info("quiz deleted")
	return nil
}

// DeleteQuestion removes one question and keeps the order of the rest.
// The last question of a quiz cannot be removed.
func (s *QuizService) DeleteQuestion(ctx context.Context, quizID, questionID string) (domain.Quiz, error) {
	quiz, err := s.quizzes.GetQuiz(ctx, quizID)
	if err != nil {
		return domain.Quiz{}, err
	}

	kept := make([]domain.Question, 0, len(quiz.Questions))
	for _, q := range quiz.Questions {
		if q.ID != questionID {
			kept = append(kept, q)
		}
	}
	if len(kept) == len(quiz.Questions) {
		return domain.Quiz{}, domain.ErrQuestionNotFound
	}
	if err := validation.Questions(kept); err != nil {
		return domain.Quiz{}, err
	}
	quiz.Questions = kept
	return s.replace(ctx, quiz)
}

// Get returns a single quiz.
func (s *QuizService) Get(ctx context.Context, quizID string) (domain.Quiz, error) {
	return s.quizzes.GetQuiz(ctx, quizID)
}

// Latest returns the most recently created quiz.
func (s *QuizService) Latest(ctx context.Context) (domain.Quiz, error) {
	return s.store.LatestQuiz(ctx)
}

// ListFor returns every quiz to roles that may list them all; everyone else
// sees the latest quiz plus the quizzes they already completed.
func (s *QuizService) ListFor(ctx context.Context, caller domain.Principal) ([]domain.Quiz, error) {
	if caller.Role.Can(domain.CapListAllQuizzes) {
		return s.store.ListQuizzes(ctx)
	}

	var quizzes []domain.Quiz
	seen := make(map[string]bool)
	latest, err := s.store.LatestQuiz(ctx)
	switch {
	case err == nil:
		quizzes = append(quizzes, latest)
		seen[latest.ID] = true
	case !errors.Is(err, domain.ErrQuizNotFound):
		return nil, err
	}

	attempts, err := s.attempts.ListAttemptsByStudent(ctx, caller.UserID)
	if err != nil {
		return nil, err
	}
	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		if !seen[a.QuizID] {
			ids = append(ids, a.QuizID)
			seen[a.QuizID] = true
		}
	}
	if len(ids) == 0 {
		return quizzes, nil
	}
	completed, err := s.store.QuizzesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	return append(quizzes, completed...), nil
}

// CompletedQuizzes lists a student's attempts, newest first, each with its quiz.
// Attempts whose quiz no longer exists are skipped.
func (s *QuizService) CompletedQuizzes(ctx context.Context, studentID string) ([]domain.CompletedQuiz, error) {
	attempts, err := s.attempts.ListAttemptsByStudent(ctx, studentID)
	if err != nil {
		return nil, err
	}
	if len(attempts) == 0 {
		return nil, domain.ErrNoCompletedQuizzes
	}

	ids := make([]string, 0, len(attempts))
	for _, a := range attempts {
		ids = append(ids, a.QuizID)
	}
	quizzes, err := s.store.QuizzesByID(ctx, ids)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]domain.Quiz, len(quizzes))
	for _, q := range quizzes {
		byID[q.ID] = q
	}

	completed := make([]domain.CompletedQuiz, 0, len(attempts))
	for _, a := range attempts {
		if quiz, ok := byID[a.QuizID]; ok {
			completed = append(completed, domain.CompletedQuiz{Attempt: a, Quiz: quiz})
		}
	}
	return completed, nil
}

func (s *QuizService) replace(ctx context.Context, quiz domain.Quiz) (domain.Quiz, error) {
	quiz.UpdatedAt = s.now().UTC()
	if err := s.store.ReplaceQuiz(ctx, quiz); err != nil {
		return domain.Quiz{}, err
	}
	s.quizzes.Invalidate(ctx, quiz.ID)
	return quiz, nil
}

// assignQuestionIDs keeps caller-supplied question IDs and fills in missing or repeated ones.
func assignQuestionIDs(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	seen := make(map[string]bool, len(questions))
	for i, q := range questions {
		if q.ID == "" || seen[q.ID] {
			q.ID = uuid.NewString()
		}
		seen[q.ID] = true
		out[i] = q
	}
	return out
}
