package http

import (
	"encoding/json"
	"io"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/sirupsen/logrus"

	"quiz-ledger-service/internal/app"
	"quiz-ledger-service/internal/domain"
	"quiz-ledger-service/internal/export"
)

// formOverhead is the extra request body allowed on uploads beyond the file limit.
const formOverhead = 1 << 20

// QuizHandler serves the quiz REST surface.
type QuizHandler struct {
	quizzes     *app.QuizService
	ledger      *app.Ledger
	leaderboard *app.LeaderboardService
	log         logrus.FieldLogger
	uploadLimit int64
	now         func() time.Time
}

func NewQuizHandler(quizzes *app.QuizService, ledger *app.Ledger, leaderboard *app.LeaderboardService, log logrus.FieldLogger, uploadLimit int64) *QuizHandler {
	return &QuizHandler{
		quizzes:     quizzes,
		ledger:      ledger,
		leaderboard: leaderboard,
		log:         log,
		uploadLimit: uploadLimit,
		now:         time.Now,
	}
}

func (h *QuizHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	writeError(w, r, h.log, err)
}

// decode reads a JSON body; decoding problems are the caller's fault.
func decode(r *http.Request, dst any) error {
	if err := json.NewDecoder(r.Body).Decode(dst); err != nil {
		return domain.Invalid("invalid request body: %v", err)
	}
	return nil
}

func (h *QuizHandler) AddQuiz(w http.ResponseWriter, r *http.Request) {
	caller, err := principalFrom(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var draft domain.QuizDraft
	if err := decode(r, &draft); err != nil {
		h.fail(w, r, err)
		return
	}
	quiz, err := h.quizzes.Create(r.Context(), caller, draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, ok("Quiz added successfully!", "quiz", quiz))
}

func (h *QuizHandler) UploadQuiz(w http.ResponseWriter, r *http.Request) {
	caller, err := principalFrom(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}

	// The limit applies to the file; the body cap leaves room for the
	// multipart framing and the metadata fields.
	r.Body = http.MaxBytesReader(w, r.Body, h.uploadLimit+formOverhead)
	if err := r.ParseMultipartForm(h.uploadLimit); err != nil {
		h.fail(w, r, domain.Invalid("upload rejected: file too large or malformed form (limit %d bytes)", h.uploadLimit))
		return
	}
	defer func() {
		if r.MultipartForm != nil {
			_ = r.MultipartForm.RemoveAll()
		}
	}()

	file, header, err := r.FormFile("file")
	if err != nil {
		h.fail(w, r, domain.Invalid("Please upload a file"))
		return
	}
	defer file.Close()
	if header.Size > h.uploadLimit {
		h.fail(w, r, domain.Invalid("upload rejected: file is %d bytes, limit is %d bytes", header.Size, h.uploadLimit))
		return
	}
	data, err := io.ReadAll(file)
	if err != nil {
		h.fail(w, r, domain.Invalid("could not read uploaded file"))
		return
	}

	duration, _ := strconv.Atoi(strings.TrimSpace(r.FormValue("duration")))
	meta := domain.QuizDraft{
		Title:       strings.TrimSpace(r.FormValue("title")),
		Description: r.FormValue("description"),
		Duration:    duration,
	}
	quiz, err := h.quizzes.Import(r.Context(), caller, header.Filename, data, meta)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	msg := "Quiz added successfully from file! Processed " + strconv.Itoa(len(quiz.Questions)) + " questions."
	writeJSON(w, http.StatusCreated, ok(msg, "quiz", quiz))
}

func (h *QuizHandler) UpdateQuiz(w http.ResponseWriter, r *http.Request) {
	var draft domain.QuizDraft
	if err := decode(r, &draft); err != nil {
		h.fail(w, r, err)
		return
	}
	quiz, err := h.quizzes.Update(r.Context(), chi.URLParam(r, "id"), draft)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok("Quiz updated successfully!", "quiz", quiz))
}

func (h *QuizHandler) DeleteQuiz(w http.ResponseWriter, r *http.Request) {
	if err := h.quizzes.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok("Quiz deleted successfully!", "", nil))
}

func (h *QuizHandler) DeleteQuestion(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.DeleteQuestion(r.Context(), chi.URLParam(r, "quizId"), chi.URLParam(r, "questionId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok("Question deleted successfully!", "quiz", quiz))
}

func (h *QuizHandler) GetQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok("", "quiz", quiz))
}

func (h *QuizHandler) LatestQuiz(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.Latest(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok("", "quiz", quiz))
}

func (h *QuizHandler) ListQuizzes(w http.ResponseWriter, r *http.Request) {
	caller, err := principalFrom(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	quizzes, err := h.quizzes.ListFor(r.Context(), caller)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	writeJSON(w, http.StatusOK, ok("", "quizzes", quizzes))
}

type submission struct {
	Answers []domain.Answer `json:"answers"`
}

func (h *QuizHandler) SubmitQuiz(w http.ResponseWriter, r *http.Request) {
	caller, err := principalFrom(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	var body submission
	if err := decode(r, &body); err != nil {
		h.fail(w, r, err)
		return
	}
	attempt, err := h.ledger.Submit(r.Context(), caller.UserID, chi.URLParam(r, "quizId"), body.Answers)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok("Quiz submitted", "result", attempt))
}

func (h *QuizHandler) Leaderboard(w http.ResponseWriter, r *http.Request) {
	lb, err := h.leaderboard.Standings(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok("", "leaderboard", lb.Entries))
}

// CompletedQuizzes lets students read their own history; results viewers may read anyone's.
func (h *QuizHandler) CompletedQuizzes(w http.ResponseWriter, r *http.Request) {
	caller, err := principalFrom(r.Context())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	studentID := chi.URLParam(r, "studentId")
	if studentID != caller.UserID && !caller.Role.Can(domain.CapViewResults) {
		h.fail(w, r, domain.ErrForbidden)
		return
	}
	completed, err := h.quizzes.CompletedQuizzes(r.Context(), studentID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ok("", "completedQuizzes", completed))
}

func (h *QuizHandler) DownloadResults(w http.ResponseWriter, r *http.Request) {
	quiz, err := h.quizzes.Get(r.Context(), chi.URLParam(r, "quizId"))
	if err != nil {
		h.fail(w, r, err)
		return
	}
	if chi.URLParam(r, "format") != "csv" {
		h.fail(w, r, domain.Invalid("CSV format is currently supported"))
		return
	}
	lb, err := h.leaderboard.Standings(r.Context(), quiz.ID)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", "attachment; filename="+export.ResultsFilename(quiz.Title, h.now()))
	if err := export.ResultsCSV(w, lb.Entries); err != nil {
		h.log.WithError(err).WithField("quiz_id", quiz.ID).Error("results export interrupted")
	}
}

func (h *QuizHandler) DownloadTemplate(w http.ResponseWriter, r *http.Request) {
	switch chi.URLParam(r, "format") {
	case "csv":
		w.Header().Set("Content-Type", "text/csv")
		w.Header().Set("Content-Disposition", "attachment; filename=quiz-template.csv")
		_, _ = w.Write(export.TemplateCSV())
	case "json":
		data, err := export.TemplateJSON()
		if err != nil {
			h.fail(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.Header().Set("Content-Disposition", "attachment; filename=quiz-template.json")
		_, _ = w.Write(data)
	default:
		h.fail(w, r, domain.Invalid("template format must be csv or json"))
	}
}
