package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/sirupsen/logrus"

	"quiz-ledger-service/internal/domain"
)

// envelope is the response shape of every JSON endpoint: success, message and a named payload.
type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func ok(message string, key string, payload any) envelope {
	body := envelope{"success": true}
	if message != "" {
		body["message"] = message
	}
	if key != "" {
		body[key] = payload
	}
	return body
}

// writeError is the only place domain errors become HTTP statuses.
func writeError(w http.ResponseWriter, r *http.Request, log logrus.FieldLogger, err error) {
	var attempted *domain.AlreadyAttemptedError
	if errors.As(err, &attempted) {
		writeJSON(w, http.StatusBadRequest, envelope{
			"success": false,
			"message": "You have already taken this quiz.",
			"result":  attempted.Attempt,
		})
		return
	}

	status, message := statusFor(err)
	if status == http.StatusInternalServerError {
		log.WithError(err).WithFields(logrus.Fields{
			"request_id": middleware.GetReqID(r.Context()),
			"path":       r.URL.Path,
		}).Error("request failed")
	}
	writeJSON(w, status, envelope{"success": false, "message": message})
}

func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrAnswerCountMismatch),
		errors.Is(err, domain.ErrUnsupportedFormat),
		errors.Is(err, domain.ErrMalformedInput),
		errors.Is(err, domain.ErrNoQuestionsFound):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, domain.ErrQuizNotFound),
		errors.Is(err, domain.ErrQuestionNotFound),
		errors.Is(err, domain.ErrAttemptNotFound),
		errors.Is(err, domain.ErrNoCompletedQuizzes):
		return http.StatusNotFound, err.Error()
	case errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized, domain.ErrUnauthorized.Error()
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden, domain.ErrForbidden.Error()
	case errors.Is(err, domain.ErrScorePersistence):
		return http.StatusInternalServerError, err.Error()
	default:
		return http.StatusInternalServerError, "internal server error"
	}
}
