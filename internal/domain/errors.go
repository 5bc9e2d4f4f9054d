package domain

import (
	"errors"
	"fmt"
)

var (
	// ErrValidation marks user-correctable input problems.
	ErrValidation = errors.New("validation failed")
	// ErrQuizNotFound indicates the quiz content could not be loaded.
	ErrQuizNotFound = errors.New("quiz not found")
	// ErrQuestionNotFound indicates a question ID does not exist in the quiz.
	ErrQuestionNotFound = errors.New("question not found")
	// ErrAttemptNotFound is returned by stores when no attempt exists for a (student, quiz) pair.
	ErrAttemptNotFound = errors.New("attempt not found")
	// ErrNoCompletedQuizzes is returned when a student has no attempts to list.
	ErrNoCompletedQuizzes = errors.New("no completed quizzes found")
	// ErrAlreadyAttempted is matched by AlreadyAttemptedError.
	ErrAlreadyAttempted = errors.New("you have already taken this quiz")
	// ErrDuplicateAttempt is returned by stores when the (student, quiz) uniqueness constraint fires.
	ErrDuplicateAttempt = errors.New("duplicate attempt")
	// ErrAnswerCountMismatch is returned when fewer answers than questions are submitted.
	ErrAnswerCountMismatch = errors.New("answer count does not match question count")
	// ErrScorePersistence is returned when the score record could not be written.
	ErrScorePersistence = errors.New("failed to save score")

	// ErrUnsupportedFormat is returned for uploads that are neither CSV nor JSON.
	ErrUnsupportedFormat = errors.New("unsupported file format, use CSV or JSON")
	// ErrMalformedInput is returned when an upload cannot be decoded.
	ErrMalformedInput = errors.New("malformed input")
	// ErrNoQuestionsFound is returned when an upload yields no questions.
	ErrNoQuestionsFound = errors.New("no valid questions found in the file")
	// ErrInvalidQuestion is matched by InvalidQuestionError.
	ErrInvalidQuestion = errors.New("invalid question")

	// ErrUnauthorized indicates missing or invalid credentials.
	ErrUnauthorized = errors.New("user not authenticated")
	// ErrForbidden indicates the caller's role lacks a capability.
	ErrForbidden = errors.New("forbidden")
)

// ValidationError carries a human-readable reason for rejected input.
type ValidationError struct {
	Reason string
	Err    error
}

func (e *ValidationError) Error() string { return e.Reason }

func (e *ValidationError) Unwrap() error { return e.Err }

func (e *ValidationError) Is(target error) bool { return target == ErrValidation }

// Invalid builds a ValidationError from a format string.
func Invalid(format string, args ...any) error {
	return &ValidationError{Reason: fmt.Sprintf(format, args...)}
}

// InvalidQuestionError names the question that broke a question rule.
type InvalidQuestionError struct {
	Question string
	Reason   string
}

func (e *InvalidQuestionError) Error() string {
	return fmt.Sprintf("%s for question: %s", e.Reason, e.Question)
}

func (e *InvalidQuestionError) Is(target error) bool {
	return target == ErrInvalidQuestion || target == ErrValidation
}

// AlreadyAttemptedError is informational: it carries the attempt that already exists.
type AlreadyAttemptedError struct {
	Attempt Attempt
}

func (e *AlreadyAttemptedError) Error() string { return ErrAlreadyAttempted.Error() }

func (e *AlreadyAttemptedError) Is(target error) bool { return target == ErrAlreadyAttempted }
