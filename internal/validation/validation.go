// Package validation holds the rules for a well-formed quiz. Manual authoring
// and file import both go through it.
package validation

import (
	"errors"
	"fmt"
	"slices"
	"strings"

	"github.com/go-playground/validator/v10"

	"quiz-ledger-service/internal/domain"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

type quizRules struct {
	Title       string `validate:"required,max=100"`
	Description string `validate:"max=500"`
	Duration    int    `validate:"required,min=1"`
	Questions   int    `validate:"min=1"`
}

type questionRules struct {
	Text          string   `validate:"required"`
	Options       []string `validate:"required,min=1,dive,required"`
	CorrectAnswer string   `validate:"required"`
}

// Normalize trims every author-controlled string and fills question kinds.
func Normalize(draft domain.QuizDraft) domain.QuizDraft {
	draft.Title = strings.TrimSpace(draft.Title)
	draft.Description = strings.TrimSpace(draft.Description)
	questions := make([]domain.Question, len(draft.Questions))
	for i, q := range draft.Questions {
		questions[i] = NormalizeQuestion(q)
	}
	draft.Questions = questions
	return draft
}

// NormalizeQuestion trims a question's text, options and answer.
func NormalizeQuestion(q domain.Question) domain.Question {
	q.Text = strings.TrimSpace(q.Text)
	q.CorrectAnswer = strings.TrimSpace(q.CorrectAnswer)
	options := make([]string, len(q.Options))
	for i, opt := range q.Options {
		options[i] = strings.TrimSpace(opt)
	}
	q.Options = options
	q.Kind = domain.KindFor(options)
	return q
}

// Quiz checks title, description, duration and every question.
func Quiz(draft domain.QuizDraft) error {
	err := validate.Struct(quizRules{
		Title:       draft.Title,
		Description: draft.Description,
		Duration:    draft.Duration,
		Questions:   len(draft.Questions),
	})
	if err != nil {
		return &domain.ValidationError{Reason: describe(err), Err: err}
	}
	return Questions(draft.Questions)
}

// Questions checks each question: non-empty text, a non-empty option list and
// a correct answer present verbatim among the options.
func Questions(questions []domain.Question) error {
	if len(questions) == 0 {
		return domain.Invalid("questions must be a non-empty array")
	}
	for _, q := range questions {
		if err := Question(q); err != nil {
			return err
		}
	}
	return nil
}

// Question checks a single question.
func Question(q domain.Question) error {
	err := validate.Struct(questionRules{
		Text:          q.Text,
		Options:       q.Options,
		CorrectAnswer: q.CorrectAnswer,
	})
	if err != nil {
		return &domain.InvalidQuestionError{Question: q.Text, Reason: describe(err)}
	}
	if !slices.Contains(q.Options, q.CorrectAnswer) {
		return &domain.InvalidQuestionError{
			Question: q.Text,
			Reason:   fmt.Sprintf("correct answer %q not found in options", q.CorrectAnswer),
		}
	}
	return nil
}

func describe(err error) string {
	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return err.Error()
	}
	fe := fieldErrs[0]
	field := strings.ToLower(fe.StructField())
	if strings.HasPrefix(fe.StructField(), "Options[") {
		return "options must not contain empty values"
	}
	switch fe.Tag() {
	case "required":
		if field == "questions" {
			return "questions must be a non-empty array"
		}
		return field + " is required"
	case "max":
		return fmt.Sprintf("%s cannot exceed %s characters", field, fe.Param())
	case "min":
		switch field {
		case "duration":
			return "duration must be at least " + fe.Param() + " minute"
		case "questions", "options":
			return field + " must be a non-empty array"
		}
		return fmt.Sprintf("%s must be at least %s", field, fe.Param())
	}
	return fmt.Sprintf("%s failed %s validation", field, fe.Tag())
}
