package app

import "quiz-ledger-service/internal/domain"

// ScoreResult is the outcome of scoring one submission.
type ScoreResult struct {
	RawScore   int
	Total      int
	Percentage float64
	Breakdown  []domain.AttemptQuestion
}

// ScoreAnswers compares answers[i] against questions[i] by exact string equality.
// Extra answers are ignored; fewer answers than questions is an error, and
// so is a quiz without questions.
func ScoreAnswers(questions []domain.Question, answers []domain.Answer) (ScoreResult, error) {
	if len(questions) == 0 {
		return ScoreResult{}, domain.Invalid("quiz has no questions")
	}
	if len(answers) < len(questions) {
		return ScoreResult{}, domain.ErrAnswerCountMismatch
	}

	result := ScoreResult{
		Total:     len(questions),
		Breakdown: make([]domain.AttemptQuestion, len(questions)),
	}
	for i, q := range questions {
		selected := answers[i].SelectedOption
		if q.CorrectAnswer == selected {
			result.RawScore++
		}
		result.Breakdown[i] = domain.AttemptQuestion{
			Question:       q.Text,
			Options:        append([]string(nil), q.Options...),
			CorrectAnswer:  q.CorrectAnswer,
			SelectedOption: selected,
		}
	}
	result.Percentage = float64(result.RawScore) / float64(result.Total) * 100
	return result, nil
}
