// Package export renders quiz results and import templates.
package export

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"regexp"
	"strconv"
	"strings"
	"time"

	"quiz-ledger-service/internal/domain"
)

const notAvailable = "N/A"

var resultsHeader = []string{"Rank", "Student Name", "Email", "Score", "Total Questions", "Percentage", "Completed At"}

// ResultsCSV writes one row per standing in the given order; rank is the 1-based position.
func ResultsCSV(w io.Writer, standings []domain.Standing) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(resultsHeader); err != nil {
		return err
	}
	for i, s := range standings {
		name, email := notAvailable, notAvailable
		if s.Student != nil {
			if s.Student.FullName != "" {
				name = s.Student.FullName
			}
			if s.Student.Email != "" {
				email = s.Student.Email
			}
		}
		completed := notAvailable
		if !s.CreatedAt.IsZero() {
			completed = s.CreatedAt.UTC().Format(time.RFC3339)
		}
		row := []string{
			strconv.Itoa(i + 1),
			name,
			email,
			strconv.Itoa(s.Score),
			strconv.Itoa(s.TotalQuestions),
			fmt.Sprintf("%.2f%%", s.Percentage),
			completed,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

var whitespaceRun = regexp.MustCompile(`\s+`)

// ResultsFilename names a results download after the quiz title and the export time.
func ResultsFilename(title string, at time.Time) string {
	return fmt.Sprintf("quiz-results-%s-%d.csv", whitespaceRun.ReplaceAllString(title, "-"), at.UnixMilli())
}

// TemplateQuestions is the canonical example content shared by both templates.
func TemplateQuestions() []domain.Question {
	return []domain.Question{
		{Text: "What is the capital of France?", Options: []string{"Paris", "London", "Berlin", "Madrid"}, CorrectAnswer: "Paris"},
		{Text: "What is 2+2?", Options: []string{"3", "4", "5", "6"}, CorrectAnswer: "4"},
		{Text: "CPU stands for ______", Options: []string{"Central Processing Unit"}, CorrectAnswer: "Central Processing Unit"},
		{Text: "Which of the following is not an operating system?", Options: []string{"Windows", "Linux", "Oracle", "Mac OS"}, CorrectAnswer: "Oracle"},
	}
}

// TemplateCSV is written in the importer's narrow grammar: every field quoted,
// options comma-joined inside one field, no escaped quotes.
func TemplateCSV() []byte {
	var b strings.Builder
	b.WriteString("Question,Options,CorrectAnswer\n")
	for _, q := range TemplateQuestions() {
		fmt.Fprintf(&b, "%q,%q,%q\n", q.Text, strings.Join(q.Options, ","), q.CorrectAnswer)
	}
	return []byte(b.String())
}

type templateDocument struct {
	Title       string            `json:"title"`
	Description string            `json:"description"`
	Duration    int               `json:"duration"`
	Questions   []domain.Question `json:"questions"`
}

// TemplateJSON is a full quiz document; its questions array is importable as is.
func TemplateJSON() ([]byte, error) {
	return json.MarshalIndent(templateDocument{
		Title:       "Sample Quiz",
		Description: "This is a sample quiz created from template",
		Duration:    30,
		Questions:   TemplateQuestions(),
	}, "", "  ")
}
