package export_test

import (
	"bytes"
	"encoding/csv"
	"reflect"
	"sort"
	"strings"
	"testing"
	"time"

	"quiz-ledger-service/internal/domain"
	"quiz-ledger-service/internal/export"
	"quiz-ledger-service/internal/importer"
)

func TestResultsCSV(t *testing.T) {
	at := time.Date(2024, 5, 6, 7, 8, 9, 0, time.UTC)
	standings := []domain.Standing{
		{
			ScoreRecord: domain.ScoreRecord{StudentID: "s1", Score: 2, TotalQuestions: 3, Percentage: 200.0 / 3, CreatedAt: at},
			Student:     &domain.StudentProfile{ID: "s1", FullName: "Doe, Jane", Email: "jane@example.com"},
		},
		{
			ScoreRecord: domain.ScoreRecord{StudentID: "s2", Score: 1, TotalQuestions: 3, Percentage: 100.0 / 3},
		},
	}

	var buf bytes.Buffer
	if err := export.ResultsCSV(&buf, standings); err != nil {
		t.Fatalf("export: %v", err)
	}
	rows, err := csv.NewReader(&buf).ReadAll()
	if err != nil {
		t.Fatalf("read back: %v", err)
	}
	want := [][]string{
		{"Rank", "Student Name", "Email", "Score", "Total Questions", "Percentage", "Completed At"},
		{"1", "Doe, Jane", "jane@example.com", "2", "3", "66.67%", "2024-05-06T07:08:09Z"},
		{"2", "N/A", "N/A", "1", "3", "33.33%", "N/A"},
	}
	if !reflect.DeepEqual(rows, want) {
		t.Fatalf("unexpected rows:\n got %v\nwant %v", rows, want)
	}
}

func TestResultsCSVHeaderOnly(t *testing.T) {
	var buf bytes.Buffer
	if err := export.ResultsCSV(&buf, nil); err != nil {
		t.Fatalf("export: %v", err)
	}
	if got := buf.String(); got != "Rank,Student Name,Email,Score,Total Questions,Percentage,Completed At\n" {
		t.Fatalf("unexpected output %q", got)
	}
}

func TestResultsFilename(t *testing.T) {
	at := time.UnixMilli(1700000000123)
	if got := export.ResultsFilename("Intro to  Go\tBasics", at); got != "quiz-results-Intro-to-Go-Basics-1700000000123.csv" {
		t.Fatalf("unexpected filename %q", got)
	}
}

func TestTemplatesRoundTripThroughImporter(t *testing.T) {
	want := canonical(export.TemplateQuestions())

	fromCSV, err := importer.Load(export.TemplateCSV(), importer.FormatCSV)
	if err != nil {
		t.Fatalf("import csv template: %v", err)
	}
	if got := canonical(fromCSV); !reflect.DeepEqual(got, want) {
		t.Fatalf("csv template round trip mismatch:\n got %v\nwant %v", got, want)
	}

	data, err := export.TemplateJSON()
	if err != nil {
		t.Fatalf("json template: %v", err)
	}
	if !strings.Contains(string(data), `"duration": 30`) {
		t.Fatalf("json template missing quiz metadata: %s", data)
	}
	fromJSON, err := importer.Load(data, importer.FormatJSON)
	if err != nil {
		t.Fatalf("import json template: %v", err)
	}
	if got := canonical(fromJSON); !reflect.DeepEqual(got, want) {
		t.Fatalf("json template round trip mismatch:\n got %v\nwant %v", got, want)
	}
}

// canonical drops IDs and kinds and sorts options so comparisons ignore option order.
func canonical(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		opts := append([]string(nil), q.Options...)
		sort.Strings(opts)
		out[i] = domain.Question{Text: q.Text, Options: opts, CorrectAnswer: q.CorrectAnswer}
	}
	return out
}
