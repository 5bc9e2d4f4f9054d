// Package importer turns uploaded CSV or JSON files into canonical questions.
//
// The CSV grammar is deliberately narrow: one question per line, a header line
// that is always skipped, double quotes that toggle a quoted section, and no
// escaped quotes or embedded newlines. Rows look like
//
//	"Question","Option A,Option B","Option A"
//	"Fill the blank ___","Answer"
package importer

import (
	"bytes"
	"encoding/json"
	"fmt"
	"path/filepath"
	"strings"

	"quiz-ledger-service/internal/domain"
	"quiz-ledger-service/internal/validation"
)

// Supported upload formats.
const (
	FormatCSV  = "csv"
	FormatJSON = "json"
)

var utf8BOM = []byte{0xEF, 0xBB, 0xBF}

// ExtensionOf returns the lower-cased extension of an uploaded file name without the dot.
func ExtensionOf(filename string) string {
	return strings.ToLower(strings.TrimPrefix(filepath.Ext(filename), "."))
}

// Load parses data and validates every resulting question.
func Load(data []byte, ext string) ([]domain.Question, error) {
	questions, err := Parse(data, ext)
	if err != nil {
		return nil, err
	}
	if len(questions) == 0 {
		return nil, domain.ErrNoQuestionsFound
	}
	if err := validation.Questions(questions); err != nil {
		return nil, err
	}
	return questions, nil
}

// Parse decodes data into raw question candidates without validating them.
func Parse(data []byte, ext string) ([]domain.Question, error) {
	data = bytes.TrimPrefix(data, utf8BOM)
	switch strings.ToLower(ext) {
	case FormatCSV:
		return parseCSV(data), nil
	case FormatJSON:
		return parseJSON(data)
	default:
		return nil, fmt.Errorf("%w: %q", domain.ErrUnsupportedFormat, ext)
	}
}

type jsonDocument struct {
	Questions []domain.Question `json:"questions"`
}

func parseJSON(data []byte) ([]domain.Question, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '[' {
		var questions []domain.Question
		if err := json.Unmarshal(trimmed, &questions); err != nil {
			return nil, fmt.Errorf("%w: Invalid JSON: %v", domain.ErrMalformedInput, err)
		}
		return normalizeAll(questions), nil
	}

	var fields map[string]json.RawMessage
	if err := json.Unmarshal(trimmed, &fields); err != nil {
		return nil, fmt.Errorf("%w: Invalid JSON: %v", domain.ErrMalformedInput, err)
	}
	raw, ok := fields["questions"]
	if !ok || len(bytes.TrimSpace(raw)) == 0 || bytes.TrimSpace(raw)[0] != '[' {
		return nil, fmt.Errorf("%w: Invalid JSON: expected array or object with 'questions' array", domain.ErrMalformedInput)
	}
	var doc jsonDocument
	if err := json.Unmarshal(trimmed, &doc); err != nil {
		return nil, fmt.Errorf("%w: Invalid JSON: %v", domain.ErrMalformedInput, err)
	}
	return normalizeAll(doc.Questions), nil
}

func normalizeAll(questions []domain.Question) []domain.Question {
	out := make([]domain.Question, len(questions))
	for i, q := range questions {
		q.ID = ""
		out[i] = validation.NormalizeQuestion(q)
	}
	return out
}

func parseCSV(data []byte) []domain.Question {
	var questions []domain.Question
	for i, raw := range strings.Split(string(data), "\n") {
		line := strings.TrimSpace(raw)
		if i == 0 || line == "" {
			continue
		}
		if q, ok := parseCSVLine(line); ok {
			questions = append(questions, q)
		}
	}
	return questions
}

func parseCSVLine(line string) (domain.Question, bool) {
	fields := splitQuoted(line)
	// A row exported as one quoted cell ("Q,Opts,A") is unwrapped and split again.
	if len(fields) == 1 && len(line) >= 2 && line[0] == '"' && line[len(line)-1] == '"' {
		fields = splitQuoted(line[1 : len(line)-1])
	}

	var text, answer string
	var options []string
	switch {
	case len(fields) >= 3:
		text = unquote(fields[0])
		answer = unquote(fields[2])
		options = splitOptions(fields[1])
		if len(options) == 0 {
			options = []string{answer}
		}
	case len(fields) == 2:
		text = unquote(fields[0])
		answer = unquote(fields[1])
		options = []string{answer}
	default:
		return domain.Question{}, false
	}
	if text == "" || answer == "" {
		return domain.Question{}, false
	}
	return domain.Question{
		Text:          text,
		Options:       options,
		CorrectAnswer: answer,
		Kind:          domain.KindFor(options),
	}, true
}

// splitQuoted splits on commas outside quoted sections. Quote characters are
// dropped; every other character is kept. Fields are trimmed.
func splitQuoted(line string) []string {
	var fields []string
	var current strings.Builder
	inQuotes := false
	for _, r := range line {
		switch {
		case r == '"':
			inQuotes = !inQuotes
		case r == ',' && !inQuotes:
			fields = append(fields, strings.TrimSpace(current.String()))
			current.Reset()
		default:
			current.WriteRune(r)
		}
	}
	return append(fields, strings.TrimSpace(current.String()))
}

func splitOptions(raw string) []string {
	var options []string
	for _, opt := range strings.Split(raw, ",") {
		opt = unquote(strings.TrimSpace(opt))
		if opt != "" {
			options = append(options, opt)
		}
	}
	return options
}

func unquote(s string) string {
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return strings.TrimSpace(s)
}
