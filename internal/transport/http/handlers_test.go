package http

import (
	"encoding/csv"
	"net/http"
	"strings"
	"testing"
	"time"

	"quiz-ledger-service/internal/domain"
)

func TestAuthIsRequired(t *testing.T) {
	srv := newTestServer(t, sampleQuiz())

	res := srv.do(t, http.MethodGet, "/quiz/getall", "", nil, "")
	if res.status != http.StatusUnauthorized || res.body["success"] != false {
		t.Fatalf("expected 401 envelope, got %d %s", res.status, res.raw)
	}
	res = srv.do(t, http.MethodGet, "/quiz/getall", "not-a-token", nil, "")
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for bad token, got %d", res.status)
	}

	other := NewAuthenticator("other-secret", "token", nil)
	forged, _ := other.Issue(domain.Principal{UserID: "x", Role: domain.RoleAdmin}, time.Hour)
	res = srv.do(t, http.MethodGet, "/quiz/getall", forged, nil, "")
	if res.status != http.StatusUnauthorized {
		t.Fatalf("expected 401 for foreign signature, got %d", res.status)
	}
}

func TestCookieToken(t *testing.T) {
	srv := newTestServer(t, sampleQuiz())
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/quiz/getall", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: srv.token(t, "t1", domain.RoleTeacher)})
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("expected cookie auth to pass, got %d", res.StatusCode)
	}
}

func TestCapabilitiesAreEnforced(t *testing.T) {
	srv := newTestServer(t, sampleQuiz())
	studentTok := srv.token(t, "s1", domain.RoleStudent)
	teacherTok := srv.token(t, "t1", domain.RoleTeacher)

	draft := map[string]any{
		"title":     "New",
		"duration":  5,
		"questions": []map[string]any{{"question": "Q?", "options": []string{"a", "b"}, "correctAnswer": "a"}},
	}
	if res := srv.doJSON(t, http.MethodPost, "/quiz/add", studentTok, draft); res.status != http.StatusForbidden {
		t.Fatalf("student must not author quizzes, got %d", res.status)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/results/quiz-1/csv", studentTok, nil, ""); res.status != http.StatusForbidden {
		t.Fatalf("student must not download results, got %d", res.status)
	}
	answers := map[string]any{"answers": []map[string]string{{"selectedOption": "4"}, {"selectedOption": "6"}}}
	if res := srv.doJSON(t, http.MethodPost, "/quiz/submit/quiz-1", teacherTok, answers); res.status != http.StatusForbidden {
		t.Fatalf("teacher must not take quizzes, got %d", res.status)
	}
}

func TestAddQuizAndValidation(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "t1", domain.RoleTeacher)

	res := srv.doJSON(t, http.MethodPost, "/quiz/add", tok, map[string]any{
		"title":     "Capitals",
		"duration":  5,
		"questions": []map[string]any{{"question": "Capital of France?", "options": []string{"Paris", "London"}, "correctAnswer": "Paris"}},
	})
	if res.status != http.StatusCreated || res.body["success"] != true {
		t.Fatalf("expected 201, got %d %s", res.status, res.raw)
	}
	quiz := res.body["quiz"].(map[string]any)
	if quiz["createdBy"] != "t1" || quiz["id"] == "" {
		t.Fatalf("unexpected quiz %v", quiz)
	}

	res = srv.doJSON(t, http.MethodPost, "/quiz/add", tok, map[string]any{
		"title":     "Bad",
		"duration":  5,
		"questions": []map[string]any{{"question": "Pick", "options": []string{"a", "b"}, "correctAnswer": "z"}},
	})
	if res.status != http.StatusBadRequest || !strings.Contains(res.body["message"].(string), "for question: Pick") {
		t.Fatalf("expected 400 invalid question, got %d %s", res.status, res.raw)
	}

	res = srv.do(t, http.MethodPost, "/quiz/add", tok, strings.NewReader("{oops"), "application/json")
	if res.status != http.StatusBadRequest {
		t.Fatalf("expected 400 for bad body, got %d", res.status)
	}
}

func TestUploadQuiz(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "t1", domain.RoleTeacher)
	fields := map[string]string{"title": "Uploaded", "duration": "15"}

	csvData := "Question,Options,CorrectAnswer\n\"Capital?\",\"Paris,London\",\"Paris\"\n\"Fill the blank ___\",\"Answer\"\n"
	body, ct := multipartBody(t, fields, "quiz.csv", []byte(csvData))
	res := srv.do(t, http.MethodPost, "/quiz/upload", tok, body, ct)
	if res.status != http.StatusCreated {
		t.Fatalf("expected 201, got %d %s", res.status, res.raw)
	}
	if !strings.Contains(res.body["message"].(string), "Processed 2 questions") {
		t.Fatalf("unexpected message %v", res.body["message"])
	}

	body, ct = multipartBody(t, fields, "quiz.json", []byte("{not json"))
	res = srv.do(t, http.MethodPost, "/quiz/upload", tok, body, ct)
	if res.status != http.StatusBadRequest || !strings.Contains(res.body["message"].(string), "Invalid JSON") {
		t.Fatalf("expected 400 Invalid JSON, got %d %s", res.status, res.raw)
	}

	body, ct = multipartBody(t, fields, "", nil)
	res = srv.do(t, http.MethodPost, "/quiz/upload", tok, body, ct)
	if res.status != http.StatusBadRequest {
		t.Fatalf("expected 400 without file, got %d", res.status)
	}

	big := strings.Repeat("x", 1<<20+100<<10)
	body, ct = multipartBody(t, fields, "quiz.csv", []byte(big))
	res = srv.do(t, http.MethodPost, "/quiz/upload", tok, body, ct)
	if res.status != http.StatusBadRequest {
		t.Fatalf("expected 400 for oversized upload, got %d", res.status)
	}

	list := srv.do(t, http.MethodGet, "/quiz/getall", tok, nil, "")
	if n := len(list.body["quizzes"].([]any)); n != 1 {
		t.Fatalf("only the valid upload should be stored, got %d quizzes", n)
	}
}

func TestSubmitTwiceReturnsFirstResult(t *testing.T) {
	srv := newTestServer(t, sampleQuiz())
	tok := srv.token(t, "s1", domain.RoleStudent)

	first := srv.doJSON(t, http.MethodPost, "/quiz/submit/quiz-1", tok, map[string]any{
		"answers": []map[string]string{{"selectedOption": "4"}, {"selectedOption": "7"}},
	})
	if first.status != http.StatusOK {
		t.Fatalf("expected 200, got %d %s", first.status, first.raw)
	}
	result := first.body["result"].(map[string]any)
	if result["score"].(float64) != 1 || result["percentage"].(float64) != 50 {
		t.Fatalf("unexpected result %v", result)
	}

	second := srv.doJSON(t, http.MethodPost, "/quiz/submit/quiz-1", tok, map[string]any{
		"answers": []map[string]string{{"selectedOption": "4"}, {"selectedOption": "6"}},
	})
	if second.status != http.StatusBadRequest || second.body["success"] != false {
		t.Fatalf("expected informational 400, got %d %s", second.status, second.raw)
	}
	prior := second.body["result"].(map[string]any)
	if prior["id"] != result["id"] || prior["score"].(float64) != 1 {
		t.Fatalf("expected first attempt back, got %v", prior)
	}

	short := srv.doJSON(t, http.MethodPost, "/quiz/submit/quiz-1", srv.token(t, "s2", domain.RoleStudent), map[string]any{
		"answers": []map[string]string{{"selectedOption": "4"}},
	})
	if short.status != http.StatusBadRequest {
		t.Fatalf("expected 400 for too few answers, got %d", short.status)
	}

	missing := srv.doJSON(t, http.MethodPost, "/quiz/submit/nope", tok, map[string]any{"answers": []any{}})
	if missing.status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", missing.status)
	}
}

func TestScorePersistenceFailureIs500(t *testing.T) {
	srv := newTestServer(t, sampleQuiz())
	srv.attempts.FailScoreWrites = true

	res := srv.doJSON(t, http.MethodPost, "/quiz/submit/quiz-1", srv.token(t, "s1", domain.RoleStudent), map[string]any{
		"answers": []map[string]string{{"selectedOption": "4"}, {"selectedOption": "6"}},
	})
	if res.status != http.StatusInternalServerError || res.body["message"] != "failed to save score" {
		t.Fatalf("expected 500 failed to save score, got %d %s", res.status, res.raw)
	}
}

func TestLeaderboardAndResults(t *testing.T) {
	srv := newTestServer(t, sampleQuiz())
	srv.users.Put(domain.StudentProfile{ID: "s1", FullName: "Alice", Email: "alice@example.com"})

	for _, s := range []struct{ id, second string }{{"s1", "6"}, {"s2", "7"}} {
		res := srv.doJSON(t, http.MethodPost, "/quiz/submit/quiz-1", srv.token(t, s.id, domain.RoleStudent), map[string]any{
			"answers": []map[string]string{{"selectedOption": "4"}, {"selectedOption": s.second}},
		})
		if res.status != http.StatusOK {
			t.Fatalf("submit %s: %d", s.id, res.status)
		}
	}

	lb := srv.do(t, http.MethodGet, "/quiz/leaderboard/quiz-1", srv.token(t, "s2", domain.RoleStudent), nil, "")
	entries := lb.body["leaderboard"].([]any)
	if lb.status != http.StatusOK || len(entries) != 2 || entries[0].(map[string]any)["studentId"] != "s1" {
		t.Fatalf("unexpected leaderboard %d %s", lb.status, lb.raw)
	}

	teacherTok := srv.token(t, "t1", domain.RoleTeacher)
	res := srv.do(t, http.MethodGet, "/quiz/results/quiz-1/csv", teacherTok, nil, "")
	if res.status != http.StatusOK || res.header.Get("Content-Type") != "text/csv" {
		t.Fatalf("expected csv, got %d %s", res.status, res.header.Get("Content-Type"))
	}
	if cd := res.header.Get("Content-Disposition"); !strings.HasPrefix(cd, "attachment; filename=quiz-results-Math-basics-") {
		t.Fatalf("unexpected disposition %q", cd)
	}
	rows, err := csv.NewReader(strings.NewReader(string(res.raw))).ReadAll()
	if err != nil || len(rows) != 3 {
		t.Fatalf("unexpected csv rows %v err=%v", rows, err)
	}
	if rows[1][1] != "Alice" || rows[1][5] != "100.00%" || rows[2][1] != "N/A" || rows[2][5] != "50.00%" {
		t.Fatalf("unexpected csv content %v", rows)
	}

	if res := srv.do(t, http.MethodGet, "/quiz/results/quiz-1/pdf", teacherTok, nil, ""); res.status != http.StatusBadRequest {
		t.Fatalf("expected 400 for non-csv format, got %d", res.status)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/results/nope/csv", teacherTok, nil, ""); res.status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown quiz, got %d", res.status)
	}
}

func TestTemplates(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "s1", domain.RoleStudent)

	res := srv.do(t, http.MethodGet, "/quiz/template/csv", tok, nil, "")
	if res.status != http.StatusOK || !strings.HasPrefix(string(res.raw), "Question,Options,CorrectAnswer\n") {
		t.Fatalf("unexpected csv template %d %q", res.status, res.raw)
	}
	res = srv.do(t, http.MethodGet, "/quiz/template/json", tok, nil, "")
	if res.status != http.StatusOK || res.body["title"] != "Sample Quiz" {
		t.Fatalf("unexpected json template %d %s", res.status, res.raw)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/template/xml", tok, nil, ""); res.status != http.StatusBadRequest {
		t.Fatalf("expected 400 for unknown template format, got %d", res.status)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/template/csv", "", nil, ""); res.status != http.StatusUnauthorized {
		t.Fatalf("templates require authentication, got %d", res.status)
	}
}

func TestQuizLifecycle(t *testing.T) {
	srv := newTestServer(t, sampleQuiz())
	tok := srv.token(t, "t1", domain.RoleTeacher)

	if res := srv.do(t, http.MethodGet, "/quiz/quiz-1", "", nil, ""); res.status != http.StatusOK {
		t.Fatalf("expected public quiz read, got %d", res.status)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/latest", "", nil, ""); res.status != http.StatusOK || res.body["quiz"].(map[string]any)["id"] != "quiz-1" {
		t.Fatalf("unexpected latest %d %s", res.status, res.raw)
	}

	res := srv.do(t, http.MethodDelete, "/quiz/delete/quiz-1/question/q1", tok, nil, "")
	questions := res.body["quiz"].(map[string]any)["questions"].([]any)
	if res.status != http.StatusOK || len(questions) != 1 || questions[0].(map[string]any)["id"] != "q2" {
		t.Fatalf("unexpected delete question result %d %s", res.status, res.raw)
	}
	if res := srv.do(t, http.MethodDelete, "/quiz/delete/quiz-1/question/zzz", tok, nil, ""); res.status != http.StatusNotFound {
		t.Fatalf("expected 404 for unknown question, got %d", res.status)
	}

	res = srv.doJSON(t, http.MethodPut, "/quiz/update/quiz-1", tok, map[string]any{
		"title":     "Renamed",
		"duration":  3,
		"questions": []map[string]any{{"id": "q2", "question": "What is 3 + 3?", "options": []string{"6", "7"}, "correctAnswer": "6"}},
	})
	if res.status != http.StatusOK || res.body["quiz"].(map[string]any)["title"] != "Renamed" {
		t.Fatalf("unexpected update %d %s", res.status, res.raw)
	}

	if res := srv.do(t, http.MethodDelete, "/quiz/delete/quiz-1/question/q2", tok, nil, ""); res.status != http.StatusBadRequest {
		t.Fatalf("expected 400 when removing the only question, got %d", res.status)
	}

	if res := srv.do(t, http.MethodDelete, "/quiz/delete/quiz-1", tok, nil, ""); res.status != http.StatusOK {
		t.Fatalf("expected delete ok, got %d", res.status)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/quiz-1", "", nil, ""); res.status != http.StatusNotFound {
		t.Fatalf("expected 404 after delete, got %d", res.status)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/latest", "", nil, ""); res.status != http.StatusNotFound {
		t.Fatalf("expected 404 with no quizzes, got %d", res.status)
	}
}

func TestCompletedQuizzesOwnership(t *testing.T) {
	srv := newTestServer(t, sampleQuiz())
	s1 := srv.token(t, "s1", domain.RoleStudent)

	if res := srv.do(t, http.MethodGet, "/quiz/completed-quizzes/s1", s1, nil, ""); res.status != http.StatusNotFound {
		t.Fatalf("expected 404 before any attempt, got %d", res.status)
	}
	srv.doJSON(t, http.MethodPost, "/quiz/submit/quiz-1", s1, map[string]any{
		"answers": []map[string]string{{"selectedOption": "4"}, {"selectedOption": "6"}},
	})

	res := srv.do(t, http.MethodGet, "/quiz/completed-quizzes/s1", s1, nil, "")
	if res.status != http.StatusOK || len(res.body["completedQuizzes"].([]any)) != 1 {
		t.Fatalf("unexpected completed quizzes %d %s", res.status, res.raw)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/completed-quizzes/s1", srv.token(t, "s2", domain.RoleStudent), nil, ""); res.status != http.StatusForbidden {
		t.Fatalf("students must not read others' history, got %d", res.status)
	}
	if res := srv.do(t, http.MethodGet, "/quiz/completed-quizzes/s1", srv.token(t, "t1", domain.RoleTeacher), nil, ""); res.status != http.StatusOK {
		t.Fatalf("teachers may read any history, got %d", res.status)
	}
}

func TestUploadLimitAppliesToFile(t *testing.T) {
	srv := newTestServer(t)
	tok := srv.token(t, "t1", domain.RoleTeacher)
	fields := map[string]string{"title": "At the limit", "duration": "5"}

	csvData := "Question,Options,CorrectAnswer\n\"Capital?\",\"Paris,London\",\"Paris\"\n"
	atLimit := csvData + strings.Repeat("\n", 1<<20-len(csvData))
	body, ct := multipartBody(t, fields, "quiz.csv", []byte(atLimit))
	res := srv.do(t, http.MethodPost, "/quiz/upload", tok, body, ct)
	if res.status != http.StatusCreated {
		t.Fatalf("expected 201 for a file of exactly the limit, got %d %s", res.status, res.raw)
	}

	body, ct = multipartBody(t, fields, "quiz.csv", []byte(atLimit+"\n"))
	res = srv.do(t, http.MethodPost, "/quiz/upload", tok, body, ct)
	if res.status != http.StatusBadRequest {
		t.Fatalf("expected 400 one byte over the limit, got %d", res.status)
	}
}
