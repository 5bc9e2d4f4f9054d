package http

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	logtest "github.com/sirupsen/logrus/hooks/test"

	"quiz-ledger-service/internal/app"
	"quiz-ledger-service/internal/domain"
	"quiz-ledger-service/internal/infra/memory"
)

const testSecret = "test-secret"

type testServer struct {
	*httptest.Server
	auth     *Authenticator
	attempts *memory.AttemptStore
	users    *memory.UserDirectory
}

func newTestServer(t *testing.T, seed ...domain.Quiz) *testServer {
	t.Helper()
	return newTestServerWithOrigins(t, nil, seed...)
}

func newTestServerWithOrigins(t *testing.T, origins []string, seed ...domain.Quiz) *testServer {
	t.Helper()
	logger, _ := logtest.NewNullLogger()

	quizStore := memory.NewQuizStore(seed...)
	repo := memory.NewQuizRepository(quizStore, time.Minute)
	attempts := memory.NewAttemptStore()
	users := memory.NewUserDirectory()
	leaderboard := app.NewLeaderboardService(attempts, users, memory.NewFeedStore(), logger)
	quizzes := app.NewQuizService(quizStore, repo, attempts, logger)
	ledger := app.NewLedger(attempts, repo, leaderboard, logger)
	auth := NewAuthenticator(testSecret, "token", logger)

	router := NewRouter(RouterConfig{
		Quiz:        NewQuizHandler(quizzes, ledger, leaderboard, logger, 1<<20),
		Live:        NewLiveHandler(quizzes, leaderboard, logger),
		Auth:        auth,
		Log:         logger,
		CORSOrigins: origins,
	})
	srv := httptest.NewServer(router)
	t.Cleanup(srv.Close)
	return &testServer{Server: srv, auth: auth, attempts: attempts, users: users}
}

func (s *testServer) token(t *testing.T, userID string, role domain.Role) string {
	t.Helper()
	tok, err := s.auth.Issue(domain.Principal{UserID: userID, Role: role}, time.Hour)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	return tok
}

type response struct {
	status int
	header http.Header
	raw    []byte
	body   map[string]any
}

func (s *testServer) do(t *testing.T, method, path, token string, body io.Reader, contentType string) response {
	t.Helper()
	req, err := http.NewRequest(method, s.URL+path, body)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	raw, _ := io.ReadAll(res.Body)
	out := response{status: res.StatusCode, header: res.Header, raw: raw}
	if res.Header.Get("Content-Type") == "application/json" {
		_ = json.Unmarshal(raw, &out.body)
	}
	return out
}

func (s *testServer) doJSON(t *testing.T, method, path, token string, payload any) response {
	t.Helper()
	data, err := json.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	return s.do(t, method, path, token, bytes.NewReader(data), "application/json")
}

func multipartBody(t *testing.T, fields map[string]string, filename string, content []byte) (io.Reader, string) {
	t.Helper()
	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)
	for k, v := range fields {
		if err := mw.WriteField(k, v); err != nil {
			t.Fatalf("write field: %v", err)
		}
	}
	if filename != "" {
		fw, err := mw.CreateFormFile("file", filename)
		if err != nil {
			t.Fatalf("create form file: %v", err)
		}
		_, _ = fw.Write(content)
	}
	if err := mw.Close(); err != nil {
		t.Fatalf("close multipart: %v", err)
	}
	return &buf, mw.FormDataContentType()
}

func sampleQuiz() domain.Quiz {
	return domain.Quiz{
		ID:        "quiz-1",
		Title:     "Math basics",
		Duration:  10,
		IsActive:  true,
		CreatedAt: time.Date(2024, 4, 1, 0, 0, 0, 0, time.UTC),
		Questions: []domain.Question{
			{ID: "q1", Text: "What is 2 + 2?", Options: []string{"3", "4", "5"}, CorrectAnswer: "4", Kind: domain.KindMultipleChoice},
			{ID: "q2", Text: "What is 3 + 3?", Options: []string{"6", "7"}, CorrectAnswer: "6", Kind: domain.KindMultipleChoice},
		},
	}
}
