package rest

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"quizdesk/internal/domain"
)

type roundTripperFunc func(*http.Request) (*http.Response, error)

func (f roundTripperFunc) RoundTrip(r *http.Request) (*http.Response, error) {
	return f(r)
}

func TestDoJSONReturnsServiceUnavailable(t *testing.T) {
	client := NewClient("http://example.test", &http.Client{
		Transport: roundTripperFunc(func(*http.Request) (*http.Response, error) {
			return nil, errors.New("dial error")
		}),
	})

	err := client.doJSON(context.Background(), http.MethodGet, "/quizzes", nil, nil)
	if err == nil {
		t.Fatalf("expected error")
	}
	if !errors.Is(err, ErrServiceUnavailable) {
		t.Fatalf("expected ErrServiceUnavailable wrapper, got %v", err)
	}
}

func TestDoJSONSurfacesServerMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnprocessableEntity)
		_ = json.NewEncoder(w).Encode(errorResponse{Message: "quiz title missing"})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	err := client.doJSON(context.Background(), http.MethodGet, "/quizzes", nil, nil)

	var apiErr *APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("expected *APIError, got %T (%v)", err, err)
	}
	if apiErr.StatusCode != http.StatusUnprocessableEntity {
		t.Fatalf("status code = %d, want %d", apiErr.StatusCode, http.StatusUnprocessableEntity)
	}
	if apiErr.Message != "quiz title missing" {
		t.Fatalf("message = %q", apiErr.Message)
	}
}

func TestListQuizzesDecodesLegacyQuestionShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet || r.URL.Path != "/quizzes" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if got := r.URL.Query().Get("ownerId"); got != "owner-1" {
			t.Fatalf("ownerId query = %q", got)
		}
		_, _ = w.Write([]byte(`[
			{
				"id": "quiz-1",
				"title": "Legacy",
				"description": "round trip",
				"difficulty": "hard",
				"timeLimit": 5,
				"questions": [
					{"id": 1, "isCompiler": true, "questionText": "Sum", "language": "python", "referenceCode": "print(1)"},
					{"id": 2, "type": "multiple_choice", "questionText": "Pick", "options": ["a","b"], "correctAnswer": 1}
				]
			}
		]`))
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	quizzes, err := client.ListQuizzes(context.Background(), "owner-1")
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(quizzes) != 1 || quizzes[0].ID != "quiz-1" {
		t.Fatalf("unexpected quizzes: %+v", quizzes)
	}
	questions := quizzes[0].Questions
	if questions[0].Kind != domain.KindCompiler || questions[0].Compiler.Language != domain.LangPython {
		t.Fatalf("expected the compiler flag honored, got %+v", questions[0])
	}
	if questions[1].Kind != domain.KindMultipleChoice || questions[1].Choice.CorrectAnswer != 1 {
		t.Fatalf("expected the choice question decoded, got %+v", questions[1])
	}
}

func TestCreateQuizPostsLegacyShapeAndDecodesReply(t *testing.T) {
	var received map[string]any
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/quizzes" {
			t.Fatalf("unexpected request %s %s", r.Method, r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&received); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		_ = json.NewEncoder(w).Encode(map[string]any{"id": "assigned-1", "title": received["title"]})
	}))
	defer server.Close()

	quiz := domain.NewQuiz("")
	quiz.Title = "Fresh"
	q := domain.NewQuestion(domain.KindBlock)
	q.ID = 9
	q.Text = "Loop it"
	quiz.Questions = []domain.Question{q}

	client := NewClient(server.URL, server.Client())
	created, err := client.CreateQuiz(context.Background(), "owner-1", quiz)
	if err != nil {
		t.Fatalf("create failed: %v", err)
	}
	if created.ID != "assigned-1" {
		t.Fatalf("expected the server id, got %q", created.ID)
	}

	questions := received["questions"].([]any)
	wire := questions[0].(map[string]any)
	if wire["questionText"] != "Loop it" || wire["type"] != "block" {
		t.Fatalf("expected the legacy wire shape, got %+v", wire)
	}
	if wire["isBlock"] != true {
		t.Fatalf("expected the legacy block flag, got %+v", wire)
	}
}

func TestUpdateQuizMapsNotFound(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		_ = json.NewEncoder(w).Encode(errorResponse{Error: "no such quiz"})
	}))
	defer server.Close()

	client := NewClient(server.URL, server.Client())
	err := client.UpdateQuiz(context.Background(), "missing", domain.NewQuiz(""))
	if !errors.Is(err, domain.ErrQuizNotFound) {
		t.Fatalf("expected the quiz-not-found sentinel, got %v", err)
	}
}

func TestImportQuizzesWrapsBatchAndReturnsMessage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/quizzes/import" {
			t.Fatalf("unexpected path %s", r.URL.Path)
		}
		var body importRequest
		if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
			t.Fatalf("decode body: %v", err)
		}
		if len(body.Quizzes) != 2 {
			t.Fatalf("expected the whole batch in one call, got %d", len(body.Quizzes))
		}
		_ = json.NewEncoder(w).Encode(importResponse{Message: "2 quizzes imported successfully"})
	}))
	defer server.Close()

	one, two := domain.NewQuiz(""), domain.NewQuiz("")
	one.Title, two.Title = "One", "Two"

	client := NewClient(server.URL, server.Client())
	message, err := client.ImportQuizzes(context.Background(), "owner-1", []domain.Quiz{one, two})
	if err != nil {
		t.Fatalf("import failed: %v", err)
	}
	if message != "2 quizzes imported successfully" {
		t.Fatalf("expected the server message verbatim, got %q", message)
	}
}
