// Package rest talks to the learning platform's authoring API over HTTP. It
// is the production Store: every list, save, delete and bulk import the
// manager performs becomes one request here.
package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"quizdesk/internal/app"
	"quizdesk/internal/domain"
)

// ErrServiceUnavailable wraps transport-level failures so callers can tell
// "platform is down" apart from "platform said no".
var ErrServiceUnavailable = errors.New("authoring service unavailable")

// APIError carries a non-2xx response. Message is the server's own text when
// it sent one.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	if strings.TrimSpace(e.Message) == "" {
		return fmt.Sprintf("request failed with status %d", e.StatusCode)
	}
	return e.Message
}

// Client implements app.Store against the platform API.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

var _ app.Store = (*Client)(nil)

type importRequest struct {
	Quizzes []domain.Quiz `json:"quizzes"`
}

type importResponse struct {
	Message string `json:"message"`
}

type errorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message"`
}

// NewClient builds a client for the API at baseURL. A nil httpClient falls
// back to http.DefaultClient.
func NewClient(baseURL string, httpClient *http.Client) *Client {
	baseURL = strings.TrimSpace(baseURL)
	baseURL = strings.TrimRight(baseURL, "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:3000"
	}
	if httpClient == nil {
		httpClient = http.DefaultClient
	}

	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
	}
}

func (c *Client) ListSubjects(ctx context.Context, ownerID string) ([]domain.Subject, error) {
	var subjects []domain.Subject
	if err := c.doJSON(ctx, http.MethodGet, "/subjects?"+ownerQuery(ownerID), nil, &subjects); err != nil {
		return nil, err
	}
	if subjects == nil {
		subjects = []domain.Subject{}
	}
	return subjects, nil
}

func (c *Client) CreateSubject(ctx context.Context, ownerID string, form domain.SubjectForm) (domain.Subject, error) {
	var created domain.Subject
	if err := c.doJSON(ctx, http.MethodPost, "/subjects?"+ownerQuery(ownerID), form, &created); err != nil {
		return domain.Subject{}, err
	}
	return created, nil
}

func (c *Client) UpdateSubject(ctx context.Context, id string, form domain.SubjectForm) error {
	err := c.doJSON(ctx, http.MethodPut, "/subjects/"+url.PathEscape(id), form, nil)
	return mapNotFound(err, domain.ErrSubjectNotFound)
}

func (c *Client) DeleteSubject(ctx context.Context, id string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/subjects/"+url.PathEscape(id), nil, nil)
	return mapNotFound(err, domain.ErrSubjectNotFound)
}

func (c *Client) ListQuizzes(ctx context.Context, ownerID string) ([]domain.Quiz, error) {
	var quizzes []domain.Quiz
	if err := c.doJSON(ctx, http.MethodGet, "/quizzes?"+ownerQuery(ownerID), nil, &quizzes); err != nil {
		return nil, err
	}
	if quizzes == nil {
		quizzes = []domain.Quiz{}
	}
	return quizzes, nil
}

func (c *Client) CreateQuiz(ctx context.Context, ownerID string, quiz domain.Quiz) (domain.Quiz, error) {
	var created domain.Quiz
	if err := c.doJSON(ctx, http.MethodPost, "/quizzes?"+ownerQuery(ownerID), quiz, &created); err != nil {
		return domain.Quiz{}, err
	}
	return created, nil
}

func (c *Client) UpdateQuiz(ctx context.Context, id string, quiz domain.Quiz) error {
	err := c.doJSON(ctx, http.MethodPut, "/quizzes/"+url.PathEscape(id), quiz, nil)
	return mapNotFound(err, domain.ErrQuizNotFound)
}

func (c *Client) DeleteQuiz(ctx context.Context, id string) error {
	err := c.doJSON(ctx, http.MethodDelete, "/quizzes/"+url.PathEscape(id), nil, nil)
	return mapNotFound(err, domain.ErrQuizNotFound)
}

// ImportQuizzes submits the whole parsed batch in one request and returns the
// server's outcome message verbatim.
func (c *Client) ImportQuizzes(ctx context.Context, ownerID string, quizzes []domain.Quiz) (string, error) {
	var payload importResponse
	err := c.doJSON(ctx, http.MethodPost, "/quizzes/import?"+ownerQuery(ownerID), importRequest{Quizzes: quizzes}, &payload)
	if err != nil {
		return "", err
	}
	return payload.Message, nil
}

func (c *Client) doJSON(ctx context.Context, method, path string, requestBody any, responseBody any) error {
	fullURL := c.baseURL + path

	var body io.Reader
	if requestBody != nil {
		encoded, err := json.Marshal(requestBody)
		if err != nil {
			return err
		}
		body = bytes.NewReader(encoded)
	}

	request, err := http.NewRequestWithContext(ctx, method, fullURL, body)
	if err != nil {
		return err
	}
	if requestBody != nil {
		request.Header.Set("Content-Type", "application/json")
	}

	response, err := c.httpClient.Do(request)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrServiceUnavailable, err)
	}
	defer response.Body.Close()

	if response.StatusCode < http.StatusOK || response.StatusCode >= http.StatusMultipleChoices {
		apiErr := APIError{StatusCode: response.StatusCode}
		var payload errorResponse
		if err := json.NewDecoder(response.Body).Decode(&payload); err == nil {
			if strings.TrimSpace(payload.Error) != "" {
				apiErr.Message = payload.Error
			} else if strings.TrimSpace(payload.Message) != "" {
				apiErr.Message = payload.Message
			}
		}
		if apiErr.Message == "" {
			apiErr.Message = response.Status
		}
		return &apiErr
	}

	if responseBody == nil {
		return nil
	}
	return json.NewDecoder(response.Body).Decode(responseBody)
}

func ownerQuery(ownerID string) string {
	query := url.Values{}
	query.Set("ownerId", ownerID)
	return query.Encode()
}

// mapNotFound folds the API's 404 into the domain sentinel so callers can use
// errors.Is regardless of which store they run against.
func mapNotFound(err error, sentinel error) error {
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.StatusCode == http.StatusNotFound {
		return fmt.Errorf("%w: %v", sentinel, apiErr)
	}
	return err
}
