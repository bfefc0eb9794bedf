package quizclient

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/quizdeck/backend/internal/models"
	"github.com/quizdeck/backend/internal/participant"
)

// Client is an HTTP client for the public participant endpoints. It
// implements participant.API.
type Client struct {
	baseURL string
	client  *http.Client
}

// New creates a client for the given server base URL.
func New(baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		client: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

type envelope struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data,omitempty"`
	Error   string          `json:"error,omitempty"`
}

// FetchQuiz retrieves the session and template for a join code.
func (c *Client) FetchQuiz(ctx context.Context, code string) (*models.SessionWithTemplate, error) {
	data, err := c.do(ctx, http.MethodGet, "/quiz/"+code, nil)
	if err != nil {
		return nil, err
	}
	var view models.SessionWithTemplate
	if err := json.Unmarshal(data, &view); err != nil {
		return nil, fmt.Errorf("decode quiz: %w", err)
	}
	return &view, nil
}

// SubmitResponse posts a participant submission.
func (c *Client) SubmitResponse(ctx context.Context, sub participant.Submission) (*models.Response, error) {
	body := map[string]interface{}{
		"session_id":       sub.SessionID.String(),
		"participant_name": sub.ParticipantName,
		"answers":          sub.Answers,
	}
	if sub.ParticipantEmail != "" {
		body["participant_email"] = sub.ParticipantEmail
	}
	if sub.ParticipantPhone != "" {
		body["participant_phone"] = sub.ParticipantPhone
	}
	if sub.TimeSpentSeconds > 0 {
		body["time_spent_seconds"] = sub.TimeSpentSeconds
	}
	raw, err := json.Marshal(body)
	if err != nil {
		return nil, err
	}
	data, err := c.do(ctx, http.MethodPost, "/quiz/submit", bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	var resp models.Response
	if err := json.Unmarshal(data, &resp); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &resp, nil
}

func (c *Client) do(ctx context.Context, method, endpoint string, body io.Reader) (json.RawMessage, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+endpoint, body)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return nil, fmt.Errorf("decode envelope (status %d): %w", resp.StatusCode, err)
	}
	if !env.Success {
		switch resp.StatusCode {
		case http.StatusNotFound:
			return nil, models.ErrSessionNotFound
		case http.StatusForbidden:
			return nil, models.ErrNotAcceptingResponses
		default:
			return nil, fmt.Errorf("server error (status %d): %s", resp.StatusCode, env.Error)
		}
	}
	return env.Data, nil
}
