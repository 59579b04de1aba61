package approval

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"strconv"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// ErrNotFound is returned when the backend has no request with the given id.
var ErrNotFound = errors.New("approval: request not found")

// Client talks to the approval backend's REST API. The submitter's Telegram
// user id and language are stored as custom fields on the task so that the
// reconciliation worker can recover them later from the request alone.
type Client struct {
	baseURL    string
	token      string
	httpClient *http.Client
	logger     zerolog.Logger
}

func NewClient(baseURL, token string, logger zerolog.Logger) *Client {
	return &Client{
		baseURL:    baseURL,
		token:      token,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		logger:     logger.With().Str("component", "approval").Logger(),
	}
}

type taskPayload struct {
	Title        string            `json:"title"`
	Notes        string            `json:"notes"`
	CustomFields map[string]string `json:"custom_fields"`
}

type taskData struct {
	ID           string            `json:"id"`
	Status       string            `json:"status"`
	CustomFields map[string]string `json:"custom_fields"`
}

type taskEnvelope struct {
	Data taskData `json:"data"`
}

type commentsEnvelope struct {
	Data []struct {
		Text string `json:"text"`
	} `json:"data"`
}

// CreateRequest opens a new task on the backend and returns its id.
func (c *Client) CreateRequest(ctx context.Context, sub Submission) (string, error) {
	payload := taskPayload{
		Title: fmt.Sprintf("Badge request: %s (%s)", sub.FIO, sub.BadgeNumber),
		Notes: fmt.Sprintf("FIO: %s\nBadge: %s", sub.FIO, sub.BadgeNumber),
		CustomFields: map[string]string{
			"telegram_user_id": strconv.FormatInt(sub.UserID, 10),
			"language":         sub.Language,
		},
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return "", fmt.Errorf("Client.CreateRequest: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/api/v1/tasks", bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("Client.CreateRequest: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("Client.CreateRequest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return "", fmt.Errorf("Client.CreateRequest: unexpected status %d", resp.StatusCode)
	}

	var envelope taskEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return "", fmt.Errorf("Client.CreateRequest: decode response: %w", err)
	}

	if envelope.Data.ID == "" {
		return "", fmt.Errorf("Client.CreateRequest: backend returned empty request id")
	}

	return envelope.Data.ID, nil
}

// AttachEvidence uploads one evidence item to an existing request.
func (c *Client) AttachEvidence(ctx context.Context, requestID string, data []byte) error {
	var buf bytes.Buffer

	writer := multipart.NewWriter(&buf)

	part, err := writer.CreateFormFile("file", uuid.New().String()+".jpg")
	if err != nil {
		return fmt.Errorf("Client.AttachEvidence: %w", err)
	}

	if _, err := part.Write(data); err != nil {
		return fmt.Errorf("Client.AttachEvidence: %w", err)
	}

	if err := writer.Close(); err != nil {
		return fmt.Errorf("Client.AttachEvidence: %w", err)
	}

	url := fmt.Sprintf("%s/api/v1/tasks/%s/attachments", c.baseURL, requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, &buf)
	if err != nil {
		return fmt.Errorf("Client.AttachEvidence: %w", err)
	}

	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("Client.AttachEvidence: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		return fmt.Errorf("Client.AttachEvidence: unexpected status %d", resp.StatusCode)
	}

	io.Copy(io.Discard, resp.Body)

	return nil
}

// GetRequest fetches the current status of a request together with the
// submitter identity and language recovered from its custom fields.
func (c *Client) GetRequest(ctx context.Context, requestID string) (*Request, error) {
	url := fmt.Sprintf("%s/api/v1/tasks/%s", c.baseURL, requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Client.GetRequest: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Client.GetRequest: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return nil, ErrNotFound
	}

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Client.GetRequest: unexpected status %d", resp.StatusCode)
	}

	var envelope taskEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("Client.GetRequest: decode response: %w", err)
	}

	userID, err := strconv.ParseInt(envelope.Data.CustomFields["telegram_user_id"], 10, 64)
	if err != nil {
		return nil, fmt.Errorf("Client.GetRequest: bad telegram_user_id field: %w", err)
	}

	return &Request{
		ID:       envelope.Data.ID,
		Status:   Status(envelope.Data.Status),
		UserID:   userID,
		Language: envelope.Data.CustomFields["language"],
	}, nil
}

// LatestComment returns the most recent reviewer comment on a request, or nil
// when the request has no comments yet.
func (c *Client) LatestComment(ctx context.Context, requestID string) (*string, error) {
	url := fmt.Sprintf("%s/api/v1/tasks/%s/comments?limit=1", c.baseURL, requestID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("Client.LatestComment: %w", err)
	}

	req.Header.Set("Authorization", "Bearer "+c.token)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("Client.LatestComment: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("Client.LatestComment: unexpected status %d", resp.StatusCode)
	}

	var envelope commentsEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err != nil {
		return nil, fmt.Errorf("Client.LatestComment: decode response: %w", err)
	}

	if len(envelope.Data) == 0 || envelope.Data[0].Text == "" {
		return nil, nil
	}

	return pointer.To(envelope.Data[0].Text), nil
}

// Submit creates a request and attaches every collected evidence item. Any
// failure aborts the submission; the caller must not treat the request as
// created when an error is returned.
func (c *Client) Submit(ctx context.Context, sub Submission) (string, error) {
	requestID, err := c.CreateRequest(ctx, sub)
	if err != nil {
		return "", fmt.Errorf("Client.Submit: %w", err)
	}

	for _, item := range sub.Evidence {
		if err := c.AttachEvidence(ctx, requestID, item); err != nil {
			return "", fmt.Errorf("Client.Submit: %w", err)
		}
	}

	c.logger.Info().Str("request_id", requestID).Int64("user_id", sub.UserID).Msg("request submitted")

	return requestID, nil
}
