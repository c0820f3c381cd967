// Package telegram is a small Bot API client covering the two calls the
// service makes: sending a text message and reading a chat membership.
package telegram

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"
)

// ErrNotConfigured is returned by every call when no bot token is set.
var ErrNotConfigured = errors.New("telegram: bot token not configured")

// APIError is a Bot API response with ok == false.
type APIError struct {
	Code        int
	Description string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("telegram: %d %s", e.Code, e.Description)
}

type Client struct {
	base       string
	token      string
	httpClient *http.Client
	backoff    func() retry.Backoff
}

// NewClient builds a client for the Bot API at base (e.g.
// "https://api.telegram.org").
func NewClient(base, token string) *Client {
	return &Client{
		base:       strings.TrimRight(base, "/"),
		token:      token,
		httpClient: &http.Client{Timeout: 10 * time.Second},
		backoff: func() retry.Backoff {
			return retry.WithMaxRetries(2, retry.NewExponential(200*time.Millisecond))
		},
	}
}

type apiResponse struct {
	OK          bool            `json:"ok"`
	ErrorCode   int             `json:"error_code"`
	Description string          `json:"description"`
	Result      json.RawMessage `json:"result"`
}

// SendMessage posts text to chatID. Rate limiting and server errors are
// retried a couple of times.
func (c *Client) SendMessage(ctx context.Context, chatID int64, text string) error {
	req := map[string]any{
		"chat_id":                  chatID,
		"text":                     text,
		"disable_web_page_preview": true,
	}
	return c.call(ctx, "sendMessage", req, nil)
}

// IsMember reports whether userID has joined chat, a public "@channel" name
// or a numeric chat id. Users who left or were kicked are not members.
func (c *Client) IsMember(ctx context.Context, chat string, userID int64) (bool, error) {
	var member struct {
		Status string `json:"status"`
	}
	req := map[string]any{"chat_id": chat, "user_id": userID}
	if err := c.call(ctx, "getChatMember", req, &member); err != nil {
		return false, err
	}
	switch member.Status {
	case "left", "kicked", "":
		return false, nil
	}
	return true, nil
}

func (c *Client) call(ctx context.Context, method string, payload any, out any) error {
	if c.token == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}
	url := fmt.Sprintf("%s/bot%s/%s", c.base, c.token, method)

	return retry.Do(ctx, c.backoff(), func(ctx context.Context) error {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
		if err != nil {
			return err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return retry.RetryableError(fmt.Errorf("telegram %s: %w", method, err))
		}
		defer resp.Body.Close()

		var r apiResponse
		if err := json.NewDecoder(resp.Body).Decode(&r); err != nil {
			return fmt.Errorf("telegram %s: decode: %w", method, err)
		}
		if !r.OK {
			apiErr := &APIError{Code: r.ErrorCode, Description: r.Description}
			if r.ErrorCode == http.StatusTooManyRequests || r.ErrorCode >= 500 {
				return retry.RetryableError(apiErr)
			}
			return apiErr
		}
		if out != nil {
			if err := json.Unmarshal(r.Result, out); err != nil {
				return fmt.Errorf("telegram %s: decode result: %w", method, err)
			}
		}
		return nil
	})
}
