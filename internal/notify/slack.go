package notify

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Slack posts to an incoming webhook. The message is sent as plain text for
// clients without attachment support plus one colored attachment.
type Slack struct {
	Webhook  string
	Username string
	Client   *http.Client
}

// NewSlack returns nil when webhook is empty.
func NewSlack(webhook string) *Slack {
	if webhook == "" {
		return nil
	}
	return &Slack{
		Webhook:  webhook,
		Username: "pagecheck",
		Client:   &http.Client{Timeout: 10 * time.Second},
	}
}

type slackAttachment struct {
	Fallback string `json:"fallback"`
	Color    string `json:"color,omitempty"`
	Title    string `json:"title"`
	Text     string `json:"text"`
	Footer   string `json:"footer,omitempty"`
	TS       int64  `json:"ts"`
}

type slackPayload struct {
	Username    string            `json:"username,omitempty"`
	Text        string            `json:"text"`
	Attachments []slackAttachment `json:"attachments"`
}

func (s *Slack) Send(ctx context.Context, title, text string) error {
	if s == nil || s.Webhook == "" {
		return errors.New("slack disabled")
	}
	plain := "*" + title + "*\n" + text
	body, err := json.Marshal(slackPayload{
		Username: s.Username,
		Text:     plain,
		Attachments: []slackAttachment{{
			Fallback: plain,
			Color:    severityColor(title),
			Title:    title,
			Text:     text,
			Footer:   "pagecheck",
			TS:       time.Now().Unix(),
		}},
	})
	if err != nil {
		return fmt.Errorf("slack payload: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.Webhook, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("slack request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := s.Client.Do(req)
	if err != nil {
		return fmt.Errorf("slack post: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		// webhooks answer with a short reason such as "invalid_payload"
		reason, _ := io.ReadAll(io.LimitReader(resp.Body, 256))
		return fmt.Errorf("slack %s: %s", resp.Status, strings.TrimSpace(string(reason)))
	}
	return nil
}

// severityColor maps alert titles to Slack's attachment colors.
func severityColor(title string) string {
	switch {
	case strings.Contains(title, "FAILED"):
		return "danger"
	case strings.Contains(title, "DEGRADED"):
		return "warning"
	case strings.Contains(title, "RECOVERED"):
		return "good"
	}
	return ""
}
