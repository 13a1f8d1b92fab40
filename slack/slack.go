// Package slack posts health alerts to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
)

type doer interface {
	Do(req *http.Request) (*http.Response, error)
}

const (
	defaultUsername  = "healthagent"
	defaultIconEmoji = ":warning:"
)

type Client struct {
	webhookURL string
	httpClient doer
	username   string
	iconEmoji  string
}

// NewClient returns a webhook client. A nil httpClient uses http.DefaultClient.
func NewClient(webhookURL string, httpClient doer) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		webhookURL: webhookURL,
		httpClient: httpClient,
		username:   defaultUsername,
		iconEmoji:  defaultIconEmoji,
	}
}

type payload struct {
	Channel   string `json:"channel,omitempty"`
	Text      string `json:"text"`
	Username  string `json:"username,omitempty"`
	IconEmoji string `json:"icon_emoji,omitempty"`
}

func (c *Client) PostMessage(ctx context.Context, channel string, message string) error {
	if strings.TrimSpace(message) == "" {
		return fmt.Errorf("empty message")
	}

	body, err := json.Marshal(payload{
		Channel:   channel,
		Text:      message,
		Username:  c.username,
		IconEmoji: c.iconEmoji,
	})
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("failed to post message: %s: %s", resp.Status, strings.TrimSpace(string(detail)))
	}
	return nil
}
