// Package announce posts loop announcements to a configured webhook. The
// poster is a plain consumer of the random-loop query; it knows nothing about
// the document store.
package announce

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
)

// Config holds the configuration for loop announcements.
type Config struct {
	Enabled    bool   `yaml:"enabled"`
	WebhookURL string `yaml:"webhook_url"`
	Topic      string `yaml:"topic"`
	Token      string `yaml:"token"`
	Hashtag    string `yaml:"hashtag"`
}

// Client posts announcements to a webhook endpoint.
type Client struct {
	webhookURL string
	topic      string
	token      string
	httpClient *http.Client
}

// Message represents one loop announcement.
type Message struct {
	Topic   string `json:"topic,omitempty"`
	Message string `json:"message"`
	// Attach is the public URL of the loop's animated preview.
	Attach string `json:"attach,omitempty"`
	// ClickURL is the public page of the loop.
	ClickURL string `json:"click,omitempty"`
}

// NewClient creates a new announcement client.
func NewClient(config *Config) *Client {
	if config.WebhookURL != "" {
		if _, err := url.Parse(config.WebhookURL); err != nil {
			log.Errorf("Invalid announcement webhook URL: %v", err)
		}
	}

	return &Client{
		webhookURL: config.WebhookURL,
		topic:      config.Topic,
		token:      config.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// Send posts a message to the webhook.
func (c *Client) Send(ctx context.Context, msg Message) error {
	if c.topic != "" {
		msg.Topic = c.topic
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		var errorMsg strings.Builder
		if resp.Body != nil {
			buf := make([]byte, 256)
			if n, _ := resp.Body.Read(buf); n > 0 {
				errorMsg.WriteString(": ")
				errorMsg.Write(buf[:n])
			}
		}
		return fmt.Errorf("announcement webhook returned status %d%s", resp.StatusCode, errorMsg.String())
	}

	return nil
}
