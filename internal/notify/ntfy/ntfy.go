package ntfy

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/jon4hz/lifetrack/internal/config"
)

// Client represents a ntfy notification client.
type Client struct {
	serverURL  string
	topic      string
	username   string
	password   string
	token      string
	httpClient *http.Client
}

// Message represents a ntfy message.
type Message struct {
	Topic    string   `json:"topic"`
	Title    string   `json:"title"`
	Message  string   `json:"message"`
	Priority int      `json:"priority,omitempty"`
	Tags     []string `json:"tags,omitempty"`
	Click    string   `json:"click,omitempty"`
	Actions  []Action `json:"actions,omitempty"`
}

// Action represents a ntfy action button.
type Action struct {
	Action string `json:"action"`
	Label  string `json:"label"`
	URL    string `json:"url,omitempty"`
	Method string `json:"method,omitempty"`
}

// NewClient creates a new ntfy client.
func NewClient(cfg *config.NtfyConfig) *Client {
	if cfg.ServerURL != "" {
		if _, err := url.Parse(cfg.ServerURL); err != nil {
			log.Errorf("Invalid ntfy server URL: %v", err)
		}
	}

	return &Client{
		serverURL: cfg.ServerURL,
		topic:     cfg.Topic,
		username:  cfg.Username,
		password:  cfg.Password,
		token:     cfg.Token,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

// SendMessage sends a message to ntfy.
func (c *Client) SendMessage(ctx context.Context, msg Message) error {
	if c.topic != "" {
		msg.Topic = c.topic
	}

	jsonData, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.serverURL, bytes.NewBuffer(jsonData))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Markdown", "yes")

	// Token takes precedence over username/password
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	} else if c.username != "" && c.password != "" {
		req.SetBasicAuth(c.username, c.password)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode >= 400 {
		var errorMsg strings.Builder
		if body, _ := io.ReadAll(io.LimitReader(resp.Body, 256)); len(body) > 0 {
			errorMsg.WriteString(": ")
			errorMsg.Write(body)
		}
		return fmt.Errorf("ntfy server returned status %d%s", resp.StatusCode, errorMsg.String())
	}

	log.Debug("Sent ntfy notification", "topic", msg.Topic, "title", msg.Title)
	return nil
}

// SendSubmission notifies about a public food or workout awaiting approval.
func (c *Client) SendSubmission(ctx context.Context, kind, name, creator, reviewURL string) error {
	var b strings.Builder
	fmt.Fprintf(&b, "**User:** %s\n", creator)
	fmt.Fprintf(&b, "**Type:** %s\n", kind)
	fmt.Fprintf(&b, "**Name:** %s\n\n", name)
	b.WriteString("Please review this submission in the admin dashboard.")

	msg := Message{
		Title:    fmt.Sprintf("New %s submission", kind),
		Message:  b.String(),
		Priority: 4,
		Tags:     []string{"warning", "lifetrack", "moderation"},
		Click:    reviewURL,
	}

	return c.SendMessage(ctx, msg)
}

// SendSuspensionSweep reports suspensions that ran out and were cleared.
func (c *Client) SendSuspensionSweep(ctx context.Context, usernames []string) error {
	if len(usernames) == 0 {
		log.Debug("No expired suspensions, skipping ntfy notification")
		return nil
	}

	var b strings.Builder
	fmt.Fprintf(&b, "**Cleared suspensions:** %d\n\n", len(usernames))
	for _, u := range usernames {
		fmt.Fprintf(&b, "  • %s\n", u)
	}

	msg := Message{
		Title:    "Suspensions expired",
		Message:  b.String(),
		Priority: 3,
		Tags:     []string{"information", "lifetrack", "suspension"},
	}

	return c.SendMessage(ctx, msg)
}
