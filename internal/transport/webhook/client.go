// Package webhook delivers messages through Discord-compatible webhook
// endpoints. The destination string is the webhook URL.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"time"

	"proxyembed/internal/embed"
)

// Client implements embed.Deliverer over HTTP webhooks.
type Client struct {
	httpClient *http.Client
	logger     *slog.Logger
}

// NewClient creates a webhook client with the given request timeout.
func NewClient(timeout time.Duration, logger *slog.Logger) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		logger:     logger,
	}
}

// Deliver posts the message to the destination webhook, waiting for the
// created message so the platform-assigned id can be returned.
func (c *Client) Deliver(ctx context.Context, dest embed.Destination, d embed.Delivery) (*embed.DeliveredMessage, error) {
	mode := d.Mode()
	payload := buildPayload(d, mode)

	body, err := json.Marshal(payload)
	if err != nil {
		return nil, fmt.Errorf("encode webhook payload: %w", err)
	}

	url := string(dest) + "?wait=true"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build webhook request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute webhook: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("webhook returned %d: %s", resp.StatusCode, detail)
	}

	var created struct {
		ID string `json:"id"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&created); err != nil {
		return nil, fmt.Errorf("decode webhook response: %w", err)
	}

	c.logger.Debug("webhook delivered",
		"mode", string(mode),
		"message_id", created.ID,
	)

	return &embed.DeliveredMessage{
		ID:   created.ID,
		Mode: mode,
		Text: d.Text,
	}, nil
}

// messagePayload is the webhook wire format.
type messagePayload struct {
	Content         string           `json:"content,omitempty"`
	Embeds          []embedPayload   `json:"embeds,omitempty"`
	AllowedMentions *allowedMentions `json:"allowed_mentions,omitempty"`
}

type embedPayload struct {
	Title       string          `json:"title,omitempty"`
	URL         string          `json:"url,omitempty"`
	Description string          `json:"description,omitempty"`
	Author      *authorPayload  `json:"author,omitempty"`
	Thumbnail   *mediaPayload   `json:"thumbnail,omitempty"`
	Image       *mediaPayload   `json:"image,omitempty"`
	Footer      *footerPayload  `json:"footer,omitempty"`
	Timestamp   string          `json:"timestamp,omitempty"`
	Fields      []fieldPayload  `json:"fields,omitempty"`
}

type authorPayload struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type mediaPayload struct {
	URL string `json:"url"`
}

type footerPayload struct {
	Text string `json:"text"`
}

type fieldPayload struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// allowedMentions lists the mention categories the message may trigger.
type allowedMentions struct {
	Parse []string `json:"parse"`
}

func buildPayload(d embed.Delivery, mode embed.DeliveryMode) messagePayload {
	payload := messagePayload{
		AllowedMentions: convertMentions(d.Mentions),
	}
	if mode == embed.ModeRich {
		payload.Content = d.Content
		payload.Embeds = []embedPayload{convertEmbed(d.Document.Base())}
	} else {
		payload.Content = d.Text
	}
	return payload
}

// convertMentions maps the tri-state policy to the wire allow-list. A
// category is listed unless explicitly denied; with no policy at all the
// field is omitted and the platform default applies.
func convertMentions(policy *embed.MentionPolicy) *allowedMentions {
	if policy == nil {
		return nil
	}
	parse := make([]string, 0, 3)
	if policy.Everyone != embed.MentionDeny {
		parse = append(parse, "everyone")
	}
	if policy.Roles != embed.MentionDeny {
		parse = append(parse, "roles")
	}
	if policy.Users != embed.MentionDeny {
		parse = append(parse, "users")
	}
	return &allowedMentions{Parse: parse}
}

func convertEmbed(e embed.Embed) embedPayload {
	payload := embedPayload{
		Title:       e.Title,
		URL:         e.URL,
		Description: e.Description,
	}
	if e.Author != (embed.Author{}) {
		payload.Author = &authorPayload{Name: e.Author.Name, URL: e.Author.URL}
	}
	if e.Thumbnail.URL != "" {
		payload.Thumbnail = &mediaPayload{URL: e.Thumbnail.URL}
	}
	if e.Image.URL != "" {
		payload.Image = &mediaPayload{URL: e.Image.URL}
	}
	if e.Footer.Text != "" {
		payload.Footer = &footerPayload{Text: e.Footer.Text}
	}
	if e.Timestamp != nil {
		payload.Timestamp = e.Timestamp.UTC().Format(time.RFC3339)
	}
	for _, f := range e.Fields {
		payload.Fields = append(payload.Fields, fieldPayload{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}
	return payload
}
