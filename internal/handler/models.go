package handler

import (
	"fmt"
	"time"

	"proxyembed/internal/embed"
)

// EmbedRequest is the wire form of a base embed.
type EmbedRequest struct {
	Title       string         `json:"title,omitempty"`
	URL         string         `json:"url,omitempty"`
	Description string         `json:"description,omitempty"`
	Author      *AuthorRequest `json:"author,omitempty"`
	Thumbnail   *MediaRequest  `json:"thumbnail,omitempty"`
	Image       *MediaRequest  `json:"image,omitempty"`
	Footer      *FooterRequest `json:"footer,omitempty"`
	Timestamp   string         `json:"timestamp,omitempty"` // RFC 3339
	Fields      []FieldRequest `json:"fields,omitempty"`
}

type AuthorRequest struct {
	Name string `json:"name,omitempty"`
	URL  string `json:"url,omitempty"`
}

type MediaRequest struct {
	URL string `json:"url,omitempty"`
}

type FooterRequest struct {
	Text string `json:"text,omitempty"`
}

type FieldRequest struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline"`
}

// OverwriteRequest is the wire form of an overwrite view. A missing key
// leaves the leaf unset; an empty string explicitly blanks it on unwrap.
type OverwriteRequest struct {
	Title       *string                       `json:"title,omitempty"`
	URL         *string                       `json:"url,omitempty"`
	Description *string                       `json:"description,omitempty"`
	Author      *AuthorOverwriteRequest       `json:"author,omitempty"`
	Thumbnail   *MediaOverwriteRequest        `json:"thumbnail,omitempty"`
	Image       *MediaOverwriteRequest        `json:"image,omitempty"`
	Footer      *FooterOverwriteRequest       `json:"footer,omitempty"`
	Timestamp   *string                       `json:"timestamp,omitempty"` // RFC 3339, "" clears
	Fields      map[int]FieldOverwriteRequest `json:"fields,omitempty"`
}

type AuthorOverwriteRequest struct {
	Name *string `json:"name,omitempty"`
	URL  *string `json:"url,omitempty"`
}

type MediaOverwriteRequest struct {
	URL *string `json:"url,omitempty"`
}

type FooterOverwriteRequest struct {
	Text *string `json:"text,omitempty"`
}

type FieldOverwriteRequest struct {
	Name   *string `json:"name,omitempty"`
	Value  *string `json:"value,omitempty"`
	Inline *bool   `json:"inline,omitempty"`
}

// MentionsRequest is the caller's mention allow-list. Absent categories
// are platform defaults, which suppression treats differently from an
// explicit allow.
type MentionsRequest struct {
	Everyone *bool `json:"everyone,omitempty"`
	Roles    *bool `json:"roles,omitempty"`
	Users    *bool `json:"users,omitempty"`
}

// RenderRequestBody asks for a plain-text preview.
type RenderRequestBody struct {
	Embed           *EmbedRequest     `json:"embed"`
	Overwrites      *OverwriteRequest `json:"overwrites,omitempty"`
	Content         string            `json:"content,omitempty"`
	AllowedMentions *MentionsRequest  `json:"allowed_mentions,omitempty"`
	Locale          string            `json:"locale,omitempty"`
	TimestampStyle  string            `json:"timestamp_style,omitempty"`
}

// SendRequestBody asks for a delivery.
type SendRequestBody struct {
	Destination     string            `json:"destination"`
	Embed           *EmbedRequest     `json:"embed"`
	Overwrites      *OverwriteRequest `json:"overwrites,omitempty"`
	Content         string            `json:"content,omitempty"`
	AllowedMentions *MentionsRequest  `json:"allowed_mentions,omitempty"`
	Locale          string            `json:"locale,omitempty"`
	TimestampStyle  string            `json:"timestamp_style,omitempty"`
}

// PolicyRequestBody sets a destination's embed policy.
type PolicyRequestBody struct {
	AllowEmbeds *bool `json:"allow_embeds"`
}

// RenderResponse carries the preview text and the mention policy a
// degraded delivery would use.
type RenderResponse struct {
	Text            string           `json:"text"`
	AllowedMentions MentionsResponse `json:"allowed_mentions"`
}

// MentionsResponse reports each category as "default", "allow" or "deny".
type MentionsResponse struct {
	Everyone string `json:"everyone"`
	Roles    string `json:"roles"`
	Users    string `json:"users"`
}

// SendResponse is the delivery receipt.
type SendResponse struct {
	ID   string `json:"id"`
	Mode string `json:"mode"`
	Text string `json:"text,omitempty"`
}

// PolicyResponse reports a destination's stored embed policy.
type PolicyResponse struct {
	Destination string `json:"destination"`
	AllowEmbeds bool   `json:"allow_embeds"`
}

// toDocument builds the resolved document from the wire form.
func toDocument(e *EmbedRequest, o *OverwriteRequest) (*embed.Document, error) {
	if e == nil {
		return nil, fmt.Errorf("embed is required")
	}
	base := embed.Embed{
		Title:       e.Title,
		URL:         e.URL,
		Description: e.Description,
	}
	if e.Author != nil {
		base.Author = embed.Author{Name: e.Author.Name, URL: e.Author.URL}
	}
	if e.Thumbnail != nil {
		base.Thumbnail = embed.Media{URL: e.Thumbnail.URL}
	}
	if e.Image != nil {
		base.Image = embed.Media{URL: e.Image.URL}
	}
	if e.Footer != nil {
		base.Footer = embed.Footer{Text: e.Footer.Text}
	}
	if e.Timestamp != "" {
		ts, err := time.Parse(time.RFC3339, e.Timestamp)
		if err != nil {
			return nil, fmt.Errorf("invalid timestamp %q: %w", e.Timestamp, err)
		}
		base.Timestamp = &ts
	}
	for _, f := range e.Fields {
		base.Fields = append(base.Fields, embed.Field{
			Name:   f.Name,
			Value:  f.Value,
			Inline: f.Inline,
		})
	}

	doc := embed.New(base)
	if o != nil {
		if err := applyOverwrites(doc.Overwrites(), o); err != nil {
			return nil, err
		}
	}
	return doc, nil
}

// stringOverwrite maps a wire pointer to the tri-state overwrite: nil is
// unset, "" is the explicit empty marker.
func stringOverwrite(s *string) embed.Overwrite {
	if s == nil {
		return embed.Overwrite{}
	}
	if *s == "" {
		return embed.Empty()
	}
	return embed.Value(*s)
}

func applyOverwrites(view *embed.OverwriteView, o *OverwriteRequest) error {
	view.Title = stringOverwrite(o.Title)
	view.URL = stringOverwrite(o.URL)
	view.Description = stringOverwrite(o.Description)
	if o.Author != nil {
		view.Author.Name = stringOverwrite(o.Author.Name)
		view.Author.URL = stringOverwrite(o.Author.URL)
	}
	if o.Thumbnail != nil {
		view.Thumbnail.URL = stringOverwrite(o.Thumbnail.URL)
	}
	if o.Image != nil {
		view.Image.URL = stringOverwrite(o.Image.URL)
	}
	if o.Footer != nil {
		view.Footer.Text = stringOverwrite(o.Footer.Text)
	}
	if o.Timestamp != nil {
		if *o.Timestamp == "" {
			view.Timestamp = embed.Empty()
		} else {
			ts, err := time.Parse(time.RFC3339, *o.Timestamp)
			if err != nil {
				return fmt.Errorf("invalid timestamp overwrite %q: %w", *o.Timestamp, err)
			}
			view.Timestamp = embed.Value(ts)
		}
	}
	for i, f := range o.Fields {
		slot := view.Field(i)
		slot.Name = stringOverwrite(f.Name)
		slot.Value = stringOverwrite(f.Value)
		if f.Inline != nil {
			slot.Inline = embed.Value(*f.Inline)
		}
	}
	return nil
}

// toMentions maps the wire allow-list to the tri-state policy. A nil
// request means the caller supplied no allow-list at all.
func toMentions(m *MentionsRequest) *embed.MentionPolicy {
	if m == nil {
		return nil
	}
	return &embed.MentionPolicy{
		Everyone: toMentionSetting(m.Everyone),
		Roles:    toMentionSetting(m.Roles),
		Users:    toMentionSetting(m.Users),
	}
}

func toMentionSetting(b *bool) embed.MentionSetting {
	switch {
	case b == nil:
		return embed.MentionDefault
	case *b:
		return embed.MentionAllow
	default:
		return embed.MentionDeny
	}
}

func fromMentions(p embed.MentionPolicy) MentionsResponse {
	return MentionsResponse{
		Everyone: fromMentionSetting(p.Everyone),
		Roles:    fromMentionSetting(p.Roles),
		Users:    fromMentionSetting(p.Users),
	}
}

func fromMentionSetting(s embed.MentionSetting) string {
	switch s {
	case embed.MentionAllow:
		return "allow"
	case embed.MentionDeny:
		return "deny"
	default:
		return "default"
	}
}
