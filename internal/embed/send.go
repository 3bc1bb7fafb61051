package embed

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
)

// ErrUnrenderable is returned when a destination requires plain text and
// the document degrades to nothing: every block suppressed or overwritten
// to empty, with no raw caller content to fall back on.
var ErrUnrenderable = errors.New("document renders to no text")

// Destination identifies where a message goes. The core treats it as
// opaque; transports give it meaning (a webhook URL, a channel id).
type Destination string

// DeliveryMode is how a message went out.
type DeliveryMode string

const (
	ModeRich DeliveryMode = "rich"
	ModeText DeliveryMode = "text"
)

// Delivery is one outgoing message. Exactly one of Document or Text is
// set; Mode enforces that.
type Delivery struct {
	// Document is the rich payload. Content, when non-empty, accompanies
	// it as the message body.
	Document *Document
	// Text is the degraded plain rendering, caller content already folded in.
	Text string
	// Mentions is the mention allow-list for the outgoing message.
	Mentions *MentionPolicy
	Content  string
}

// Mode returns the delivery mode. Supplying both or neither of Document
// and Text is a programming error and panics.
func (d Delivery) Mode() DeliveryMode {
	switch {
	case d.Document != nil && d.Text == "":
		return ModeRich
	case d.Document == nil && d.Text != "":
		return ModeText
	}
	panic("embed: exactly one of Delivery.Document or Delivery.Text must be set")
}

// EmbedRequester decides whether a destination can and should receive a
// rich embed. Implementations typically combine channel permissions with
// user preference.
type EmbedRequester interface {
	EmbedRequested(ctx context.Context, dest Destination) (bool, error)
}

// DeliveredMessage is the transport's receipt for one delivery.
type DeliveredMessage struct {
	ID   string
	Mode DeliveryMode
	Text string
}

// Deliverer hands a message to the destination platform.
type Deliverer interface {
	Deliver(ctx context.Context, dest Destination, d Delivery) (*DeliveredMessage, error)
}

// SendOptions carries the caller's raw content and mention allow-list.
type SendOptions struct {
	Content  string
	Mentions *MentionPolicy
}

// Sender routes a document to rich or text delivery.
type Sender struct {
	requester EmbedRequester
	deliverer Deliverer
	unwrapper *Unwrapper
	logger    *slog.Logger
}

// NewSender creates a Sender. A nil unwrapper gets the defaults.
func NewSender(requester EmbedRequester, deliverer Deliverer, unwrapper *Unwrapper, logger *slog.Logger) *Sender {
	if unwrapper == nil {
		unwrapper = NewUnwrapper(nil, nil)
	}
	return &Sender{
		requester: requester,
		deliverer: deliverer,
		unwrapper: unwrapper,
		logger:    logger,
	}
}

// SendTo delivers the document to dest. When the capability check allows
// embeds, the raw document goes out untouched and the overwrite view is
// ignored. Otherwise the document is unwrapped to text and delivered with
// a suppressed mention policy. At most one capability check and one
// delivery happen per call, and collaborator failures propagate to the
// caller unchanged — an error from the capability check aborts the send
// rather than degrading to text. A document that unwraps to no text at
// all fails with ErrUnrenderable before any delivery is attempted.
func (s *Sender) SendTo(ctx context.Context, dest Destination, doc *Document, opts SendOptions) (*DeliveredMessage, error) {
	requested, err := s.requester.EmbedRequested(ctx, dest)
	if err != nil {
		return nil, err
	}
	if requested {
		s.logger.Debug("delivering rich embed", "destination", string(dest))
		return s.deliverer.Deliver(ctx, dest, Delivery{
			Document: doc,
			Content:  opts.Content,
			Mentions: opts.Mentions,
		})
	}
	text := s.unwrapper.Unwrap(doc, opts.Content)
	if text == "" {
		return nil, fmt.Errorf("%w for destination %q", ErrUnrenderable, string(dest))
	}
	mentions := SuppressMentions(opts.Mentions, opts.Content)
	s.logger.Debug("embed degraded to text",
		"destination", string(dest),
		"length", len(text),
	)
	return s.deliverer.Deliver(ctx, dest, Delivery{
		Text:     text,
		Mentions: &mentions,
	})
}
