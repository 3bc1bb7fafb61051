package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/go-ozzo/ozzo-validation/v4/is"
	"github.com/google/uuid"

	"proxyembed/internal/domain"
	"proxyembed/internal/domain/models"
	"proxyembed/internal/domain/repositories"
	"proxyembed/internal/embed"
	"proxyembed/internal/locale"
)

// Timestamp rendering styles accepted on requests.
const (
	TimestampMarker = "marker"
	TimestampLocale = "locale"
)

// PolicyStore answers and records per-destination embed policies.
type PolicyStore interface {
	SetEmbedAllowed(ctx context.Context, destination string, allowed bool) error
	EmbedAllowed(ctx context.Context, destination string) (bool, error)
	Policy(ctx context.Context, destination string) (bool, error)
	ClearPolicy(ctx context.Context, destination string) error
}

// DeliveryService orchestrates embed degradation and delivery: it decides
// rich versus text through the policy store, renders through the embed
// package, hands the result to the transport and records the outcome.
type DeliveryService struct {
	policies      PolicyStore
	deliverer     embed.Deliverer
	log           repositories.DeliveryLog
	locales       *locale.Registry
	defaultLocale string
	logger        *slog.Logger
}

// NewDeliveryService creates a new delivery service. defaultLocale is used
// for locale-style timestamps when a request names no locale; empty falls
// back to the registry default.
func NewDeliveryService(
	policies PolicyStore,
	deliverer embed.Deliverer,
	log repositories.DeliveryLog,
	locales *locale.Registry,
	defaultLocale string,
	logger *slog.Logger,
) *DeliveryService {
	if defaultLocale == "" {
		defaultLocale = locale.DefaultLocale
	}
	return &DeliveryService{
		policies:      policies,
		deliverer:     deliverer,
		log:           log,
		locales:       locales,
		defaultLocale: defaultLocale,
		logger:        logger,
	}
}

// SendRequest asks for one document to be delivered to one destination.
type SendRequest struct {
	Destination    string
	Document       *embed.Document
	Content        string
	Mentions       *embed.MentionPolicy
	Locale         string
	TimestampStyle string
}

// Validate checks the request's construction invariants.
func (r *SendRequest) Validate() error {
	if err := validation.ValidateStruct(r,
		validation.Field(&r.Destination, validation.Required, is.URL),
		validation.Field(&r.TimestampStyle, validation.In("", TimestampMarker, TimestampLocale)),
	); err != nil {
		return err
	}
	return validateDocument(r.Document)
}

// RenderRequest asks for a text preview of a document without delivering it.
type RenderRequest struct {
	Document       *embed.Document
	Content        string
	Mentions       *embed.MentionPolicy
	Locale         string
	TimestampStyle string
}

// Validate checks the request's construction invariants.
func (r *RenderRequest) Validate() error {
	if err := validation.ValidateStruct(r,
		validation.Field(&r.TimestampStyle, validation.In("", TimestampMarker, TimestampLocale)),
	); err != nil {
		return err
	}
	return validateDocument(r.Document)
}

func validateDocument(doc *embed.Document) error {
	if doc == nil {
		return fmt.Errorf("%w: document is required", domain.ErrValidation)
	}
	base := doc.Base()
	if base.IsEmpty() {
		return fmt.Errorf("%w: document is empty", domain.ErrValidation)
	}
	if err := base.Validate(); err != nil {
		return fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}
	return nil
}

// RenderResult is the text rendering plus the mention policy a degraded
// delivery would carry.
type RenderResult struct {
	Text     string
	Mentions embed.MentionPolicy
}

// Send delivers the document, degrading to text when the destination's
// policy disallows embeds. The delivery outcome is recorded in the
// delivery log; a logging failure does not fail a send that already went
// out.
func (s *DeliveryService) Send(ctx context.Context, req *SendRequest) (*embed.DeliveredMessage, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	sender := embed.NewSender(
		policyRequester{store: s.policies},
		s.deliverer,
		s.unwrapperFor(req.Locale, req.TimestampStyle),
		s.logger,
	)

	msg, err := sender.SendTo(ctx, embed.Destination(req.Destination), req.Document, embed.SendOptions{
		Content:  req.Content,
		Mentions: req.Mentions,
	})
	if err != nil {
		// The destination wanted text and the document had none to give;
		// that's the caller's input, not a transport failure.
		if errors.Is(err, embed.ErrUnrenderable) {
			return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
		}
		return nil, err
	}

	record := &models.DeliveryRecord{
		ID:          uuid.NewString(),
		Destination: req.Destination,
		Mode:        string(msg.Mode),
		Content:     msg.Text,
	}
	if msg.Mode == embed.ModeRich {
		record.Content = req.Content
	}
	if err := s.log.Record(ctx, record); err != nil {
		// The message is already out; losing one log row is not worth
		// surfacing a failure to the caller.
		s.logger.Error("failed to record delivery",
			"error", err,
			"destination", req.Destination,
			"mode", string(msg.Mode),
		)
	}

	return msg, nil
}

// Render produces the plain-text rendering and suppressed mention policy
// without touching the policy store or the transport.
func (s *DeliveryService) Render(ctx context.Context, req *RenderRequest) (*RenderResult, error) {
	if err := req.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", domain.ErrValidation, err)
	}

	unwrapper := s.unwrapperFor(req.Locale, req.TimestampStyle)
	return &RenderResult{
		Text:     unwrapper.Unwrap(req.Document, req.Content),
		Mentions: embed.SuppressMentions(req.Mentions, req.Content),
	}, nil
}

// SetPolicy records whether a destination accepts rich embeds.
func (s *DeliveryService) SetPolicy(ctx context.Context, destination string, allowed bool) error {
	if destination == "" {
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	return s.policies.SetEmbedAllowed(ctx, destination, allowed)
}

// GetPolicy returns a destination's stored embed policy.
func (s *DeliveryService) GetPolicy(ctx context.Context, destination string) (bool, error) {
	if destination == "" {
		return false, fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	return s.policies.Policy(ctx, destination)
}

// ClearPolicy removes a destination's stored embed policy.
func (s *DeliveryService) ClearPolicy(ctx context.Context, destination string) error {
	if destination == "" {
		return fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	return s.policies.ClearPolicy(ctx, destination)
}

// Deliveries returns the recent delivery history for a destination.
func (s *DeliveryService) Deliveries(ctx context.Context, destination string, limit int) ([]models.DeliveryRecord, error) {
	if destination == "" {
		return nil, fmt.Errorf("%w: destination is required", domain.ErrValidation)
	}
	if limit <= 0 || limit > 100 {
		limit = 50
	}
	return s.log.ListByDestination(ctx, destination, limit)
}

// unwrapperFor picks the timestamp formatter for a request. The marker
// token is the default; the locale style uses the embedded locale tables.
func (s *DeliveryService) unwrapperFor(loc, style string) *embed.Unwrapper {
	if style == TimestampLocale {
		if loc == "" {
			loc = s.defaultLocale
		}
		return embed.NewUnwrapper(nil, s.locales.Formatter(loc))
	}
	return embed.NewUnwrapper(nil, nil)
}

// policyRequester adapts the policy store to the embed package's
// capability predicate.
type policyRequester struct {
	store PolicyStore
}

func (p policyRequester) EmbedRequested(ctx context.Context, dest embed.Destination) (bool, error) {
	return p.store.EmbedAllowed(ctx, string(dest))
}
