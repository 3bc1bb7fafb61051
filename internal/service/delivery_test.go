package service

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"strings"
	"testing"

	"proxyembed/internal/domain"
	"proxyembed/internal/domain/models"
	"proxyembed/internal/embed"
	"proxyembed/internal/locale"
)

type fakePolicyStore struct {
	allowed map[string]bool
	err     error
}

func newFakePolicyStore() *fakePolicyStore {
	return &fakePolicyStore{allowed: make(map[string]bool)}
}

func (f *fakePolicyStore) SetEmbedAllowed(ctx context.Context, destination string, allowed bool) error {
	if f.err != nil {
		return f.err
	}
	f.allowed[destination] = allowed
	return nil
}

func (f *fakePolicyStore) EmbedAllowed(ctx context.Context, destination string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	allowed, ok := f.allowed[destination]
	if !ok {
		return true, nil
	}
	return allowed, nil
}

func (f *fakePolicyStore) Policy(ctx context.Context, destination string) (bool, error) {
	if f.err != nil {
		return false, f.err
	}
	allowed, ok := f.allowed[destination]
	if !ok {
		return false, &domain.NotFoundError{Message: "no policy"}
	}
	return allowed, nil
}

func (f *fakePolicyStore) ClearPolicy(ctx context.Context, destination string) error {
	delete(f.allowed, destination)
	return nil
}

type fakeDeliverer struct {
	calls int
	last  embed.Delivery
	err   error
}

func (f *fakeDeliverer) Deliver(ctx context.Context, dest embed.Destination, d embed.Delivery) (*embed.DeliveredMessage, error) {
	f.calls++
	f.last = d
	if f.err != nil {
		return nil, f.err
	}
	return &embed.DeliveredMessage{ID: "m-1", Mode: d.Mode(), Text: d.Text}, nil
}

type fakeDeliveryLog struct {
	records []models.DeliveryRecord
	err     error
}

func (f *fakeDeliveryLog) Record(ctx context.Context, record *models.DeliveryRecord) error {
	if f.err != nil {
		return f.err
	}
	f.records = append(f.records, *record)
	return nil
}

func (f *fakeDeliveryLog) ListByDestination(ctx context.Context, destination string, limit int) ([]models.DeliveryRecord, error) {
	var out []models.DeliveryRecord
	for _, r := range f.records {
		if r.Destination == destination {
			out = append(out, r)
		}
	}
	return out, nil
}

func newTestService(t *testing.T) (*DeliveryService, *fakePolicyStore, *fakeDeliverer, *fakeDeliveryLog) {
	t.Helper()
	locales, err := locale.NewRegistry()
	if err != nil {
		t.Fatalf("failed to load locale registry: %v", err)
	}
	policies := newFakePolicyStore()
	deliverer := &fakeDeliverer{}
	log := &fakeDeliveryLog{}
	logger := slog.New(slog.NewTextHandler(os.Stdout, nil))
	return NewDeliveryService(policies, deliverer, log, locales, "", logger), policies, deliverer, log
}

const testDest = "https://hooks.example/wh/1"

func testDoc() *embed.Document {
	return embed.New(embed.Embed{
		Title:       "T",
		Description: "D",
		Fields:      []embed.Field{{Name: "N", Value: "V", Inline: true}},
	})
}

// TestSend_RichByDefault checks destinations without a policy get rich delivery
func TestSend_RichByDefault(t *testing.T) {
	svc, _, deliverer, log := newTestService(t)

	msg, err := svc.Send(context.Background(), &SendRequest{
		Destination: testDest,
		Document:    testDoc(),
		Content:     "hi",
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Mode != embed.ModeRich {
		t.Errorf("expected rich delivery, got %q", msg.Mode)
	}
	if deliverer.last.Document == nil {
		t.Error("expected the raw document to reach the transport")
	}
	if len(log.records) != 1 || log.records[0].Mode != "rich" {
		t.Errorf("expected one rich delivery record, got %+v", log.records)
	}
	if log.records[0].Content != "hi" {
		t.Errorf("rich record should keep the raw content, got %q", log.records[0].Content)
	}
}

// TestSend_DegradesWhenDisallowed checks the policy store drives degradation
func TestSend_DegradesWhenDisallowed(t *testing.T) {
	svc, policies, deliverer, log := newTestService(t)
	policies.allowed[testDest] = false

	msg, err := svc.Send(context.Background(), &SendRequest{
		Destination: testDest,
		Document:    testDoc(),
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg.Mode != embed.ModeText {
		t.Errorf("expected text delivery, got %q", msg.Mode)
	}
	want := "**T**\n\n> D\n\n**N** | V"
	if deliverer.last.Text != want {
		t.Errorf("unexpected degraded text:\ngot:  %q\nwant: %q", deliverer.last.Text, want)
	}
	if len(log.records) != 1 || log.records[0].Mode != "text" {
		t.Errorf("expected one text delivery record, got %+v", log.records)
	}
	if log.records[0].Content != want {
		t.Errorf("text record should keep the rendering, got %q", log.records[0].Content)
	}
}

// TestSend_Validation checks bad requests never reach the transport
func TestSend_Validation(t *testing.T) {
	svc, _, deliverer, _ := newTestService(t)

	tests := []struct {
		name string
		req  *SendRequest
	}{
		{"missing destination", &SendRequest{Document: testDoc()}},
		{"not a URL", &SendRequest{Destination: "::nope::", Document: testDoc()}},
		{"missing document", &SendRequest{Destination: testDest}},
		{"empty document", &SendRequest{Destination: testDest, Document: embed.New(embed.Embed{})}},
		{"bad field", &SendRequest{Destination: testDest, Document: embed.New(embed.Embed{
			Fields: []embed.Field{{Name: "", Value: "v"}},
		})}},
		{"bad timestamp style", &SendRequest{Destination: testDest, Document: testDoc(), TimestampStyle: "fancy"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Send(context.Background(), tt.req)
			if !errors.Is(err, domain.ErrValidation) {
				t.Errorf("expected validation error, got %v", err)
			}
		})
	}
	if deliverer.calls != 0 {
		t.Error("invalid requests must not reach the transport")
	}
}

// TestSend_UnrenderableDocument checks an attachment-only embed on a text
// destination maps to a validation error, not a transport failure
func TestSend_UnrenderableDocument(t *testing.T) {
	svc, policies, deliverer, log := newTestService(t)
	policies.allowed[testDest] = false

	_, err := svc.Send(context.Background(), &SendRequest{
		Destination: testDest,
		Document:    embed.New(embed.Embed{Thumbnail: embed.Media{URL: "attachment://shot.png"}}),
	})
	if !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error, got %v", err)
	}
	if deliverer.calls != 0 {
		t.Error("an unrenderable send must not reach the transport")
	}
	if len(log.records) != 0 {
		t.Errorf("an unrenderable send must not be recorded, got %+v", log.records)
	}
}

// TestSend_PolicyStoreErrorAborts checks a failing capability check never degrades
func TestSend_PolicyStoreErrorAborts(t *testing.T) {
	svc, policies, deliverer, _ := newTestService(t)
	policies.err = errors.New("redis down")

	_, err := svc.Send(context.Background(), &SendRequest{
		Destination: testDest,
		Document:    testDoc(),
	})
	if err == nil || !strings.Contains(err.Error(), "redis down") {
		t.Errorf("expected the store error to surface, got %v", err)
	}
	if deliverer.calls != 0 {
		t.Error("no delivery may happen when the capability check fails")
	}
}

// TestSend_RecordFailureDoesNotFailSend checks log failures stay internal
func TestSend_RecordFailureDoesNotFailSend(t *testing.T) {
	svc, _, _, log := newTestService(t)
	log.err = errors.New("pg down")

	msg, err := svc.Send(context.Background(), &SendRequest{
		Destination: testDest,
		Document:    testDoc(),
	})
	if err != nil {
		t.Fatalf("Send failed: %v", err)
	}
	if msg == nil || msg.Mode != embed.ModeRich {
		t.Error("delivery receipt should still be returned")
	}
}

// TestRender checks preview rendering with the locale timestamp style
func TestRender(t *testing.T) {
	svc, _, deliverer, _ := newTestService(t)

	doc := testDoc()
	doc.Overwrites().Description = embed.Empty()

	result, err := svc.Render(context.Background(), &RenderRequest{
		Document: doc,
		Content:  "hello",
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	want := "hello\n\n**T**\n\n**N** | V"
	if result.Text != want {
		t.Errorf("unexpected preview:\ngot:  %q\nwant: %q", result.Text, want)
	}
	if result.Mentions.Everyone != embed.MentionDeny {
		t.Error("preview should report the suppressed mention policy")
	}
	if deliverer.calls != 0 {
		t.Error("render must never deliver")
	}
}

// TestRender_LocaleTimestamps checks the locale fallback formatter is wired through
func TestRender_LocaleTimestamps(t *testing.T) {
	svc, _, _, _ := newTestService(t)

	doc := testDoc()
	result, err := svc.Render(context.Background(), &RenderRequest{
		Document:       doc,
		Locale:         "de",
		TimestampStyle: TimestampLocale,
	})
	if err != nil {
		t.Fatalf("Render failed: %v", err)
	}
	// No timestamp on the document; rendering still succeeds
	if result.Text == "" {
		t.Error("expected non-empty preview")
	}
}

// TestPolicyRoundTrip checks set, get and clear through the service
func TestPolicyRoundTrip(t *testing.T) {
	svc, _, _, _ := newTestService(t)
	ctx := context.Background()

	if _, err := svc.GetPolicy(ctx, testDest); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not-found before set, got %v", err)
	}
	if err := svc.SetPolicy(ctx, testDest, false); err != nil {
		t.Fatalf("SetPolicy failed: %v", err)
	}
	allowed, err := svc.GetPolicy(ctx, testDest)
	if err != nil {
		t.Fatalf("GetPolicy failed: %v", err)
	}
	if allowed {
		t.Error("expected embeds disallowed")
	}
	if err := svc.ClearPolicy(ctx, testDest); err != nil {
		t.Fatalf("ClearPolicy failed: %v", err)
	}
	if _, err := svc.GetPolicy(ctx, testDest); !errors.Is(err, domain.ErrNotFound) {
		t.Errorf("expected not-found after clear, got %v", err)
	}
}

// TestDeliveries checks history listing and the limit guard
func TestDeliveries(t *testing.T) {
	svc, _, _, log := newTestService(t)
	log.records = []models.DeliveryRecord{
		{ID: "a", Destination: testDest, Mode: "text"},
		{ID: "b", Destination: "https://other.example/wh", Mode: "rich"},
	}

	records, err := svc.Deliveries(context.Background(), testDest, 0)
	if err != nil {
		t.Fatalf("Deliveries failed: %v", err)
	}
	if len(records) != 1 || records[0].ID != "a" {
		t.Errorf("unexpected history: %+v", records)
	}

	if _, err := svc.Deliveries(context.Background(), "", 10); !errors.Is(err, domain.ErrValidation) {
		t.Errorf("expected validation error for empty destination, got %v", err)
	}
}
