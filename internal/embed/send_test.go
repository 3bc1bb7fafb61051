package embed

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"testing"
)

type stubRequester struct {
	requested bool
	err       error
	calls     int
}

func (s *stubRequester) EmbedRequested(ctx context.Context, dest Destination) (bool, error) {
	s.calls++
	return s.requested, s.err
}

type stubDeliverer struct {
	err      error
	calls    int
	lastDest Destination
	last     Delivery
}

func (s *stubDeliverer) Deliver(ctx context.Context, dest Destination, d Delivery) (*DeliveredMessage, error) {
	s.calls++
	s.lastDest = dest
	s.last = d
	if s.err != nil {
		return nil, s.err
	}
	return &DeliveredMessage{ID: "msg-1", Mode: d.Mode(), Text: d.Text}, nil
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stdout, nil))
}

// TestSendTo_RichPath checks the raw document bypasses the unwrapper entirely
func TestSendTo_RichPath(t *testing.T) {
	requester := &stubRequester{requested: true}
	deliverer := &stubDeliverer{}
	sender := NewSender(requester, deliverer, nil, testLogger())

	doc := New(Embed{Title: "T"})
	doc.Overwrites().Title = Value("ignored on rich delivery")
	mentions := &MentionPolicy{Roles: MentionAllow}

	msg, err := sender.SendTo(context.Background(), "dest-1", doc, SendOptions{
		Content:  "hello",
		Mentions: mentions,
	})
	if err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}
	if msg.Mode != ModeRich {
		t.Errorf("expected rich mode, got %q", msg.Mode)
	}
	if deliverer.last.Document == nil || deliverer.last.Text != "" {
		t.Error("expected a rich delivery payload")
	}
	if deliverer.last.Content != "hello" {
		t.Errorf("expected raw content to pass through, got %q", deliverer.last.Content)
	}
	// Rich delivery keeps the caller's mention policy untouched
	if deliverer.last.Mentions != mentions {
		t.Error("expected caller mention policy to pass through unsuppressed")
	}
}

// TestSendTo_TextPath checks degradation renders text and suppresses mentions
func TestSendTo_TextPath(t *testing.T) {
	requester := &stubRequester{requested: false}
	deliverer := &stubDeliverer{}
	sender := NewSender(requester, deliverer, nil, testLogger())

	doc := New(Embed{Title: "T", Description: "D"})

	msg, err := sender.SendTo(context.Background(), "dest-1", doc, SendOptions{Content: "hi"})
	if err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}
	if msg.Mode != ModeText {
		t.Errorf("expected text mode, got %q", msg.Mode)
	}
	if deliverer.last.Document != nil {
		t.Error("text delivery should not carry the document")
	}
	want := "hi\n\n**T**\n\n> D"
	if deliverer.last.Text != want {
		t.Errorf("unexpected text payload:\ngot:  %q\nwant: %q", deliverer.last.Text, want)
	}
	if deliverer.last.Mentions == nil {
		t.Fatal("text delivery must carry a mention policy")
	}
	if deliverer.last.Mentions.Everyone != MentionDeny {
		t.Error("expected broadcast mentions denied")
	}
}

// TestSendTo_CapabilityError checks an erroring predicate aborts instead of degrading
func TestSendTo_CapabilityError(t *testing.T) {
	boom := errors.New("capability check exploded")
	requester := &stubRequester{err: boom}
	deliverer := &stubDeliverer{}
	sender := NewSender(requester, deliverer, nil, testLogger())

	_, err := sender.SendTo(context.Background(), "dest-1", New(Embed{Title: "T"}), SendOptions{})
	if !errors.Is(err, boom) {
		t.Errorf("expected the collaborator error unchanged, got %v", err)
	}
	if deliverer.calls != 0 {
		t.Error("no delivery may happen after a failed capability check")
	}
}

// TestSendTo_DeliveryError checks transport failures propagate unchanged
func TestSendTo_DeliveryError(t *testing.T) {
	boom := errors.New("transport exploded")
	requester := &stubRequester{requested: true}
	deliverer := &stubDeliverer{err: boom}
	sender := NewSender(requester, deliverer, nil, testLogger())

	_, err := sender.SendTo(context.Background(), "dest-1", New(Embed{Title: "T"}), SendOptions{})
	if !errors.Is(err, boom) {
		t.Errorf("expected the transport error unchanged, got %v", err)
	}
	if requester.calls != 1 || deliverer.calls != 1 {
		t.Error("expected exactly one capability check and one delivery attempt")
	}
}

// TestSendTo_UnrenderableDocument checks a document that degrades to nothing fails instead of delivering
func TestSendTo_UnrenderableDocument(t *testing.T) {
	requester := &stubRequester{requested: false}
	deliverer := &stubDeliverer{}
	sender := NewSender(requester, deliverer, nil, testLogger())

	// Attachment-scheme media is suppressed on unwrap, leaving nothing
	doc := New(Embed{Thumbnail: Media{URL: "attachment://shot.png"}})
	_, err := sender.SendTo(context.Background(), "dest-1", doc, SendOptions{})
	if !errors.Is(err, ErrUnrenderable) {
		t.Errorf("expected ErrUnrenderable, got %v", err)
	}
	if deliverer.calls != 0 {
		t.Error("no delivery may happen for an unrenderable document")
	}

	// Overwrites blanking every populated leaf end up in the same place
	doc = New(Embed{Title: "T", Description: "D"})
	doc.Overwrites().Title = Empty()
	doc.Overwrites().Description = Empty()
	_, err = sender.SendTo(context.Background(), "dest-1", doc, SendOptions{})
	if !errors.Is(err, ErrUnrenderable) {
		t.Errorf("expected ErrUnrenderable, got %v", err)
	}

	// Raw caller content alone is enough to render
	msg, err := sender.SendTo(context.Background(), "dest-1", doc, SendOptions{Content: "hi"})
	if err != nil {
		t.Fatalf("SendTo failed: %v", err)
	}
	if msg.Mode != ModeText || deliverer.last.Text != "hi" {
		t.Errorf("expected the raw content delivered as text, got %+v", deliverer.last)
	}
}

// TestDeliveryMode checks the one-of contract on Delivery
func TestDeliveryMode(t *testing.T) {
	rich := Delivery{Document: New(Embed{Title: "T"})}
	if rich.Mode() != ModeRich {
		t.Error("expected rich mode")
	}

	text := Delivery{Text: "t"}
	if text.Mode() != ModeText {
		t.Error("expected text mode")
	}

	defer func() {
		if recover() == nil {
			t.Fatal("expected Mode() to panic when both payloads are set")
		}
	}()
	both := Delivery{Document: New(Embed{Title: "T"}), Text: "t"}
	both.Mode()
}
