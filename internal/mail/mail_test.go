package mail

import (
	"bytes"
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"

	"storefront-proxy/internal/config"
	"storefront-proxy/internal/model"
)

func configured() config.SMTPConfig {
	return config.SMTPConfig{
		Host:      "smtp.example.com",
		Port:      465,
		User:      "mailer@example.com",
		Pass:      "secret",
		ContactTo: "owner@example.com",
		OrderTo:   []string{"print@example.com", "ops@example.com"},
	}
}

// capture records the last delivery handed to the transport.
type capture struct {
	from string
	to   []string
	raw  []byte
	err  error
}

func (c *capture) send(ctx context.Context, from string, to []string, raw []byte) error {
	c.from = from
	c.to = to
	c.raw = raw
	return c.err
}

func testDispatcher(cfg config.SMTPConfig, c *capture) *Dispatcher {
	return NewWithSender(cfg, slog.New(slog.NewTextHandler(io.Discard, nil)), c.send)
}

func TestSendContactNotification(t *testing.T) {
	c := &capture{}
	d := testDispatcher(configured(), c)

	err := d.SendContactNotification(context.Background(), model.ContactMessage{
		Name:    "Ada",
		Email:   "ada@example.com",
		Phone:   "555-0100",
		Message: "I'd like a custom print",
	})
	if err != nil {
		t.Fatalf("SendContactNotification() error: %v", err)
	}

	if len(c.to) != 1 || c.to[0] != "owner@example.com" {
		t.Errorf("to = %v, want [owner@example.com]", c.to)
	}
	raw := string(c.raw)
	if !strings.Contains(raw, "Subject: New contact message from Ada") {
		t.Errorf("subject missing from message:\n%s", raw)
	}
	if !strings.Contains(raw, "multipart/alternative") {
		t.Errorf("expected multipart/alternative message:\n%s", raw)
	}
	if !strings.Contains(raw, "I&#39;d like a custom print") {
		t.Errorf("HTML body not escaped/present:\n%s", raw)
	}
}

func TestSendReply(t *testing.T) {
	c := &capture{}
	d := testDispatcher(configured(), c)

	err := d.SendReply(context.Background(), "customer@example.com", "Re: your inquiry", "Thanks!\nWe ship Monday.")
	if err != nil {
		t.Fatalf("SendReply() error: %v", err)
	}
	if len(c.to) != 1 || c.to[0] != "customer@example.com" {
		t.Errorf("to = %v, want [customer@example.com]", c.to)
	}
	if !strings.Contains(string(c.raw), "Thanks!") {
		t.Error("reply body missing")
	}
}

func TestSendForwardQuotesOriginal(t *testing.T) {
	c := &capture{}
	d := testDispatcher(configured(), c)

	err := d.SendForward(context.Background(), "partner@example.com", "Fwd: inquiry", "See below.",
		&model.ContactMessage{
			Name:    "Ada",
			Email:   "ada@example.com",
			Date:    "2026-08-01T10:00:00Z",
			Message: "original body",
		})
	if err != nil {
		t.Fatalf("SendForward() error: %v", err)
	}

	raw := string(c.raw)
	for _, want := range []string{"blockquote", "ada@example.com", "2026-08-01T10:00:00Z", "original body", "See below."} {
		if !strings.Contains(raw, want) {
			t.Errorf("forward missing %q:\n%s", want, raw)
		}
	}
}

func TestSendOrderNotification(t *testing.T) {
	c := &capture{}
	d := testDispatcher(configured(), c)

	err := d.SendOrderNotification(context.Background(), model.OrderNotification{
		OrderID: "1042",
		Total:   "€59.80",
		Items: []model.OrderItem{
			{Product: "Classic Tee", Size: "M", Color: "#1a1a1a", Quantity: 2, ImageURL: "https://cdn.example.com/design.png"},
			{Product: "Mug", Size: "-", Quantity: 1},
		},
	})
	if err != nil {
		t.Fatalf("SendOrderNotification() error: %v", err)
	}

	if len(c.to) != 2 {
		t.Errorf("to = %v, want both print-team addresses", c.to)
	}
	raw := string(c.raw)
	for _, want := range []string{
		"Subject: New order #1042",
		"Classic Tee",
		`background-color:#1a1a1a`,
		"https://cdn.example.com/design.png",
		"€59.80",
	} {
		if !strings.Contains(raw, want) {
			t.Errorf("order mail missing %q", want)
		}
	}
}

func TestUnconfiguredDegradesToLogOnly(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, nil))
	c := &capture{}
	d := NewWithSender(config.SMTPConfig{}, logger, c.send)

	err := d.SendContactNotification(context.Background(), model.ContactMessage{
		Name: "Ada", Email: "ada@example.com", Message: "hello",
	})
	if !errors.Is(err, model.ErrMailDisabled) {
		t.Fatalf("error = %v, want ErrMailDisabled", err)
	}
	if c.raw != nil {
		t.Error("transport called despite SMTP being unconfigured")
	}
	if !strings.Contains(buf.String(), "logging mail instead") {
		t.Errorf("content not logged: %s", buf.String())
	}
}

func TestTransportFailureSurfaces(t *testing.T) {
	c := &capture{err: errors.New("connection refused")}
	d := testDispatcher(configured(), c)

	err := d.SendReply(context.Background(), "x@example.com", "s", "b")
	if err == nil || !strings.Contains(err.Error(), "connection refused") {
		t.Errorf("error = %v, want wrapped transport failure", err)
	}
}
