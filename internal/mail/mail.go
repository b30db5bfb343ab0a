// Package mail sends operator and customer email over implicit-TLS SMTP.
//
// Delivery is a side channel: the contact-form and order paths never fail
// their HTTP response on a mail error, and when SMTP is not configured at
// all the dispatcher logs the composed content instead of sending. Reply
// and forward are explicit outbound actions, so their callers surface the
// error.
package mail

import (
	"context"
	"crypto/tls"
	"fmt"
	"html"
	"log/slog"
	"net"
	"net/smtp"
	"strconv"
	"strings"
	"time"

	"storefront-proxy/internal/config"
	"storefront-proxy/internal/model"
)

// SendFunc delivers a raw RFC 5322 message. Swappable for tests.
type SendFunc func(ctx context.Context, from string, to []string, raw []byte) error

// Message is a composed email before MIME encoding.
type Message struct {
	To      []string
	Subject string
	Text    string
	HTML    string
}

// Dispatcher composes and sends the four operator/customer messages.
type Dispatcher struct {
	cfg    config.SMTPConfig
	logger *slog.Logger
	send   SendFunc
}

// New creates a Dispatcher using the real SMTP transport.
func New(cfg config.SMTPConfig, logger *slog.Logger) *Dispatcher {
	return &Dispatcher{cfg: cfg, logger: logger, send: smtpSend(cfg)}
}

// NewWithSender creates a Dispatcher with a custom transport, for tests.
func NewWithSender(cfg config.SMTPConfig, logger *slog.Logger, send SendFunc) *Dispatcher {
	return &Dispatcher{cfg: cfg, logger: logger, send: send}
}

// Configured reports whether the SMTP transport is usable.
func (d *Dispatcher) Configured() bool {
	return d.cfg.Host != "" && d.cfg.User != "" && d.cfg.Pass != ""
}

// SendContactNotification emails the operator about a new contact-form
// submission. Callers treat failure as best-effort: the message is already
// persisted locally.
func (d *Dispatcher) SendContactNotification(ctx context.Context, msg model.ContactMessage) error {
	m := &Message{
		To:      []string{d.cfg.ContactTo},
		Subject: fmt.Sprintf("New contact message from %s", msg.Name),
		Text: fmt.Sprintf("Name: %s\nEmail: %s\nPhone: %s\n\n%s",
			msg.Name, msg.Email, msg.Phone, msg.Message),
		HTML: fmt.Sprintf(
			"<p><strong>Name:</strong> %s<br><strong>Email:</strong> %s<br><strong>Phone:</strong> %s</p><p>%s</p>",
			html.EscapeString(msg.Name), html.EscapeString(msg.Email),
			html.EscapeString(msg.Phone), html.EscapeString(msg.Message)),
	}
	return d.deliver(ctx, m)
}

// SendReply emails an arbitrary recipient on behalf of the admin UI.
func (d *Dispatcher) SendReply(ctx context.Context, to, subject, body string) error {
	m := &Message{
		To:      []string{to},
		Subject: subject,
		Text:    body,
		HTML:    "<p>" + strings.ReplaceAll(html.EscapeString(body), "\n", "<br>") + "</p>",
	}
	return d.deliver(ctx, m)
}

// SendForward emails a recipient with a quoted copy of the original
// message's metadata and body below the added note.
func (d *Dispatcher) SendForward(ctx context.Context, to, subject, note string, original *model.ContactMessage) error {
	quoted := fmt.Sprintf(
		`<blockquote style="border-left:2px solid #ccc;margin:1em 0;padding-left:1em;color:#555">`+
			"<p><strong>From:</strong> %s &lt;%s&gt;<br><strong>Date:</strong> %s</p><p>%s</p></blockquote>",
		html.EscapeString(original.Name), html.EscapeString(original.Email),
		html.EscapeString(original.Date), html.EscapeString(original.Message))

	m := &Message{
		To:      []string{to},
		Subject: subject,
		Text: fmt.Sprintf("%s\n\n---------- Forwarded message ----------\nFrom: %s <%s>\nDate: %s\n\n%s",
			note, original.Name, original.Email, original.Date, original.Message),
		HTML: "<p>" + strings.ReplaceAll(html.EscapeString(note), "\n", "<br>") + "</p>" + quoted,
	}
	return d.deliver(ctx, m)
}

// SendOrderNotification emails the print team a per-line-item table for a
// new order. Checkout never depends on this succeeding: the upstream order
// is the source of truth.
func (d *Dispatcher) SendOrderNotification(ctx context.Context, order model.OrderNotification) error {
	var rows strings.Builder
	for _, item := range order.Items {
		swatch := item.Color
		if swatch == "" {
			swatch = "#ffffff"
		}
		imageCell := ""
		if item.ImageURL != "" {
			imageCell = fmt.Sprintf(
				`<img src="%s" alt="" width="80" style="display:block">`,
				html.EscapeString(item.ImageURL))
		}
		fmt.Fprintf(&rows,
			`<tr>`+
				`<td style="padding:6px;border:1px solid #ddd">%s</td>`+
				`<td style="padding:6px;border:1px solid #ddd">%s</td>`+
				`<td style="padding:6px;border:1px solid #ddd;background-color:%s">%s</td>`+
				`<td style="padding:6px;border:1px solid #ddd;text-align:center">%d</td>`+
				`<td style="padding:6px;border:1px solid #ddd;background-color:%s">%s</td>`+
				`</tr>`,
			html.EscapeString(item.Product), html.EscapeString(item.Size),
			swatch, html.EscapeString(item.Color),
			item.Quantity,
			swatch, imageCell)
	}

	m := &Message{
		To:      d.cfg.OrderTo,
		Subject: fmt.Sprintf("New order #%s", order.OrderID),
		HTML: fmt.Sprintf(
			`<h2>Order #%s</h2>`+
				`<table style="border-collapse:collapse">`+
				`<tr><th>Product</th><th>Size</th><th>Color</th><th>Qty</th><th>Image</th></tr>`+
				`%s</table><p><strong>Total:</strong> %s</p>`,
			html.EscapeString(order.OrderID), rows.String(), html.EscapeString(order.Total)),
	}
	return d.deliver(ctx, m)
}

// deliver sends a composed message, or logs its content when SMTP is not
// configured so the flow degrades to log-only instead of throwing.
func (d *Dispatcher) deliver(ctx context.Context, m *Message) error {
	if !d.Configured() {
		d.logger.Warn("SMTP not configured, logging mail instead",
			slog.String("to", strings.Join(m.To, ", ")),
			slog.String("subject", m.Subject),
			slog.String("text", m.Text),
		)
		return model.ErrMailDisabled
	}
	if len(m.To) == 0 || m.To[0] == "" {
		return fmt.Errorf("no recipient for %q", m.Subject)
	}
	if err := d.send(ctx, d.cfg.User, m.To, encodeMIME(d.cfg.User, m)); err != nil {
		return fmt.Errorf("sending %q: %w", m.Subject, err)
	}
	return nil
}

// encodeMIME renders the message as RFC 5322 text. Both bodies present
// yields multipart/alternative with HTML last (preferred by clients).
func encodeMIME(from string, m *Message) []byte {
	var b strings.Builder
	fmt.Fprintf(&b, "From: %s\r\n", from)
	fmt.Fprintf(&b, "To: %s\r\n", strings.Join(m.To, ", "))
	fmt.Fprintf(&b, "Subject: %s\r\n", m.Subject)
	fmt.Fprintf(&b, "Date: %s\r\n", time.Now().Format(time.RFC1123Z))
	b.WriteString("MIME-Version: 1.0\r\n")

	switch {
	case m.Text != "" && m.HTML != "":
		const boundary = "storefront-alt-boundary"
		fmt.Fprintf(&b, "Content-Type: multipart/alternative; boundary=%q\r\n\r\n", boundary)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", boundary, m.Text)
		fmt.Fprintf(&b, "--%s\r\nContent-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", boundary, m.HTML)
		fmt.Fprintf(&b, "--%s--\r\n", boundary)
	case m.HTML != "":
		fmt.Fprintf(&b, "Content-Type: text/html; charset=utf-8\r\n\r\n%s\r\n", m.HTML)
	default:
		fmt.Fprintf(&b, "Content-Type: text/plain; charset=utf-8\r\n\r\n%s\r\n", m.Text)
	}
	return []byte(b.String())
}

// smtpSend returns the real transport: implicit TLS on the configured
// port (465 by default), PLAIN auth, one connection per message.
func smtpSend(cfg config.SMTPConfig) SendFunc {
	return func(ctx context.Context, from string, to []string, raw []byte) error {
		addr := net.JoinHostPort(cfg.Host, strconv.Itoa(cfg.Port))
		dialer := &tls.Dialer{
			NetDialer: &net.Dialer{Timeout: 15 * time.Second},
			Config:    &tls.Config{ServerName: cfg.Host},
		}
		conn, err := dialer.DialContext(ctx, "tcp", addr)
		if err != nil {
			return fmt.Errorf("dialing %s: %w", addr, err)
		}

		client, err := smtp.NewClient(conn, cfg.Host)
		if err != nil {
			conn.Close()
			return fmt.Errorf("smtp handshake: %w", err)
		}
		defer client.Close()

		if err := client.Auth(smtp.PlainAuth("", cfg.User, cfg.Pass, cfg.Host)); err != nil {
			return fmt.Errorf("smtp auth: %w", err)
		}
		if err := client.Mail(from); err != nil {
			return fmt.Errorf("smtp MAIL FROM: %w", err)
		}
		for _, rcpt := range to {
			if err := client.Rcpt(rcpt); err != nil {
				return fmt.Errorf("smtp RCPT TO %s: %w", rcpt, err)
			}
		}
		w, err := client.Data()
		if err != nil {
			return fmt.Errorf("smtp DATA: %w", err)
		}
		if _, err := w.Write(raw); err != nil {
			w.Close()
			return fmt.Errorf("smtp write: %w", err)
		}
		if err := w.Close(); err != nil {
			return fmt.Errorf("smtp close: %w", err)
		}
		return client.Quit()
	}
}
