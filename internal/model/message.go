// Package model defines the shared types and error taxonomy for the proxy.
package model

// ContactMessage is a stored contact-form submission.
//
// The ID is the creation timestamp in milliseconds; the store bumps it
// monotonically so two submissions in the same millisecond cannot collide.
// Read is part of the persisted schema for compatibility with existing
// data files; no route currently sets or filters on it.
type ContactMessage struct {
	ID      int64  `json:"id"`
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
	Date    string `json:"date"` // ISO-8601 creation time
	Read    bool   `json:"read"`
}

// ContactRequest is the inbound contact-form payload.
type ContactRequest struct {
	Name    string `json:"name"`
	Email   string `json:"email"`
	Phone   string `json:"phone"`
	Message string `json:"message"`
}

// ReplyRequest asks the server to send an email to an arbitrary recipient.
type ReplyRequest struct {
	To      string `json:"to"`
	Subject string `json:"subject"`
	Message string `json:"message"`
}

// ForwardRequest asks the server to forward a stored message, quoting the
// original metadata and body below the added note.
type ForwardRequest struct {
	To       string          `json:"to"`
	Subject  string          `json:"subject"`
	Note     string          `json:"note"`
	Original *ContactMessage `json:"original"`
}

// OrderNotification is the payload sent to the print team after checkout.
type OrderNotification struct {
	OrderID string      `json:"orderId"`
	Total   string      `json:"total"`
	Items   []OrderItem `json:"items"`
}

// OrderItem is a single line item in an order notification.
type OrderItem struct {
	Product  string `json:"product"`
	Size     string `json:"size"`
	Color    string `json:"color"` // hex swatch, e.g. "#1a1a1a"
	Quantity int    `json:"quantity"`
	ImageURL string `json:"imageUrl"`
}

// UploadRequest carries a base64 data-URI image destined for the WordPress
// media library.
type UploadRequest struct {
	Image    string `json:"image"`
	Filename string `json:"filename"`
}
