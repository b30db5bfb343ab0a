package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"storefront-proxy/internal/model"
)

// handleContact stores a contact-form submission and notifies the operator
// by email on a best-effort basis. The submission succeeds as soon as the
// message is persisted; mail failure is logged, never surfaced.
func (h *Handler) handleContact(w http.ResponseWriter, r *http.Request) {
	var req model.ContactRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if strings.TrimSpace(req.Name) == "" ||
		strings.TrimSpace(req.Email) == "" ||
		strings.TrimSpace(req.Message) == "" {
		h.writeError(w, model.NewValidationError("contact", "name, email and message are required"))
		return
	}

	stored, err := h.store.Append(model.ContactMessage{
		Name:    req.Name,
		Email:   req.Email,
		Phone:   req.Phone,
		Message: req.Message,
	})
	if err != nil {
		h.writeError(w, err)
		return
	}

	if err := h.mailer.SendContactNotification(r.Context(), stored); err != nil {
		h.logger.Warn("contact notification mail failed",
			slog.Int64("message_id", stored.ID),
			slog.String("error", err.Error()))
	}

	h.writeSuccess(w)
}

// handleListMessages returns the stored messages, newest first.
func (h *Handler) handleListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := h.store.List()
	if err != nil {
		h.writeError(w, err)
		return
	}
	h.writeJSON(w, http.StatusOK, messages)
}

// handleDeleteMessage deletes one stored message by id.
func (h *Handler) handleDeleteMessage(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.store.Delete(id); err != nil {
		if errors.Is(err, model.ErrNotFound) {
			h.writeError(w, model.NewNotFoundError("message"))
			return
		}
		h.writeError(w, err)
		return
	}
	h.writeSuccess(w)
}

// handleReply sends an email to an arbitrary recipient on behalf of the
// admin UI. Unlike the contact notification this is an explicit outbound
// action, so SMTP being unset or failing is a hard 500.
func (h *Handler) handleReply(w http.ResponseWriter, r *http.Request) {
	var req model.ReplyRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.To == "" || req.Subject == "" || req.Message == "" {
		h.writeError(w, model.NewValidationError("reply", "to, subject and message are required"))
		return
	}

	if err := h.mailer.SendReply(r.Context(), req.To, req.Subject, req.Message); err != nil {
		h.writeError(w, h.mailSendError(err))
		return
	}
	h.writeSuccess(w)
}

// handleForward forwards a stored message with a quoted copy of the
// original below the added note. Same hard-failure policy as reply.
func (h *Handler) handleForward(w http.ResponseWriter, r *http.Request) {
	var req model.ForwardRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.To == "" || req.Subject == "" || req.Original == nil {
		h.writeError(w, model.NewValidationError("forward", "to, subject and original message are required"))
		return
	}

	if err := h.mailer.SendForward(r.Context(), req.To, req.Subject, req.Note, req.Original); err != nil {
		h.writeError(w, h.mailSendError(err))
		return
	}
	h.writeSuccess(w)
}

// mailSendError maps dispatcher errors to the API error taxonomy.
func (h *Handler) mailSendError(err error) error {
	if errors.Is(err, model.ErrMailDisabled) {
		return model.NewMailDisabledError()
	}
	return model.NewMailError(err)
}
