package handler

import (
	"log/slog"
	"net/http"

	"storefront-proxy/internal/model"
)

// handleOrderNotification emails the print team about a completed order.
// The upstream order is already placed when this fires, so mail failure is
// logged and the caller still gets a success: checkout must never appear
// to fail because a notification could not be delivered.
func (h *Handler) handleOrderNotification(w http.ResponseWriter, r *http.Request) {
	var req model.OrderNotification
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, err)
		return
	}

	if req.OrderID == "" || len(req.Items) == 0 {
		h.writeError(w, model.NewValidationError("order", "orderId and items are required"))
		return
	}

	if err := h.mailer.SendOrderNotification(r.Context(), req); err != nil {
		h.logger.Warn("order notification mail failed",
			slog.String("order_id", req.OrderID),
			slog.String("error", err.Error()))
	}

	h.writeSuccess(w)
}
