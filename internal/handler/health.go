package handler

import (
	"net/http"
	"time"

	"storefront-proxy/internal/config"
)

type healthResponse struct {
	Status      string            `json:"status"`
	Environment string            `json:"environment"`
	Uptime      string            `json:"uptime"`
	EnvFile     string            `json:"env_file,omitempty"`
	Upstream    string            `json:"upstream"`
	Credentials map[string]string `json:"credentials"`
	Mail        bool              `json:"mail_configured"`
}

// handleHealth reports process status and a masked view of the loaded
// credentials, enough for an operator to spot a truncated or misquoted
// value without the log ever holding the secret itself.
func (h *Handler) handleHealth(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, healthResponse{
		Status:      "ok",
		Environment: h.cfg.Environment,
		Uptime:      time.Since(h.startTime).Round(time.Second).String(),
		EnvFile:     h.cfg.EnvFile,
		Upstream:    h.cfg.WordPress.APIURL,
		Credentials: map[string]string{
			"consumer_key":    config.MaskValue(h.cfg.WooCommerce.ConsumerKey),
			"consumer_secret": config.MaskValue(h.cfg.WooCommerce.ConsumerSecret),
			"wp_app_user":     h.cfg.WordPress.AppUser,
			"wp_app_pass":     config.MaskValue(h.cfg.WordPress.AppPass),
			"smtp_user":       config.MaskValue(h.cfg.SMTP.User),
		},
		Mail: h.mailer.Configured(),
	})
}
