package whatsapp

import (
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/url"

	"WaRelay/bot/whatsapp"
	"WaRelay/impl/core"
	"WaRelay/internal/lib/sl"
	"github.com/go-chi/chi/v5/middleware"
)

const maxBodyBytes = 1 << 20

// WebhookVerify handles GET requests for webhook verification
func WebhookVerify(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("whatsapp.webhook"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)
		logger.Debug("webhook verification request")

		query := r.URL.Query()
		challenge, err := handler.VerifyWebhook(
			param(query, "hub.mode", "mode"),
			param(query, "hub.verify_token", "verify_token"),
			param(query, "hub.challenge", "challenge"),
		)
		switch {
		case errors.Is(err, core.ErrMissingVerifyParams):
			plain(w, http.StatusBadRequest, "Bad Request")
		case err != nil:
			plain(w, http.StatusForbidden, "Forbidden")
		default:
			plain(w, http.StatusOK, challenge)
		}
	}
}

// WebhookHandler handles POST requests for incoming messages
func WebhookHandler(log *slog.Logger, handler Core) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		logger := log.With(
			sl.Module("whatsapp.webhook"),
			slog.String("request_id", middleware.GetReqID(r.Context())),
		)

		body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
		if err != nil {
			logger.Error("failed to read request body", sl.Err(err))
			plain(w, http.StatusBadRequest, "Bad Request")
			return
		}
		defer r.Body.Close()

		logger.Debug("webhook message received", slog.Int("size", len(body)))

		if err = handler.HandleDelivery(body, r.Header.Get(whatsapp.SignatureHeader)); err != nil {
			plain(w, http.StatusForbidden, "Forbidden")
			return
		}

		// Always respond with 200 OK to acknowledge receipt
		plain(w, http.StatusOK, "ok")
	}
}

func param(query url.Values, names ...string) string {
	for _, name := range names {
		if v := query.Get(name); v != "" {
			return v
		}
	}
	return ""
}

func plain(w http.ResponseWriter, status int, body string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = w.Write([]byte(body))
}
