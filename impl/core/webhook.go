package core

import (
	"WaRelay/bot/whatsapp"
	"WaRelay/internal/lib/sl"
	"log/slog"
	"strings"
)

const modeSubscribe = "subscribe"

// VerifyWebhook answers Meta's subscription handshake. On success it returns
// the challenge unchanged.
func (c *Core) VerifyWebhook(mode, token, challenge string) (string, error) {
	mode = strings.TrimSpace(mode)
	token = strings.TrimSpace(token)

	if mode == "" || token == "" || challenge == "" {
		return "", ErrMissingVerifyParams
	}

	expected := strings.TrimSpace(c.conf.VerifyToken)
	if mode != modeSubscribe || expected == "" || token != expected {
		c.log.With(
			slog.String("mode", mode),
			slog.Bool("token_match", token == expected),
		).Warn("webhook verification failed")
		return "", ErrVerifyRejected
	}

	c.log.Info("webhook verified")
	return challenge, nil
}

// HandleDelivery accepts a webhook POST body. Payloads without a text message
// are ignored; otherwise the relay is dispatched and HandleDelivery returns
// without waiting for it.
func (c *Core) HandleDelivery(body []byte, signature string) error {
	if c.conf.AppSecret != "" && !whatsapp.VerifySignature(body, signature, c.conf.AppSecret) {
		c.log.Warn("invalid webhook signature")
		return ErrInvalidSignature
	}

	payload, err := whatsapp.ParsePayload(body)
	if err != nil {
		c.log.With(sl.Err(err)).Debug("ignoring webhook payload")
		return nil
	}

	event, ok := payload.FirstTextMessage()
	if !ok {
		c.log.With(slog.String("object", payload.Object)).Debug("no text message in webhook payload")
		return nil
	}

	c.dispatch(event)
	return nil
}
