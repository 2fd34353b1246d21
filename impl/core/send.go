package core

import (
	"WaRelay/bot/whatsapp"
	"WaRelay/entity"
	"context"
	"log/slog"
	"strings"
)

// SendMessage sends an operator-initiated text message.
func (c *Core) SendMessage(ctx context.Context, to, text string) (*entity.SendResult, error) {
	if !c.conf.CanReply() || c.sender == nil {
		return nil, whatsapp.ErrMissingCredentials
	}

	to = whatsapp.NormalizeRecipient(to)
	text = strings.TrimSpace(text)
	if to == "" || text == "" {
		return nil, ErrMissingParams
	}

	result, err := c.sender.SendText(ctx, to, text)
	if err != nil {
		return nil, err
	}

	c.log.With(
		slog.String("to", to),
		slog.String("wa_message_id", result.MessageID),
	).Info("message sent")
	return result, nil
}
