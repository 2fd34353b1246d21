package core

import (
	"WaRelay/entity"
	"WaRelay/internal/lib/sl"
	"context"
	"fmt"
	"github.com/google/uuid"
	"log/slog"
)

func (c *Core) dispatch(event entity.InboundEvent) {
	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		defer func() {
			if r := recover(); r != nil {
				c.log.With(
					slog.Any("panic", r),
					slog.String("from", event.From),
				).Error("relay panic")
			}
		}()

		ctx, cancel := context.WithTimeout(context.Background(), c.relayTimeout)
		defer cancel()

		_, _ = c.relay(ctx, event)
	}()
}

// relay determines the reply for one inbound text message and sends it.
// A nil reply with a nil error means nothing was sent.
func (c *Core) relay(ctx context.Context, event entity.InboundEvent) (*entity.OutboundReply, error) {
	id := uuid.NewString()
	log := c.log.With(
		slog.String("relay_id", id),
		slog.String("from", event.From),
		slog.String("message_id", event.MessageID),
	)
	log.With(slog.String("text", event.Text)).Info("received message")

	c.publish(entity.RelayEvent{
		ID:   id,
		Type: entity.EventMessageReceived,
		From: event.From,
		Text: event.Text,
	})

	reply := entity.OutboundReply{
		RecipientID: event.From,
		Text:        c.replyText(ctx, log, event),
	}

	if !c.conf.CanReply() || c.sender == nil {
		log.Warn("reply skipped: whatsapp credentials not configured")
		return nil, nil
	}
	if reply.Text == "" {
		return nil, nil
	}

	result, err := c.sender.SendText(ctx, reply.RecipientID, reply.Text)
	if err != nil {
		log.With(sl.Err(err)).Error("failed to send reply")
		c.publish(entity.RelayEvent{
			ID:    id,
			Type:  entity.EventReplyFailed,
			From:  event.From,
			Reply: reply.Text,
			Error: err.Error(),
		})
		return &reply, fmt.Errorf("send reply: %w", err)
	}

	log.With(slog.String("wa_message_id", result.MessageID)).Info("reply sent")
	c.publish(entity.RelayEvent{
		ID:    id,
		Type:  entity.EventReplySent,
		From:  event.From,
		Text:  event.Text,
		Reply: reply.Text,
	})
	return &reply, nil
}

// replyText asks the app for a reply and falls back to echoing the inbound
// text when no app is configured or the app fails.
func (c *Core) replyText(ctx context.Context, log *slog.Logger, event entity.InboundEvent) string {
	if c.replier == nil || !c.conf.HasApp() {
		return event.Text
	}

	key := c.conf.ConversationKey(event.From)
	rc := entity.ReplyContext{
		UserID:        event.From,
		PhoneNumberID: c.conf.PhoneNumberID,
	}

	if c.store != nil {
		conversationID, err := c.store.GetConversation(ctx, key)
		if err != nil {
			log.With(sl.Err(err)).Warn("load conversation")
		}
		rc.ConversationID = conversationID
	}

	answer, err := c.replier.Reply(ctx, event.Text, rc)

	if c.store != nil && answer.ConversationID != "" && answer.ConversationID != rc.ConversationID {
		if sErr := c.store.SaveConversation(ctx, key, answer.ConversationID); sErr != nil {
			log.With(sl.Err(sErr)).Warn("save conversation")
		}
	}

	if err != nil || answer.Text == "" {
		log.With(
			slog.String("app_id", c.conf.AppID),
			sl.Err(err),
		).Warn("app reply unavailable, echoing")
		return event.Text
	}

	return answer.Text
}
