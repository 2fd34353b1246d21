package whatsapp

import (
	"encoding/json"
	"fmt"

	"WaRelay/entity"
)

const messageTypeText = "text"

// WebhookPayload represents the incoming webhook payload from WhatsApp
type WebhookPayload struct {
	Object string  `json:"object"`
	Entry  []Entry `json:"entry"`
}

type Entry struct {
	ID      string   `json:"id"`
	Changes []Change `json:"changes"`
}

type Change struct {
	Value ChangeValue `json:"value"`
	Field string      `json:"field"`
}

type ChangeValue struct {
	MessagingProduct string    `json:"messaging_product"`
	Metadata         Metadata  `json:"metadata"`
	Contacts         []Contact `json:"contacts,omitempty"`
	Messages         []Message `json:"messages,omitempty"`
}

type Metadata struct {
	DisplayPhoneNumber string `json:"display_phone_number"`
	PhoneNumberID      string `json:"phone_number_id"`
}

type Contact struct {
	Profile struct {
		Name string `json:"name"`
	} `json:"profile"`
	WaID string `json:"wa_id"`
}

type Message struct {
	From      string `json:"from"`
	ID        string `json:"id"`
	Timestamp string `json:"timestamp"`
	Type      string `json:"type"`
	Text      *struct {
		Body string `json:"body"`
	} `json:"text,omitempty"`
}

// ParsePayload decodes a webhook body.
func ParsePayload(body []byte) (*WebhookPayload, error) {
	var payload WebhookPayload
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("failed to parse webhook payload: %w", err)
	}
	return &payload, nil
}

// FirstTextMessage returns the first text message in the payload. Messages of
// other types, or without a sender, are skipped.
func (p *WebhookPayload) FirstTextMessage() (entity.InboundEvent, bool) {
	if p == nil {
		return entity.InboundEvent{}, false
	}
	for _, entry := range p.Entry {
		for _, change := range entry.Changes {
			value := change.Value
			for _, message := range value.Messages {
				text, ok := message.text()
				if !ok || message.From == "" {
					continue
				}
				return entity.InboundEvent{
					MessageID:     message.ID,
					From:          message.From,
					Text:          text,
					PhoneNumberID: value.Metadata.PhoneNumberID,
					ContactName:   value.contactName(message.From),
					Timestamp:     message.Timestamp,
				}, true
			}
		}
	}
	return entity.InboundEvent{}, false
}

func (m Message) text() (string, bool) {
	if m.Type != "" && m.Type != messageTypeText {
		return "", false
	}
	if m.Text == nil || m.Text.Body == "" {
		return "", false
	}
	return m.Text.Body, true
}

func (v ChangeValue) contactName(waID string) string {
	for _, c := range v.Contacts {
		if c.WaID == waID {
			return c.Profile.Name
		}
	}
	return ""
}
