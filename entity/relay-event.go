package entity

import "time"

const (
	EventMessageReceived = "message_received"
	EventReplySent       = "reply_sent"
	EventReplyFailed     = "reply_failed"
)

// RelayEvent is published to the operator event feed.
type RelayEvent struct {
	ID    string    `json:"id"`
	Type  string    `json:"type"`
	From  string    `json:"from"`
	Text  string    `json:"text,omitempty"`
	Reply string    `json:"reply,omitempty"`
	Error string    `json:"error,omitempty"`
	Time  time.Time `json:"time"`
}
