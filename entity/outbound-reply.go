package entity

type OutboundReply struct {
	RecipientID string `json:"to" validate:"required"`
	Text        string `json:"text" validate:"required"`
}

type SendResult struct {
	To        string `json:"to"`
	MessageID string `json:"message_id,omitempty"`
}
