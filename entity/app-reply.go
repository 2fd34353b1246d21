package entity

// ReplyContext identifies the sender towards the reply-generating app.
type ReplyContext struct {
	UserID         string `json:"whatsapp_user_id"`
	PhoneNumberID  string `json:"phone_number_id"`
	ConversationID string `json:"-"`
}

type AppReply struct {
	Text           string `json:"text"`
	ConversationID string `json:"conversation_id,omitempty"`
}
