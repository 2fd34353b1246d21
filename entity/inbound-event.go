package entity

type InboundEvent struct {
	MessageID     string `json:"message_id"`
	From          string `json:"from"`
	Text          string `json:"text"`
	PhoneNumberID string `json:"phone_number_id,omitempty"`
	ContactName   string `json:"contact_name,omitempty"`
	Timestamp     string `json:"timestamp,omitempty"`
}
