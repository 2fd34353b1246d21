package entity

import "fmt"

// WebhookConfig holds the WhatsApp credentials and app reference used for one relay.
type WebhookConfig struct {
	AccessToken   string
	VerifyToken   string
	AppSecret     string
	PhoneNumberID string
	ApiVersion    string
	BaseURL       string
	AppID         string
}

// CanReply reports whether outbound sends are possible.
func (c WebhookConfig) CanReply() bool {
	return c.AccessToken != "" && c.PhoneNumberID != ""
}

func (c WebhookConfig) HasApp() bool {
	return c.AppID != ""
}

// ConversationKey scopes a sender's app conversation to the business phone number.
func (c WebhookConfig) ConversationKey(sender string) string {
	return fmt.Sprintf("whatsapp:%s:%s", c.PhoneNumberID, sender)
}
