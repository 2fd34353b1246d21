package whatsapp

type Core interface {
	VerifyWebhook(mode, token, challenge string) (string, error)
	HandleDelivery(body []byte, signature string) error
}
