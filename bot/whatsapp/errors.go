package whatsapp

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
)

var ErrMissingCredentials = errors.New("missing whatsapp credentials")

// APIError is the Graph API error envelope returned on a failed call.
type APIError struct {
	Status    int    `json:"-"`
	Message   string `json:"message"`
	Type      string `json:"type"`
	Code      int    `json:"code"`
	Subcode   int    `json:"error_subcode"`
	FbTraceID string `json:"fbtrace_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("API error (status %d)", e.Status)
	}
	return fmt.Sprintf("API error (status %d, code %d): %s", e.Status, e.Code, e.Message)
}

// Hint suggests an operator fix for common Cloud API failures.
func (e *APIError) Hint() string {
	switch {
	case e.Code == 190:
		return "Invalid or expired access token. Recreate a system user token with proper permissions."
	case e.Code == 100:
		return "Invalid parameters. Verify 'phone_number_id' and that 'to' is a valid international number."
	case e.Subcode == 2018049 || e.Subcode == 131000 || e.Subcode == 131031:
		return "Recipient has not messaged your business recently or is not opted-in. " +
			"Ensure a recent user-initiated session or use an approved template."
	case strings.Contains(e.Message, "Unsupported post request"):
		return "Check that the phone_number_id belongs to your app and Business Account."
	}
	return "Check Business Account setup, permissions (whatsapp_business_messaging), and recipient format (E.164 without '+')."
}

func parseAPIError(status int, body []byte) *APIError {
	var envelope struct {
		Error *APIError `json:"error"`
	}
	if err := json.Unmarshal(body, &envelope); err != nil || envelope.Error == nil {
		msg := strings.TrimSpace(string(body))
		if len(msg) > 500 {
			msg = msg[:500]
		}
		return &APIError{Status: status, Message: msg}
	}
	envelope.Error.Status = status
	return envelope.Error
}
