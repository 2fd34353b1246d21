package whatsapp

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"WaRelay/entity"
	"WaRelay/internal/lib/sl"
)

const (
	defaultBaseURL    = "https://graph.facebook.com"
	defaultApiVersion = "v24.0"
	requestTimeout    = 10 * time.Second
)

// Client sends messages through the WhatsApp Cloud API.
type Client struct {
	log           *slog.Logger
	httpClient    *http.Client
	baseURL       string
	apiVersion    string
	accessToken   string
	phoneNumberID string
}

// SendMessageRequest represents the request body for sending a text message
type SendMessageRequest struct {
	MessagingProduct string `json:"messaging_product"`
	RecipientType    string `json:"recipient_type"`
	To               string `json:"to"`
	Type             string `json:"type"`
	Text             struct {
		PreviewURL bool   `json:"preview_url"`
		Body       string `json:"body"`
	} `json:"text"`
}

type sendMessageResponse struct {
	Contacts []struct {
		Input string `json:"input"`
		WaID  string `json:"wa_id"`
	} `json:"contacts"`
	Messages []struct {
		ID string `json:"id"`
	} `json:"messages"`
}

// NewClient creates a Cloud API client for the configured phone number.
func NewClient(conf entity.WebhookConfig, log *slog.Logger) *Client {
	baseURL := strings.TrimSuffix(conf.BaseURL, "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}
	apiVersion := conf.ApiVersion
	if apiVersion == "" {
		apiVersion = defaultApiVersion
	}
	return &Client{
		log:           log.With(sl.Module("whatsapp.client")),
		httpClient:    &http.Client{Timeout: requestTimeout},
		baseURL:       baseURL,
		apiVersion:    apiVersion,
		accessToken:   conf.AccessToken,
		phoneNumberID: conf.PhoneNumberID,
	}
}

func (c *Client) messagesURL() string {
	return fmt.Sprintf("%s/%s/%s/messages", c.baseURL, c.apiVersion, c.phoneNumberID)
}

// SendText sends a text message to the specified recipient
func (c *Client) SendText(ctx context.Context, to, text string) (*entity.SendResult, error) {
	if c.accessToken == "" || c.phoneNumberID == "" {
		return nil, ErrMissingCredentials
	}

	reqBody := SendMessageRequest{
		MessagingProduct: "whatsapp",
		RecipientType:    "individual",
		To:               to,
		Type:             messageTypeText,
	}
	reqBody.Text.Body = text

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return nil, fmt.Errorf("failed to marshal request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.messagesURL(), bytes.NewReader(jsonBody))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.accessToken)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, parseAPIError(resp.StatusCode, body)
	}

	result := &entity.SendResult{To: to}
	var sent sendMessageResponse
	if err = json.Unmarshal(body, &sent); err == nil && len(sent.Messages) > 0 {
		result.MessageID = sent.Messages[0].ID
	}

	c.log.With(
		slog.String("recipient_phone", to),
		slog.String("message_id", result.MessageID),
	).Debug("message sent")

	return result, nil
}
