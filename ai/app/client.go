package app

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"WaRelay/entity"
	"WaRelay/internal/lib/sl"
)

const responseModeBlocking = "blocking"

var ErrEmptyAnswer = errors.New("app returned no answer")

// Client talks to a chat app over its HTTP chat-messages API.
type Client struct {
	log        *slog.Logger
	httpClient *http.Client
	appID      string
	baseURL    string
	apiKey     string
}

type chatRequest struct {
	Inputs         map[string]string `json:"inputs"`
	Query          string            `json:"query"`
	ResponseMode   string            `json:"response_mode"`
	User           string            `json:"user"`
	ConversationID string            `json:"conversation_id,omitempty"`
}

type chatResponse struct {
	Answer         string `json:"answer"`
	OutputText     string `json:"output_text"`
	Message        string `json:"message"`
	ConversationID string `json:"conversation_id"`
}

func (r chatResponse) text() string {
	for _, s := range []string{r.Answer, r.OutputText, r.Message} {
		if s != "" {
			return s
		}
	}
	return ""
}

func NewClient(appID, baseURL, apiKey string, timeout time.Duration, log *slog.Logger) *Client {
	if timeout <= 0 {
		timeout = 20 * time.Second
	}
	return &Client{
		log:        log.With(sl.Module("app.client"), slog.String("app_id", appID)),
		httpClient: &http.Client{Timeout: timeout},
		appID:      appID,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		apiKey:     apiKey,
	}
}

// Reply sends the user's text to the app in blocking mode and returns its answer.
func (c *Client) Reply(ctx context.Context, query string, rc entity.ReplyContext) (entity.AppReply, error) {
	reqBody := chatRequest{
		Inputs: map[string]string{
			"whatsapp_user_id": rc.UserID,
			"phone_number_id":  rc.PhoneNumberID,
		},
		Query:          query,
		ResponseMode:   responseModeBlocking,
		User:           rc.UserID,
		ConversationID: rc.ConversationID,
	}

	bodyBytes, err := json.Marshal(reqBody)
	if err != nil {
		return entity.AppReply{}, fmt.Errorf("marshal request body: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/chat-messages", bytes.NewReader(bodyBytes))
	if err != nil {
		return entity.AppReply{}, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return entity.AppReply{}, fmt.Errorf("send request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return entity.AppReply{}, fmt.Errorf("app responded with %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var answer chatResponse
	if err = json.NewDecoder(resp.Body).Decode(&answer); err != nil {
		return entity.AppReply{}, fmt.Errorf("decode response: %w", err)
	}

	text := answer.text()
	if text == "" {
		return entity.AppReply{ConversationID: answer.ConversationID}, ErrEmptyAnswer
	}

	c.log.With(
		slog.String("user", rc.UserID),
		slog.String("conversation_id", answer.ConversationID),
		slog.Int("text_length", len(text)),
	).Debug("app reply")

	return entity.AppReply{
		Text:           text,
		ConversationID: answer.ConversationID,
	}, nil
}
