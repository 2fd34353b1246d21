package core

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"
	"testing"

	"WaRelay/bot/whatsapp"
	"WaRelay/entity"
)

type sentMessage struct {
	to   string
	text string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentMessage
	err  error
}

func (f *fakeSender) SendText(_ context.Context, to, text string) (*entity.SendResult, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, sentMessage{to: to, text: text})
	if f.err != nil {
		return nil, f.err
	}
	return &entity.SendResult{To: to, MessageID: "wamid.1"}, nil
}

func (f *fakeSender) messages() []sentMessage {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]sentMessage(nil), f.sent...)
}

type fakeReplier struct {
	reply entity.AppReply
	err   error
	got   []entity.ReplyContext
	query []string
}

func (f *fakeReplier) Reply(_ context.Context, query string, rc entity.ReplyContext) (entity.AppReply, error) {
	f.got = append(f.got, rc)
	f.query = append(f.query, query)
	return f.reply, f.err
}

type fakeStore struct {
	items map[string]string
	err   error
}

func (f *fakeStore) GetConversation(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	return f.items[key], nil
}

func (f *fakeStore) SaveConversation(_ context.Context, key, id string) error {
	if f.err != nil {
		return f.err
	}
	f.items[key] = id
	return nil
}

type fakeEvents struct {
	mu     sync.Mutex
	events []entity.RelayEvent
}

func (f *fakeEvents) Publish(event entity.RelayEvent) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, event)
}

func (f *fakeEvents) types() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	var types []string
	for _, e := range f.events {
		types = append(types, e.Type)
	}
	return types
}

var testConf = entity.WebhookConfig{
	AccessToken:   "token",
	VerifyToken:   "verify-me",
	PhoneNumberID: "1065",
}

func newTestCore(conf entity.WebhookConfig) (*Core, *fakeSender) {
	c := New(conf, slog.New(slog.NewTextHandler(io.Discard, nil)))
	sender := &fakeSender{}
	c.SetSender(sender)
	return c, sender
}

func TestVerifyWebhook(t *testing.T) {
	c, _ := newTestCore(testConf)

	tests := []struct {
		name      string
		mode      string
		token     string
		challenge string
		want      string
		wantErr   error
	}{
		{"match", "subscribe", "verify-me", "1158201444", "1158201444", nil},
		{"challenge kept byte for byte", "subscribe", " verify-me ", " ch@llenge\t", " ch@llenge\t", nil},
		{"token mismatch", "subscribe", "verify-you", "1", "", ErrVerifyRejected},
		{"token prefix", "subscribe", "verify", "1", "", ErrVerifyRejected},
		{"wrong mode", "unsubscribe", "verify-me", "1", "", ErrVerifyRejected},
		{"missing token", "subscribe", "", "1", "", ErrMissingVerifyParams},
		{"missing mode", "", "verify-me", "1", "", ErrMissingVerifyParams},
		{"missing challenge", "subscribe", "verify-me", "", "", ErrMissingVerifyParams},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := c.VerifyWebhook(tt.mode, tt.token, tt.challenge)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("challenge = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestVerifyWebhookWithoutConfiguredToken(t *testing.T) {
	conf := testConf
	conf.VerifyToken = ""
	c, _ := newTestCore(conf)
	if _, err := c.VerifyWebhook("subscribe", "anything", "1"); !errors.Is(err, ErrVerifyRejected) {
		t.Fatalf("error = %v, want ErrVerifyRejected", err)
	}
}

const helloPayload = `{"object":"whatsapp_business_account","entry":[{"changes":[{"field":"messages","value":{"messages":[{"from":"15551234567","text":{"body":"hello"}}]}}]}]}`

func TestHandleDeliveryEcho(t *testing.T) {
	c, sender := newTestCore(testConf)
	events := &fakeEvents{}
	c.SetEventPublisher(events)

	if err := c.HandleDelivery([]byte(helloPayload), ""); err != nil {
		t.Fatalf("HandleDelivery() error = %v", err)
	}
	c.Wait()

	sent := sender.messages()
	if len(sent) != 1 {
		t.Fatalf("sent %d messages, want 1", len(sent))
	}
	if sent[0] != (sentMessage{to: "15551234567", text: "hello"}) {
		t.Errorf("sent = %+v", sent[0])
	}

	types := events.types()
	if len(types) != 2 || types[0] != entity.EventMessageReceived || types[1] != entity.EventReplySent {
		t.Errorf("events = %v", types)
	}
}

func TestHandleDeliveryNoText(t *testing.T) {
	bodies := []string{
		`{"object":"whatsapp_business_account","entry":[]}`,
		`{"entry":[{"changes":[{"value":{"messages":[]}}]}]}`,
		`{"entry":[{"changes":[{"value":{"messages":[{"from":"1555","type":"image","image":{"id":"x"}}]}}]}]}`,
		`{"entry":[{"changes":[{"value":{"statuses":[{"id":"wamid.1","status":"read"}]}}]}]}`,
		`not json`,
		``,
	}
	for _, body := range bodies {
		c, sender := newTestCore(testConf)
		if err := c.HandleDelivery([]byte(body), ""); err != nil {
			t.Errorf("HandleDelivery(%q) error = %v", body, err)
		}
		c.Wait()
		if n := len(sender.messages()); n != 0 {
			t.Errorf("HandleDelivery(%q) sent %d messages", body, n)
		}
	}
}

func TestHandleDeliverySignature(t *testing.T) {
	conf := testConf
	conf.AppSecret = "app-secret"
	c, sender := newTestCore(conf)

	if err := c.HandleDelivery([]byte(helloPayload), "sha256=00"); !errors.Is(err, ErrInvalidSignature) {
		t.Fatalf("error = %v, want ErrInvalidSignature", err)
	}
	c.Wait()
	if len(sender.messages()) != 0 {
		t.Fatal("unsigned payload was relayed")
	}

	if err := c.HandleDelivery([]byte(helloPayload), whatsapp.Sign([]byte(helloPayload), "app-secret")); err != nil {
		t.Fatalf("signed payload error = %v", err)
	}
	c.Wait()
	if len(sender.messages()) != 1 {
		t.Fatal("signed payload was not relayed")
	}
}

func TestRelayAppReply(t *testing.T) {
	conf := testConf
	conf.AppID = "support-bot"
	c, sender := newTestCore(conf)
	replier := &fakeReplier{reply: entity.AppReply{Text: "Hi! How can I help?", ConversationID: "conv-1"}}
	store := &fakeStore{items: map[string]string{}}
	c.SetReplier(replier)
	c.SetConversationStore(store)

	event := entity.InboundEvent{From: "15551234567", Text: "hello"}
	reply, err := c.relay(context.Background(), event)
	if err != nil {
		t.Fatalf("relay() error = %v", err)
	}
	if reply.Text != "Hi! How can I help?" || reply.RecipientID != "15551234567" {
		t.Errorf("reply = %+v", reply)
	}
	if sent := sender.messages(); len(sent) != 1 || sent[0].text != "Hi! How can I help?" {
		t.Errorf("sent = %+v", sent)
	}
	if store.items["whatsapp:1065:15551234567"] != "conv-1" {
		t.Errorf("conversation not stored: %v", store.items)
	}
	if replier.query[0] != "hello" || replier.got[0].UserID != "15551234567" || replier.got[0].PhoneNumberID != "1065" {
		t.Errorf("replier called with %v %+v", replier.query, replier.got)
	}

	// second message continues the stored conversation
	replier.reply.ConversationID = "conv-1"
	if _, err = c.relay(context.Background(), event); err != nil {
		t.Fatal(err)
	}
	if replier.got[1].ConversationID != "conv-1" {
		t.Errorf("conversation id not passed: %+v", replier.got[1])
	}
}

func TestRelayAppFallbackToEcho(t *testing.T) {
	tests := []struct {
		name    string
		replier *fakeReplier
		store   *fakeStore
	}{
		{"app error", &fakeReplier{err: errors.New("app down")}, &fakeStore{items: map[string]string{}}},
		{"empty answer", &fakeReplier{reply: entity.AppReply{ConversationID: "c"}}, &fakeStore{items: map[string]string{}}},
		{"store failure", &fakeReplier{err: errors.New("app down")}, &fakeStore{err: errors.New("db down")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			conf := testConf
			conf.AppID = "support-bot"
			c, sender := newTestCore(conf)
			c.SetReplier(tt.replier)
			c.SetConversationStore(tt.store)

			reply, err := c.relay(context.Background(), entity.InboundEvent{From: "1555", Text: "ping"})
			if err != nil {
				t.Fatal(err)
			}
			if reply.Text != "ping" {
				t.Errorf("reply = %q, want echo", reply.Text)
			}
			if sent := sender.messages(); len(sent) != 1 || sent[0].text != "ping" {
				t.Errorf("sent = %+v", sent)
			}
		})
	}
}

func TestRelayIgnoresReplierWithoutAppID(t *testing.T) {
	c, sender := newTestCore(testConf)
	replier := &fakeReplier{reply: entity.AppReply{Text: "from app"}}
	c.SetReplier(replier)

	if _, err := c.relay(context.Background(), entity.InboundEvent{From: "1555", Text: "ping"}); err != nil {
		t.Fatal(err)
	}
	if len(replier.got) != 0 {
		t.Error("replier called without app id")
	}
	if sent := sender.messages(); len(sent) != 1 || sent[0].text != "ping" {
		t.Errorf("sent = %+v", sent)
	}
}

func TestRelaySendFailure(t *testing.T) {
	c, sender := newTestCore(testConf)
	sender.err = &whatsapp.APIError{Status: 400, Code: 100, Message: "Invalid parameter"}
	events := &fakeEvents{}
	c.SetEventPublisher(events)

	_, err := c.relay(context.Background(), entity.InboundEvent{From: "1555", Text: "ping"})
	var apiErr *whatsapp.APIError
	if !errors.As(err, &apiErr) {
		t.Fatalf("error = %v, want *APIError", err)
	}
	if types := events.types(); len(types) != 2 || types[1] != entity.EventReplyFailed {
		t.Errorf("events = %v", types)
	}
	if len(sender.messages()) != 1 {
		t.Error("send was retried")
	}
}

func TestRelayWithoutCredentials(t *testing.T) {
	conf := testConf
	conf.AccessToken = ""
	c, sender := newTestCore(conf)

	reply, err := c.relay(context.Background(), entity.InboundEvent{From: "1555", Text: "ping"})
	if reply != nil || err != nil {
		t.Fatalf("relay() = %v, %v", reply, err)
	}
	if len(sender.messages()) != 0 {
		t.Error("sent without credentials")
	}
}

func TestSendMessage(t *testing.T) {
	c, sender := newTestCore(testConf)

	result, err := c.SendMessage(context.Background(), "+1 (555) 123-4567", "  Your order shipped  ")
	if err != nil {
		t.Fatalf("SendMessage() error = %v", err)
	}
	if result.To != "15551234567" || result.MessageID != "wamid.1" {
		t.Errorf("result = %+v", result)
	}
	if sent := sender.messages(); sent[0].text != "Your order shipped" {
		t.Errorf("sent = %+v", sent)
	}

	if _, err = c.SendMessage(context.Background(), "abc", "hi"); !errors.Is(err, ErrMissingParams) {
		t.Errorf("error = %v, want ErrMissingParams", err)
	}

	conf := testConf
	conf.PhoneNumberID = ""
	c, _ = newTestCore(conf)
	if _, err = c.SendMessage(context.Background(), "1555", "hi"); !errors.Is(err, whatsapp.ErrMissingCredentials) {
		t.Errorf("error = %v, want ErrMissingCredentials", err)
	}
}

func TestValidateToken(t *testing.T) {
	c, _ := newTestCore(testConf)
	if err := c.ValidateToken("key"); !errors.Is(err, ErrAuthDisabled) {
		t.Errorf("error = %v, want ErrAuthDisabled", err)
	}
	c.SetAuthKey("key")
	if err := c.ValidateToken("key"); err != nil {
		t.Errorf("error = %v", err)
	}
	if err := c.ValidateToken("nope"); !errors.Is(err, ErrInvalidKey) {
		t.Errorf("error = %v, want ErrInvalidKey", err)
	}
}
