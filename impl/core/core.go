package core

import (
	"WaRelay/entity"
	"WaRelay/internal/lib/sl"
	"context"
	"log/slog"
	"sync"
	"time"
)

const defaultRelayTimeout = 30 * time.Second

// Replier generates reply text with an external conversational app.
type Replier interface {
	Reply(ctx context.Context, query string, rc entity.ReplyContext) (entity.AppReply, error)
}

type MessageSender interface {
	SendText(ctx context.Context, to, text string) (*entity.SendResult, error)
}

// ConversationStore maps a conversation key to the app's conversation id.
type ConversationStore interface {
	GetConversation(ctx context.Context, key string) (string, error)
	SaveConversation(ctx context.Context, key, conversationID string) error
}

type EventPublisher interface {
	Publish(event entity.RelayEvent)
}

type Core struct {
	conf         entity.WebhookConfig
	sender       MessageSender
	replier      Replier
	store        ConversationStore
	events       EventPublisher
	authKey      string
	relayTimeout time.Duration
	inflight     sync.WaitGroup
	log          *slog.Logger
}

func New(conf entity.WebhookConfig, log *slog.Logger) *Core {
	return &Core{
		conf:         conf,
		relayTimeout: defaultRelayTimeout,
		log:          log.With(sl.Module("core")),
	}
}

func (c *Core) SetSender(sender MessageSender) {
	c.sender = sender
}

func (c *Core) SetReplier(replier Replier) {
	c.replier = replier
}

func (c *Core) SetConversationStore(store ConversationStore) {
	c.store = store
}

func (c *Core) SetEventPublisher(events EventPublisher) {
	c.events = events
}

func (c *Core) SetAuthKey(key string) {
	c.authKey = key
}

func (c *Core) SetRelayTimeout(timeout time.Duration) {
	if timeout > 0 {
		c.relayTimeout = timeout
	}
}

// Wait blocks until every dispatched relay has finished.
func (c *Core) Wait() {
	c.inflight.Wait()
}

func (c *Core) publish(event entity.RelayEvent) {
	if c.events == nil {
		return
	}
	event.Time = time.Now()
	c.events.Publish(event)
}
