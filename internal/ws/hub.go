package ws

import (
	"encoding/json"
	"log/slog"
	"sync"

	"WaRelay/entity"
	"WaRelay/internal/lib/sl"
)

const queueSize = 256

// Hub fans relay events out to subscribed operator connections.
type Hub struct {
	log        *slog.Logger
	events     chan entity.RelayEvent
	join       chan *Subscriber
	leave      chan *Subscriber
	quit       chan struct{}
	stopOnce   sync.Once
	mu         sync.RWMutex
	subscribed map[*Subscriber]struct{}
}

func NewHub(log *slog.Logger) *Hub {
	return &Hub{
		log:        log.With(sl.Module("ws.hub")),
		events:     make(chan entity.RelayEvent, queueSize),
		join:       make(chan *Subscriber),
		leave:      make(chan *Subscriber),
		quit:       make(chan struct{}),
		subscribed: make(map[*Subscriber]struct{}),
	}
}

// Run owns the subscriber set until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case s := <-h.join:
			h.mu.Lock()
			h.subscribed[s] = struct{}{}
			n := len(h.subscribed)
			h.mu.Unlock()
			h.log.Debug("operator joined", slog.String("remote", s.remote), slog.Int("clients", n))

		case s := <-h.leave:
			h.drop(s)

		case event := <-h.events:
			h.broadcast(event)

		case <-h.quit:
			h.mu.Lock()
			for s := range h.subscribed {
				delete(h.subscribed, s)
				close(s.out)
			}
			h.mu.Unlock()
			return
		}
	}
}

func (h *Hub) broadcast(event entity.RelayEvent) {
	data, err := json.Marshal(event)
	if err != nil {
		h.log.Error("marshal event", sl.Err(err))
		return
	}

	h.mu.RLock()
	var slow []*Subscriber
	for s := range h.subscribed {
		if !s.wants(event.Type) {
			continue
		}
		select {
		case s.out <- data:
		default:
			slow = append(slow, s)
		}
	}
	h.mu.RUnlock()

	for _, s := range slow {
		h.log.Warn("dropping slow operator", slog.String("remote", s.remote))
		h.drop(s)
	}
}

func (h *Hub) drop(s *Subscriber) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.subscribed[s]; !ok {
		return
	}
	delete(h.subscribed, s)
	close(s.out)
	h.log.Debug("operator left", slog.String("remote", s.remote), slog.Int("clients", len(h.subscribed)))
}

// Publish never blocks the relay: events are dropped when the queue is full.
func (h *Hub) Publish(event entity.RelayEvent) {
	select {
	case h.events <- event:
	default:
		h.log.Warn("event queue full, dropping event", slog.String("type", event.Type))
	}
}

// Stop closes every subscriber and ends Run.
func (h *Hub) Stop() {
	h.stopOnce.Do(func() { close(h.quit) })
}

func (h *Hub) Clients() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subscribed)
}
