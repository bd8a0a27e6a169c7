// Package stream provides fan-out of render events to chart subscribers.
package stream

import (
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"

	"wallstreet-rpg/internal/models"
)

// HubConfig holds configuration for the render-event hub.
type HubConfig struct {
	// SubscriberBufferSize is the size of each subscriber's channel buffer.
	SubscriberBufferSize int
}

// DefaultHubConfig returns the default hub configuration.
func DefaultHubConfig() HubConfig {
	return HubConfig{SubscriberBufferSize: 128}
}

// Hub distributes render events from the playback driver to any number of
// renderers. Events for a given series are published in strictly increasing
// day order; a slow subscriber drops events rather than stalling playback.
type Hub struct {
	cfg    HubConfig
	log    zerolog.Logger
	mu     sync.RWMutex
	subs   map[string]chan models.RenderEvent
	closed bool

	published uint64
	dropped   uint64
}

// NewHub creates a hub with default configuration.
func NewHub(logger zerolog.Logger) *Hub {
	return NewHubWithConfig(DefaultHubConfig(), logger)
}

// NewHubWithConfig creates a hub with custom configuration.
func NewHubWithConfig(cfg HubConfig, logger zerolog.Logger) *Hub {
	if cfg.SubscriberBufferSize <= 0 {
		cfg.SubscriberBufferSize = DefaultHubConfig().SubscriberBufferSize
	}
	return &Hub{
		cfg:  cfg,
		log:  logger.With().Str("component", "stream").Logger(),
		subs: make(map[string]chan models.RenderEvent),
	}
}

// Subscribe registers a subscriber and returns its event channel.
func (h *Hub) Subscribe(id string) <-chan models.RenderEvent {
	h.mu.Lock()
	defer h.mu.Unlock()

	if old, ok := h.subs[id]; ok {
		close(old)
	}
	ch := make(chan models.RenderEvent, h.cfg.SubscriberBufferSize)
	h.subs[id] = ch
	return ch
}

// Unsubscribe removes a subscriber and closes its channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if ch, ok := h.subs[id]; ok {
		close(ch)
		delete(h.subs, id)
	}
}

// Publish sends an event to every subscriber without blocking. Events to a
// saturated subscriber are dropped and counted.
func (h *Hub) Publish(ev models.RenderEvent) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if h.closed {
		return
	}
	atomic.AddUint64(&h.published, 1)
	for id, ch := range h.subs {
		select {
		case ch <- ev:
		default:
			atomic.AddUint64(&h.dropped, 1)
			h.log.Debug().Str("subscriber", id).Str("kind", string(ev.Kind)).Msg("Subscriber saturated, event dropped")
		}
	}
}

// Stats returns the published and dropped event counts.
func (h *Hub) Stats() (published, dropped uint64) {
	return atomic.LoadUint64(&h.published), atomic.LoadUint64(&h.dropped)
}

// Close shuts down the hub and all subscriber channels.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.closed {
		return
	}
	h.closed = true
	for id, ch := range h.subs {
		close(ch)
		delete(h.subs, id)
	}
}
