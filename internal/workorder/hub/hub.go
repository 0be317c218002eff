// Package hub fans job events out to connected dashboard sessions. It is
// a best-effort hint channel: delivery is at-least-once for connected
// subscribers, there is no persistence or replay, and a subscriber that
// misses an event catches up on its next reconciliation poll. The hub
// shortens the average staleness window; it is never the source of truth.
package hub

import (
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/Luiscraft7/sistema-dn/internal/workorder/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

type EventType string

const (
	JobCreated EventType = "job:created"
	JobUpdated EventType = "job:updated"
)

// Event is one push notification, carrying the same job projection the
// read endpoint serves.
type Event struct {
	Type EventType       `json:"type"`
	Job  *models.JobView `json:"job"`
}

// OwnersGroup receives every event regardless of business.
const OwnersGroup = "owners"

// BusinessGroup names the delivery group for one business's workers.
func BusinessGroup(id uuid.UUID) string {
	return fmt.Sprintf("business:%s", id)
}

// GroupsFor returns the groups an actor gets subscribed to on connect.
func GroupsFor(actor models.Actor) []string {
	if actor.Role == models.Owner {
		return []string{OwnersGroup}
	}
	if actor.BusinessID != nil {
		return []string{BusinessGroup(*actor.BusinessID)}
	}
	return nil
}

// DefaultBufferSize is the per-subscriber event buffer.
const DefaultBufferSize = 64

// Subscriber is one connected session's event stream.
type Subscriber struct {
	id     string
	events chan Event
	once   sync.Once
	done   chan struct{}
}

// Events is the channel the session's writer drains.
func (s *Subscriber) Events() <-chan Event { return s.events }

// Done is closed when the subscriber is removed from the hub.
func (s *Subscriber) Done() <-chan struct{} { return s.done }

func (s *Subscriber) close() {
	s.once.Do(func() { close(s.done) })
}

// RelaySink mirrors every published event somewhere off-process (e.g. a
// Kafka topic). Implementations must not block.
type RelaySink interface {
	Relay(Event)
}

// Hub maintains named delivery groups and broadcasts job events to them.
type Hub struct {
	mu     sync.RWMutex
	groups map[string]map[string]*Subscriber
	subs   map[string]*Subscriber

	logger     *zap.Logger
	relay      RelaySink
	bufferSize int
	dropped    atomic.Int64
}

type Option func(*Hub)

// WithRelay mirrors every event to sink in addition to group delivery.
func WithRelay(sink RelaySink) Option {
	return func(h *Hub) { h.relay = sink }
}

// WithBufferSize overrides the per-subscriber buffer.
func WithBufferSize(n int) Option {
	return func(h *Hub) { h.bufferSize = n }
}

func NewHub(logger *zap.Logger, opts ...Option) *Hub {
	h := &Hub{
		groups:     make(map[string]map[string]*Subscriber),
		subs:       make(map[string]*Subscriber),
		logger:     logger.Named("hub"),
		bufferSize: DefaultBufferSize,
	}
	for _, opt := range opts {
		opt(h)
	}
	return h
}

// Subscribe registers a new subscriber on the given groups. The returned
// subscriber must be removed with Unsubscribe when the session ends.
func (h *Hub) Subscribe(id string, groups ...string) *Subscriber {
	sub := &Subscriber{
		id:     id,
		events: make(chan Event, h.bufferSize),
		done:   make(chan struct{}),
	}
	h.mu.Lock()
	defer h.mu.Unlock()
	h.subs[id] = sub
	for _, g := range groups {
		if h.groups[g] == nil {
			h.groups[g] = make(map[string]*Subscriber)
		}
		h.groups[g][id] = sub
	}
	return sub
}

// Unsubscribe removes a subscriber from every group and signals its Done
// channel.
func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	sub, ok := h.subs[id]
	if !ok {
		return
	}
	delete(h.subs, id)
	for g, members := range h.groups {
		delete(members, id)
		if len(members) == 0 {
			delete(h.groups, g)
		}
	}
	sub.close()
}

// Publish broadcasts an event to the owners group and the affected
// business's group. A subscriber present in both receives it once. The
// send never blocks; a full subscriber buffer drops the event for that
// subscriber only.
func (h *Hub) Publish(eventType EventType, job *models.JobView) {
	evt := Event{Type: eventType, Job: job}

	h.mu.RLock()
	targets := make(map[string]*Subscriber)
	for id, sub := range h.groups[OwnersGroup] {
		targets[id] = sub
	}
	for id, sub := range h.groups[BusinessGroup(job.BusinessID)] {
		targets[id] = sub
	}
	h.mu.RUnlock()

	for id, sub := range targets {
		select {
		case sub.events <- evt:
		default:
			h.dropped.Add(1)
			h.logger.Warn("subscriber buffer full, dropping event",
				zap.String("subscriber", id),
				zap.String("event_type", string(eventType)),
				zap.String("job_id", job.ID.String()),
			)
		}
	}

	if h.relay != nil {
		h.relay.Relay(evt)
	}
}

// SubscriberCount reports how many sessions are connected.
func (h *Hub) SubscriberCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.subs)
}

// Dropped reports how many events were dropped on full buffers.
func (h *Hub) Dropped() int64 {
	return h.dropped.Load()
}
