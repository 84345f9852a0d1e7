// Package fanout implements the real-time delivery channel: a single shared
// subscription manager keyed by (topic, recipient) with reference-counted
// subscribe/unsubscribe. Multiple UI surfaces interested in the same stream
// share one underlying group instead of opening duplicate channels.
//
// Delivery contract:
//   - Every subscription gets an independent stream; closing one never
//     affects its siblings.
//   - Within one recipient's group, events are dispatched in publish
//     (creation) order by a single per-group dispatch loop.
//   - Delivery is at-least-once end-to-end: a slow consumer's events may be
//     dropped here (counted in metrics), and the consumer reconciles via a
//     catch-up first-page fetch on reconnect. Consumers must deduplicate
//     by notification id.
package fanout

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/careernet/go-career-backend/internal/domain"
)

// Topic names a stream family. Notifications are the only topic today;
// keeping the key two-dimensional lets future feeds (interview reminders,
// message previews) share the manager.
type Topic string

// TopicNotifications is the notification stream.
const TopicNotifications Topic = "notifications"

var (
	published = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_published_total",
			Help: "Events accepted for dispatch, by topic.",
		},
		[]string{"topic"},
	)
	dropped = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "fanout_dropped_total",
			Help: "Events dropped because a subscriber buffer was full.",
		},
		[]string{"topic"},
	)
	subscribers = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "fanout_subscribers",
			Help: "Currently open subscriptions across all groups.",
		},
	)
)

func init() {
	prometheus.MustRegister(published, dropped, subscribers)
}

type groupKey struct {
	topic     Topic
	recipient string
}

// group owns one dispatch loop and the set of subscriber channels for a
// (topic, recipient) key. It disappears when its last subscriber leaves.
type group struct {
	mu     sync.Mutex
	queue  chan *domain.Notification
	subs   map[uint64]chan *domain.Notification
	closed bool
}

// Hub is the shared subscription manager. The zero value is not usable;
// construct with NewHub.
type Hub struct {
	mu     sync.Mutex
	groups map[groupKey]*group
	buffer int
	nextID uint64
}

// NewHub returns a Hub whose per-subscriber channels buffer up to buffer
// events (values < 1 are coerced to 16).
func NewHub(buffer int) *Hub {
	if buffer < 1 {
		buffer = 16
	}
	return &Hub{
		groups: make(map[groupKey]*group),
		buffer: buffer,
	}
}

// Subscription is one consumer's view of a stream. Receive from C until it
// is closed; call Close exactly once when done.
type Subscription struct {
	// C delivers events in publish order.
	C <-chan *domain.Notification

	hub  *Hub
	key  groupKey
	id   uint64
	once sync.Once
}

// Subscribe registers a new independent stream for recipientID on topic,
// creating the group (and its dispatch loop) when it is the first
// subscription for that key.
func (h *Hub) Subscribe(topic Topic, recipientID string) *Subscription {
	k := groupKey{topic: topic, recipient: recipientID}
	ch := make(chan *domain.Notification, h.buffer)

	// The channel is registered while h.mu is still held. A concurrent
	// last-subscriber Close also needs h.mu to tear the group down, so the
	// group found here cannot die before the new channel is in g.subs.
	h.mu.Lock()
	g, ok := h.groups[k]
	if !ok {
		g = &group{
			queue: make(chan *domain.Notification, h.buffer),
			subs:  make(map[uint64]chan *domain.Notification),
		}
		h.groups[k] = g
		go g.dispatch(topic)
	}
	h.nextID++
	id := h.nextID
	g.mu.Lock()
	g.subs[id] = ch
	subscribers.Inc()
	g.mu.Unlock()
	h.mu.Unlock()

	return &Subscription{C: ch, hub: h, key: k, id: id}
}

// Publish hands one committed event to the recipient's group. Without any
// live subscription the event is simply not delivered in real time; the
// recipient reconciles on their next first-page fetch.
func (h *Hub) Publish(topic Topic, recipientID string, n *domain.Notification) {
	h.mu.Lock()
	g, ok := h.groups[groupKey{topic: topic, recipient: recipientID}]
	h.mu.Unlock()
	if !ok {
		return
	}

	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return
	}
	select {
	case g.queue <- n:
		published.WithLabelValues(string(topic)).Inc()
	default:
		dropped.WithLabelValues(string(topic)).Inc()
	}
}

// PublishNotification implements the services.Publisher contract for the
// notifications topic.
func (h *Hub) PublishNotification(n *domain.Notification) {
	h.Publish(TopicNotifications, n.RecipientID, n)
}

// Close unsubscribes the stream. The last subscriber of a group tears the
// group down. Safe to call more than once.
func (s *Subscription) Close() {
	s.once.Do(func() {
		s.hub.mu.Lock()
		g, ok := s.hub.groups[s.key]
		if !ok {
			s.hub.mu.Unlock()
			return
		}

		g.mu.Lock()
		if ch, present := g.subs[s.id]; present {
			delete(g.subs, s.id)
			close(ch)
			subscribers.Dec()
		}
		last := len(g.subs) == 0
		if last {
			g.closed = true
			close(g.queue)
			delete(s.hub.groups, s.key)
		}
		g.mu.Unlock()
		s.hub.mu.Unlock()
	})
}

// CloseAll tears down every group, closing all subscriber channels. Meant
// for process shutdown; the hub accepts new subscriptions afterwards but
// existing consumers see their streams end.
func (h *Hub) CloseAll() {
	h.mu.Lock()
	groups := h.groups
	h.groups = make(map[groupKey]*group)
	h.mu.Unlock()

	for _, g := range groups {
		g.mu.Lock()
		if !g.closed {
			g.closed = true
			close(g.queue)
		}
		for id, ch := range g.subs {
			delete(g.subs, id)
			close(ch)
			subscribers.Dec()
		}
		g.mu.Unlock()
	}
}

// dispatch is the per-group loop: one goroutine drains the queue and fans
// each event out to every subscriber, preserving order. A full subscriber
// buffer drops that subscriber's copy rather than stalling siblings.
func (g *group) dispatch(topic Topic) {
	for n := range g.queue {
		g.mu.Lock()
		for _, ch := range g.subs {
			select {
			case ch <- n:
			default:
				dropped.WithLabelValues(string(topic)).Inc()
			}
		}
		g.mu.Unlock()
	}
}
