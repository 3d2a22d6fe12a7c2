package broadcast

import (
	"context"
	"encoding/json"
	"sync"
	"sync/atomic"
	"time"

	"github.com/rs/zerolog/log"

	"pricehub/internal/application/port"
	"pricehub/internal/domain"
)

// SnapshotSource hands out the most recently completed snapshot.
type SnapshotSource interface {
	Latest() *domain.Snapshot
}

type HubDeps struct {
	Source    SnapshotSource
	Formatter *Formatter
	Metrics   port.Metrics
	Now       func() time.Time
}

// Hub fans snapshots out to subscribers and answers their requests.
// A subscriber that cannot take a message is dropped; it never delays the others.
type Hub struct {
	registry *Registry
	source   SnapshotSource
	fmt      *Formatter
	metrics  port.Metrics
	now      func() time.Time
	closed   atomic.Bool

	// deliverMu orders snapshot deliveries: a subscriber never sees an older
	// snapshot after a newer one, and Close cannot interleave with a connect.
	deliverMu sync.Mutex
}

func NewHub(deps HubDeps) *Hub {
	if deps.Formatter == nil {
		deps.Formatter = NewFormatter(nil)
	}
	if deps.Metrics == nil {
		deps.Metrics = port.NopMetrics()
	}
	if deps.Now == nil {
		deps.Now = time.Now
	}
	return &Hub{
		registry: NewRegistry(),
		source:   deps.Source,
		fmt:      deps.Formatter,
		metrics:  deps.Metrics,
		now:      deps.Now,
	}
}

func (h *Hub) Registry() *Registry { return h.registry }

// OnConnect registers sub and, once a cycle has completed, sends it exactly one
// initial_data message with the latest snapshot.
func (h *Hub) OnConnect(sub port.Subscriber) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	if h.closed.Load() {
		_ = sub.Close()
		return
	}
	h.registry.Register(sub)
	h.metrics.SubscribersChanged(h.registry.Len())
	log.Info().Str("subscriber", sub.ID()).Int("active", h.registry.Len()).Msg("subscriber connected")

	snap := h.source.Latest()
	if !snap.Published() {
		return
	}
	h.deliver(sub, TypeInitialData, snap)
}

// OnDisconnect is idempotent.
func (h *Hub) OnDisconnect(sub port.Subscriber) {
	if !h.registry.Unregister(sub) {
		return
	}
	h.metrics.SubscribersChanged(h.registry.Len())
	log.Info().Str("subscriber", sub.ID()).Int("active", h.registry.Len()).Msg("subscriber disconnected")
}

// OnRequest answers a request_data with the current snapshot, even if it is empty.
func (h *Hub) OnRequest(sub port.Subscriber) {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()
	h.deliver(sub, TypeDataResponse, h.source.Latest())
}

// Publish sends a price_update built from snap to every subscriber registered
// when the call starts. Subscribers that fail are unregistered and closed.
func (h *Hub) Publish(_ context.Context, snap *domain.Snapshot) error {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	members := h.registry.Active()
	if len(members) == 0 {
		return nil
	}

	payload, err := h.encodeData(TypePriceUpdate, snap)
	if err != nil {
		return err
	}

	delivered := 0
	for _, sub := range members {
		if err := sub.Send(payload); err != nil {
			h.evict(sub, TypePriceUpdate, err)
			continue
		}
		delivered++
		h.metrics.MessageDelivered(TypePriceUpdate)
	}

	log.Debug().
		Uint64("seq", snap.Seq).
		Int("symbols", snap.Len()).
		Int("delivered", delivered).
		Int("dropped", len(members)-delivered).
		Msg("price update broadcast")
	return nil
}

// HandleMessage processes one inbound frame from sub. Malformed frames are
// logged and ignored; the subscriber stays connected.
func (h *Hub) HandleMessage(sub port.Subscriber, raw []byte) {
	var in inboundMessage
	if err := json.Unmarshal(raw, &in); err != nil {
		perr := &ProtocolError{SubscriberID: sub.ID(), Err: err}
		log.Warn().Err(perr).Msg("ignoring inbound message")
		return
	}

	switch in.Type {
	case TypePing:
		payload, err := json.Marshal(PongMessage{Type: TypePong, Timestamp: h.now().Unix()})
		if err != nil {
			log.Error().Err(err).Msg("encode pong")
			return
		}
		h.send(sub, TypePong, payload)
	case TypeRequestData:
		h.OnRequest(sub)
	default:
		log.Debug().Str("subscriber", sub.ID()).Str("type", in.Type).Msg("unknown message type")
	}
}

// Close disconnects every subscriber and rejects new ones.
func (h *Hub) Close() {
	h.deliverMu.Lock()
	defer h.deliverMu.Unlock()

	if !h.closed.CompareAndSwap(false, true) {
		return
	}
	for _, sub := range h.registry.Active() {
		h.registry.Unregister(sub)
		_ = sub.Close()
	}
	h.metrics.SubscribersChanged(0)
}

func (h *Hub) deliver(sub port.Subscriber, msgType string, snap *domain.Snapshot) {
	payload, err := h.encodeData(msgType, snap)
	if err != nil {
		log.Error().Err(err).Str("type", msgType).Msg("encode snapshot")
		return
	}
	h.send(sub, msgType, payload)
}

func (h *Hub) send(sub port.Subscriber, msgType string, payload []byte) {
	if err := sub.Send(payload); err != nil {
		h.evict(sub, msgType, err)
		return
	}
	h.metrics.MessageDelivered(msgType)
}

func (h *Hub) evict(sub port.Subscriber, msgType string, err error) {
	h.metrics.DeliveryFailed(msgType)
	derr := &DeliveryError{SubscriberID: sub.ID(), Err: err}
	log.Warn().Err(derr).Str("type", msgType).Msg("dropping subscriber")
	if h.registry.Unregister(sub) {
		h.metrics.SubscribersChanged(h.registry.Len())
	}
	_ = sub.Close()
}

func (h *Hub) encodeData(msgType string, snap *domain.Snapshot) ([]byte, error) {
	return json.Marshal(DataMessage{
		Type:      msgType,
		Data:      h.fmt.Records(snap),
		Timestamp: h.now().Unix(),
	})
}
