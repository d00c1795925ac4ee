package queue

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/telemetryhub/relay/internal/domain"
	"github.com/telemetryhub/relay/internal/storage"
	"github.com/telemetryhub/relay/internal/transport"
)

// evictAttempts bounds the shrink-and-retry loop when the store is full.
// Attempt n removes ceil(20%·n) of the current queue length from the oldest
// end, so attempt 5 removes everything that is left.
const evictAttempts = 5

// Hooks carries the observability callbacks injected by main.
// Using a struct keeps the Manager constructor signature clean; every field
// is optional (nil = no-op).
type Hooks struct {
	OnEnqueued       func(priority domain.Priority)
	OnDelivered      func(priority domain.Priority, latency time.Duration)
	OnFailed         func(priority domain.Priority)
	OnDrop           func(ev domain.Event, reason domain.DropReason)
	OnPersistFailure func(cause string)
}

func (h *Hooks) fillDefaults() {
	if h.OnEnqueued == nil {
		h.OnEnqueued = func(domain.Priority) {}
	}
	if h.OnDelivered == nil {
		h.OnDelivered = func(domain.Priority, time.Duration) {}
	}
	if h.OnFailed == nil {
		h.OnFailed = func(domain.Priority) {}
	}
	if h.OnDrop == nil {
		h.OnDrop = func(domain.Event, domain.DropReason) {}
	}
	if h.OnPersistFailure == nil {
		h.OnPersistFailure = func(string) {}
	}
}

// Manager owns the in-memory queue of pending events and keeps the durable
// record in sync with it: every mutation (enqueue, delivery outcome,
// eviction) is followed by a full-snapshot persist, so no mutation is
// observable across a restart unless its persist also succeeded.
//
// ProcessQueue is not guarded against overlapping invocations; the Flusher
// runs it from a single goroutine, which is the intended usage.
type Manager struct {
	store      storage.Store
	transport  transport.Transport
	key        string
	maxRetries int
	logger     *zap.Logger
	hooks      Hooks

	mu     sync.Mutex
	events []domain.Event

	// persistMu serializes snapshot-marshal + write pairs so a slow persist
	// from one goroutine can never overwrite a newer snapshot with an older
	// one.
	persistMu sync.Mutex
}

func NewManager(
	store storage.Store,
	tr transport.Transport,
	key string,
	maxRetries int,
	logger *zap.Logger,
	hooks Hooks,
) *Manager {
	hooks.fillDefaults()
	return &Manager{
		store:      store,
		transport:  tr,
		key:        key,
		maxRetries: maxRetries,
		logger:     logger,
		hooks:      hooks,
	}
}

// Load reconstructs the in-memory queue from the durable record.
// Called once at startup, before any Enqueue or ProcessQueue.
//
// Recovery policy favours availability over partial recovery: a record that
// cannot be read or is not a JSON array is deleted and the queue starts
// empty; individual entries that fail shape validation are dropped with a
// corrupt-drop notification while the rest load normally.
func (m *Manager) Load(ctx context.Context) {
	blob, err := m.store.Read(ctx, m.key)
	if err != nil {
		m.logger.Warn("stored queue unreadable, resetting", zap.Error(err))
		m.reset(ctx)
		return
	}
	if blob == nil {
		return
	}

	var raw []json.RawMessage
	if err := json.Unmarshal(blob, &raw); err != nil {
		m.logger.Warn("stored queue corrupt, resetting", zap.Error(err))
		m.reset(ctx)
		return
	}

	events := make([]domain.Event, 0, len(raw))
	dropped := 0
	for _, entry := range raw {
		ev, ok := decodeEvent(entry)
		if !ok {
			dropped++
			m.hooks.OnDrop(domain.Event{}, domain.DropCorrupt)
			continue
		}
		events = append(events, ev)
	}

	m.mu.Lock()
	m.events = events
	m.mu.Unlock()

	m.logger.Info("queue loaded from storage",
		zap.Int("events", len(events)),
		zap.Int("dropped_invalid", dropped),
	)
}

// Enqueue assigns identity and creation time, appends the event, and
// persists. It is fire-and-forget: persistence failures are absorbed here
// (quota failures via eviction, anything else logged), never returned.
// The created event is returned so producers can echo its id.
func (m *Manager) Enqueue(ctx context.Context, data json.RawMessage, priority domain.Priority) domain.Event {
	ev := domain.Event{
		ID:        uuid.New().String(),
		Timestamp: time.Now().UnixMilli(),
		Data:      data,
		Priority:  priority,
		Retries:   0,
	}

	m.mu.Lock()
	m.events = append(m.events, ev)
	m.mu.Unlock()

	m.hooks.OnEnqueued(priority)
	m.persist(ctx)
	return ev
}

// ProcessQueue drains one snapshot of the queue against the transport.
//
// The snapshot is stable-sorted by priority ascending (critical first,
// insertion order preserved within a class) and taken before the first send,
// so events enqueued mid-drain land in the live queue untouched and are
// picked up by the next invocation. The live queue is addressed only by
// event id during the drain.
//
// Per-event outcomes are independent: a failure neither stops the drain nor
// affects later events. ProcessQueue itself never fails; when it returns,
// the persisted record reflects the in-memory state.
func (m *Manager) ProcessQueue(ctx context.Context) {
	snapshot := m.sortedSnapshot()
	if len(snapshot) == 0 {
		return
	}

	m.logger.Debug("drain cycle starting", zap.Int("events", len(snapshot)))

	for _, ev := range snapshot {
		start := time.Now()
		err := m.transport.Send(ctx, ev.Data)
		if err == nil {
			m.removeByID(ev.ID)
			m.hooks.OnDelivered(ev.Priority, time.Since(start))
			m.persist(ctx)
			continue
		}

		m.hooks.OnFailed(ev.Priority)
		retries, removed := m.recordFailure(ev.ID)
		if removed {
			ev.Retries = retries
			m.hooks.OnDrop(ev, domain.DropRetryLimit)
			m.logger.Warn("event dropped after retry ceiling",
				zap.String("id", ev.ID),
				zap.Int("retries", retries),
				zap.Error(err),
			)
		} else {
			m.logger.Debug("delivery failed, will retry",
				zap.String("id", ev.ID),
				zap.Int("retries", retries),
				zap.Error(err),
			)
		}
		m.persist(ctx)
	}
}

// Len returns the number of pending events.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.events)
}

// Stats returns the per-priority depth snapshot served by the API.
func (m *Manager) Stats() domain.QueueStats {
	m.mu.Lock()
	defer m.mu.Unlock()

	s := domain.QueueStats{Depth: len(m.events)}
	for _, ev := range m.events {
		switch ev.Priority {
		case domain.PriorityCritical:
			s.Critical++
		case domain.PriorityHigh:
			s.High++
		default:
			s.Normal++
		}
	}
	return s
}

// ---- internal ----

func (m *Manager) sortedSnapshot() []domain.Event {
	m.mu.Lock()
	snapshot := make([]domain.Event, len(m.events))
	copy(snapshot, m.events)
	m.mu.Unlock()

	sort.SliceStable(snapshot, func(i, j int) bool {
		return snapshot[i].Priority < snapshot[j].Priority
	})
	return snapshot
}

func (m *Manager) removeByID(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, ev := range m.events {
		if ev.ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return
		}
	}
}

// recordFailure increments the event's retry counter and removes it once the
// counter reaches the ceiling. Returns the new count and whether the event
// was removed. An event evicted mid-drain is simply gone (0, false).
func (m *Manager) recordFailure(id string) (retries int, removed bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID != id {
			continue
		}
		m.events[i].Retries++
		retries = m.events[i].Retries
		if retries >= m.maxRetries {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return retries, true
		}
		return retries, false
	}
	return 0, false
}

// persist writes the full queue snapshot as one record. A quota-exceeded
// write triggers the eviction loop; any other failure is abandoned for this
// cycle — the in-memory state stays authoritative until the next successful
// save.
func (m *Manager) persist(ctx context.Context) {
	m.persistMu.Lock()
	defer m.persistMu.Unlock()

	err := m.store.Write(ctx, m.key, m.marshal())
	if err == nil {
		return
	}

	if errors.Is(err, domain.ErrQuotaExceeded) {
		m.hooks.OnPersistFailure("quota")
		m.evict(ctx)
		return
	}

	m.hooks.OnPersistFailure("other")
	m.logger.Warn("persist failed, keeping in-memory state", zap.Error(err))
}

// evict progressively removes the oldest-appended events — 20%, 40%, 60%,
// 80%, then 100% of the current length — retrying the save after each cut.
// Eviction is priority-blind: an old critical event goes before a newer
// normal one. If all attempts fail, the in-memory queue keeps its
// last-reduced state with no durable copy until the next successful save.
func (m *Manager) evict(ctx context.Context) {
	for attempt := 1; attempt <= evictAttempts; attempt++ {
		evicted := m.cutOldest(0.2 * float64(attempt))
		for _, ev := range evicted {
			m.hooks.OnDrop(ev, domain.DropEvicted)
		}

		err := m.store.Write(ctx, m.key, m.marshal())
		if err == nil {
			m.logger.Info("storage recovered after eviction",
				zap.Int("attempt", attempt),
				zap.Int("remaining", m.Len()),
			)
			return
		}
		if !errors.Is(err, domain.ErrQuotaExceeded) {
			m.hooks.OnPersistFailure("other")
			m.logger.Warn("persist failed during eviction", zap.Error(err))
			return
		}
		m.hooks.OnPersistFailure("quota")
	}

	m.logger.Error("eviction exhausted, queue has no durable copy",
		zap.Int("remaining", m.Len()),
	)
}

// cutOldest removes frac of the current queue length from the front
// (earliest-appended first) and returns the removed events.
func (m *Manager) cutOldest(frac float64) []domain.Event {
	m.mu.Lock()
	defer m.mu.Unlock()

	n := int(math.Ceil(float64(len(m.events)) * frac))
	if n > len(m.events) {
		n = len(m.events)
	}
	if n == 0 {
		return nil
	}
	evicted := make([]domain.Event, n)
	copy(evicted, m.events[:n])
	m.events = append([]domain.Event(nil), m.events[n:]...)
	return evicted
}

func (m *Manager) marshal() []byte {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.events) == 0 {
		return []byte("[]")
	}
	blob, err := json.Marshal(m.events)
	if err != nil {
		// Events are built from valid JSON payloads, so this cannot happen
		// in practice; an empty record is the safe fallback.
		m.logger.Error("marshal queue failed", zap.Error(err))
		return []byte("[]")
	}
	return blob
}

func (m *Manager) reset(ctx context.Context) {
	if err := m.store.Delete(ctx, m.key); err != nil {
		m.logger.Warn("failed to delete corrupt record", zap.Error(err))
	}
	m.mu.Lock()
	m.events = nil
	m.mu.Unlock()
}

// persistedEvent mirrors domain.Event with pointer fields so load-time
// validation can tell an absent field from a zero value. A type mismatch in
// any field fails the unmarshal of that entry, which drops it.
type persistedEvent struct {
	ID        *string         `json:"id"`
	Timestamp *int64          `json:"timestamp"`
	Data      json.RawMessage `json:"data"`
	Priority  *int            `json:"priority"`
	Retries   *int            `json:"retries"`
}

func decodeEvent(raw json.RawMessage) (domain.Event, bool) {
	var p persistedEvent
	if err := json.Unmarshal(raw, &p); err != nil {
		return domain.Event{}, false
	}
	if p.ID == nil || *p.ID == "" || p.Timestamp == nil ||
		p.Priority == nil || p.Retries == nil || len(p.Data) == 0 {
		return domain.Event{}, false
	}
	return domain.Event{
		ID:        *p.ID,
		Timestamp: *p.Timestamp,
		Data:      p.Data,
		Priority:  domain.Priority(*p.Priority),
		Retries:   *p.Retries,
	}, true
}
