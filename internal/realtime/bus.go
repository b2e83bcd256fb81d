package realtime

import (
	"context"
	"sync"
	"time"
)

type EntityType string

const (
	EntityClient        EntityType = "clients"
	EntityGrowthMetrics EntityType = "weekly_growth_metrics"
	EntityVideo         EntityType = "videos"
	EntityCampaign      EntityType = "campaigns"
	EntityKPI           EntityType = "kpis"
	EntityKPIValue      EntityType = "kpi_weekly_values"
	EntityRock          EntityType = "rocks"
	EntityIssue         EntityType = "issues"

	// EntityAll subscribes to every entity type.
	EntityAll EntityType = "*"
)

type Action string

const (
	ActionInsert Action = "insert"
	ActionUpdate Action = "update"
	ActionDelete Action = "delete"
)

// ChangeEvent describes one row change.
type ChangeEvent struct {
	Entity   EntityType `json:"entity"`
	Action   Action     `json:"action"`
	ID       string     `json:"id"`
	ClientID string     `json:"client_id,omitempty"`
	At       time.Time  `json:"at"`
	Origin   string     `json:"origin,omitempty"`
}

type Handler func(ChangeEvent)

// Bus fans change events out to subscribers keyed by entity type.
type Bus interface {
	Publish(ctx context.Context, ev ChangeEvent) error
	Subscribe(entity EntityType, fn Handler) (unsubscribe func())
	Close() error
}

// LocalBus delivers events in-process, synchronously, in publish order.
type LocalBus struct {
	mu     sync.RWMutex
	nextID int
	subs   map[EntityType]map[int]Handler
}

func NewLocalBus() *LocalBus {
	return &LocalBus{subs: make(map[EntityType]map[int]Handler)}
}

func (b *LocalBus) Subscribe(entity EntityType, fn Handler) func() {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	if b.subs[entity] == nil {
		b.subs[entity] = make(map[int]Handler)
	}
	b.subs[entity][id] = fn

	var once sync.Once
	return func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			delete(b.subs[entity], id)
		})
	}
}

func (b *LocalBus) Publish(_ context.Context, ev ChangeEvent) error {
	if ev.At.IsZero() {
		ev.At = time.Now().UTC()
	}
	b.deliver(ev)
	return nil
}

func (b *LocalBus) deliver(ev ChangeEvent) {
	b.mu.RLock()
	handlers := make([]Handler, 0, len(b.subs[ev.Entity])+len(b.subs[EntityAll]))
	for _, fn := range b.subs[ev.Entity] {
		handlers = append(handlers, fn)
	}
	if ev.Entity != EntityAll {
		for _, fn := range b.subs[EntityAll] {
			handlers = append(handlers, fn)
		}
	}
	b.mu.RUnlock()

	for _, fn := range handlers {
		fn(ev)
	}
}

func (b *LocalBus) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.subs = make(map[EntityType]map[int]Handler)
	return nil
}
