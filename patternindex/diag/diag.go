// Package diag provides a low-overhead annotation system for tracking
// pattern-index load and has-predicate-scan execution events.
package diag

import (
	"sync"
	"time"
)

// Event name constants, grouped by the lifecycle stage that emits them.
const (
	IndexLoadBegin    = "index/load.begin"
	IndexLoadComplete = "index/load.complete"

	ScanBegin    = "scan/begin"
	ScanComplete = "scan/complete"

	CacheHit  = "cache/hit"
	CacheMiss = "cache/miss"

	QueryTimeout = "query/timeout"
)

// Event represents a single annotation event.
type Event struct {
	Name    string
	Start   time.Time
	End     time.Time
	Latency time.Duration
	Data    map[string]interface{}
}

// Handler processes events as they occur.
type Handler func(event Event)

// Collector accumulates events during index load or query execution.
type Collector struct {
	enabled bool
	handler Handler
	events  []Event
	mu      sync.Mutex
}

// NewCollector creates a collector. A nil handler disables accumulation
// while keeping the API usable with zero overhead (the nil check happens
// before any allocation).
func NewCollector(handler Handler) *Collector {
	return &Collector{
		enabled: handler != nil,
		handler: handler,
		events:  make([]Event, 0, 32),
	}
}

// Add records an event and, if a handler is installed, dispatches it.
func (c *Collector) Add(event Event) {
	if !c.enabled {
		return
	}
	c.mu.Lock()
	c.events = append(c.events, event)
	c.mu.Unlock()

	if c.handler != nil {
		c.handler(event)
	}
}

// AddTiming records an event whose latency is measured from start to now.
func (c *Collector) AddTiming(name string, start time.Time, data map[string]interface{}) {
	if !c.enabled {
		return
	}
	end := time.Now()
	c.Add(Event{Name: name, Start: start, End: end, Latency: end.Sub(start), Data: data})
}

// Events returns a copy of all collected events.
func (c *Collector) Events() []Event {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]Event, len(c.events))
	copy(out, c.events)
	return out
}
