// Package registry keeps the ordered batch of parsed modules for one build and
// reports conflicts between them.
package registry

import (
	"sort"
	"sync"
	"time"

	"github.com/dirt-web/dirt/internal/types"
)

// ModuleRegistry holds module records keyed by source path, in the order
// they were first registered.
type ModuleRegistry struct {
	modules  map[string]*types.ModuleRecord
	order    []string
	mutex    sync.RWMutex
	watchers []chan ModuleEvent
}

// ModuleEvent represents a change in the module registry
type ModuleEvent struct {
	Type      EventType
	Module    *types.ModuleRecord
	Timestamp time.Time
}

// EventType represents the type of module event
type EventType int

const (
	EventTypeAdded EventType = iota
	EventTypeUpdated
	EventTypeRemoved
)

// String returns the event name used in log output
func (e EventType) String() string {
	switch e {
	case EventTypeAdded:
		return "added"
	case EventTypeUpdated:
		return "updated"
	case EventTypeRemoved:
		return "removed"
	default:
		return "unknown"
	}
}

// Collision groups the modules that share a key.
type Collision struct {
	Key   string   `json:"key" yaml:"key"`
	Paths []string `json:"paths" yaml:"paths"`
}

// NewModuleRegistry creates an empty registry
func NewModuleRegistry() *ModuleRegistry {
	return &ModuleRegistry{
		modules:  make(map[string]*types.ModuleRecord),
		order:    make([]string, 0),
		watchers: make([]chan ModuleEvent, 0),
	}
}

// Register adds or replaces a module. A replaced module keeps its position.
func (r *ModuleRegistry) Register(record *types.ModuleRecord) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	eventType := EventTypeAdded
	if _, exists := r.modules[record.Path]; exists {
		eventType = EventTypeUpdated
	} else {
		r.order = append(r.order, record.Path)
	}
	r.modules[record.Path] = record

	r.notify(eventType, record)
}

// Replace swaps the whole batch for records. Modules missing from records
// are removed; the rest are added or updated. The resulting order is the
// order of records.
func (r *ModuleRegistry) Replace(records []*types.ModuleRecord) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	incoming := make(map[string]struct{}, len(records))
	for _, record := range records {
		incoming[record.Path] = struct{}{}
	}
	for _, path := range r.order {
		if _, keep := incoming[path]; !keep {
			r.notify(EventTypeRemoved, r.modules[path])
			delete(r.modules, path)
		}
	}

	previous := r.modules
	r.modules = make(map[string]*types.ModuleRecord, len(records))
	r.order = make([]string, 0, len(records))
	for _, record := range records {
		eventType := EventTypeAdded
		if _, existed := previous[record.Path]; existed {
			eventType = EventTypeUpdated
		}
		if _, dup := r.modules[record.Path]; !dup {
			r.order = append(r.order, record.Path)
		}
		r.modules[record.Path] = record
		r.notify(eventType, record)
	}
}

// Get retrieves a module by source path
func (r *ModuleRegistry) Get(path string) (*types.ModuleRecord, bool) {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	record, exists := r.modules[path]
	return record, exists
}

// All returns the registered modules in registration order
func (r *ModuleRegistry) All() []*types.ModuleRecord {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	result := make([]*types.ModuleRecord, 0, len(r.order))
	for _, path := range r.order {
		result = append(result, r.modules[path])
	}
	return result
}

// Remove removes a module from the registry
func (r *ModuleRegistry) Remove(path string) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	record, exists := r.modules[path]
	if !exists {
		return
	}

	delete(r.modules, path)
	for i, p := range r.order {
		if p == path {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}

	r.notify(EventTypeRemoved, record)
}

// Count returns the number of registered modules
func (r *ModuleRegistry) Count() int {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	return len(r.modules)
}

// RouteCollisions lists routes claimed by more than one module. Every index
// module maps to "/", so two index files anywhere in the tree collide.
func (r *ModuleRegistry) RouteCollisions() []Collision {
	return r.collisions(func(m *types.ModuleRecord) []string {
		return []string{m.Route}
	})
}

// NameCollisions lists module names shared by more than one file. Such
// modules write to the same generated files and overwrite each other.
func (r *ModuleRegistry) NameCollisions() []Collision {
	return r.collisions(func(m *types.ModuleRecord) []string {
		return []string{m.Name}
	})
}

// EndpointCollisions lists method and route pairs declared more than once
// across all modules, keyed as "METHOD route".
func (r *ModuleRegistry) EndpointCollisions() []Collision {
	return r.collisions(func(m *types.ModuleRecord) []string {
		keys := make([]string, 0, len(m.Services))
		seen := make(map[string]struct{}, len(m.Services))
		for _, svc := range m.Services {
			key := svc.Method + " " + svc.Route
			if _, dup := seen[key]; dup {
				continue
			}
			seen[key] = struct{}{}
			keys = append(keys, key)
		}
		return keys
	})
}

func (r *ModuleRegistry) collisions(keysOf func(*types.ModuleRecord) []string) []Collision {
	r.mutex.RLock()
	defer r.mutex.RUnlock()

	groups := make(map[string][]string)
	for _, path := range r.order {
		for _, key := range keysOf(r.modules[path]) {
			groups[key] = append(groups[key], path)
		}
	}

	result := make([]Collision, 0)
	for key, paths := range groups {
		if len(paths) > 1 {
			result = append(result, Collision{Key: key, Paths: paths})
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].Key < result[j].Key
	})
	return result
}

// Watch returns a channel that receives module events
func (r *ModuleRegistry) Watch() <-chan ModuleEvent {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	ch := make(chan ModuleEvent, 100)
	r.watchers = append(r.watchers, ch)
	return ch
}

// UnWatch removes a watcher channel and closes it
func (r *ModuleRegistry) UnWatch(ch <-chan ModuleEvent) {
	r.mutex.Lock()
	defer r.mutex.Unlock()

	for i, watcher := range r.watchers {
		if watcher == ch {
			close(watcher)
			r.watchers = append(r.watchers[:i], r.watchers[i+1:]...)
			break
		}
	}
}

// notify must be called with the write lock held.
func (r *ModuleRegistry) notify(eventType EventType, record *types.ModuleRecord) {
	event := ModuleEvent{
		Type:      eventType,
		Module:    record,
		Timestamp: time.Now(),
	}

	for _, watcher := range r.watchers {
		select {
		case watcher <- event:
		default:
			// Skip if channel is full
		}
	}
}
