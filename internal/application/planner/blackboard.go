package planner

import (
	"sort"
	"sync"
)

// Blackboard keys posted by the planner itself.
const (
	KeyMinGasWorkers = "gatherer_min_gas_workers"
	KeyMaxGasWorkers = "gatherer_max_gas_workers"
)

// Blackboard is the key/value board shared between the planner, the
// strategy and the execution layer. Strategies post flags here (for
// example whether to expand) and the planner posts its gas estimate.
type Blackboard struct {
	mu     sync.RWMutex
	values map[string]interface{}
}

// NewBlackboard returns an empty board
func NewBlackboard() *Blackboard {
	return &Blackboard{values: make(map[string]interface{})}
}

// Post stores value under key
func (b *Blackboard) Post(key string, value interface{}) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.values[key] = value
}

// Get returns the value under key
func (b *Blackboard) Get(key string) (interface{}, bool) {
	b.mu.RLock()
	defer b.mu.RUnlock()
	v, ok := b.values[key]
	return v, ok
}

// Has reports whether key is set
func (b *Blackboard) Has(key string) bool {
	_, ok := b.Get(key)
	return ok
}

// Int returns the value under key as an int, or def
func (b *Blackboard) Int(key string, def int) int {
	v, ok := b.Get(key)
	if !ok {
		return def
	}
	switch n := v.(type) {
	case int:
		return n
	case int64:
		return int(n)
	case float64:
		return int(n)
	}
	return def
}

// Bool returns the value under key as a bool, or def
func (b *Blackboard) Bool(key string, def bool) bool {
	if v, ok := b.Get(key); ok {
		if flag, ok := v.(bool); ok {
			return flag
		}
	}
	return def
}

// Remove deletes key
func (b *Blackboard) Remove(key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.values, key)
}

// Snapshot copies the board
func (b *Blackboard) Snapshot() map[string]interface{} {
	b.mu.RLock()
	defer b.mu.RUnlock()
	out := make(map[string]interface{}, len(b.values))
	for k, v := range b.values {
		out[k] = v
	}
	return out
}

// Keys returns the posted keys in sorted order
func (b *Blackboard) Keys() []string {
	b.mu.RLock()
	defer b.mu.RUnlock()
	keys := make([]string, 0, len(b.values))
	for k := range b.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
