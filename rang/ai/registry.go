package ai

import (
	"encoding/json"
	"fmt"
	"os"
	"sync"
)

// Registry holds the AI profile definitions a server can seat.
type Registry struct {
	mu       sync.RWMutex
	profiles map[string]*Profile
	order    []string
}

// NewRegistry creates a registry pre-filled with the default roster.
func NewRegistry() *Registry {
	r := &Registry{profiles: make(map[string]*Profile)}
	for _, p := range DefaultRoster() {
		r.profiles[p.ID] = p
		r.order = append(r.order, p.ID)
	}
	return r
}

// LoadFromFile replaces or extends the roster from a JSON file.
func (r *Registry) LoadFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read profiles file: %w", err)
	}
	return r.LoadFromJSON(data)
}

// LoadFromJSON merges profiles from raw JSON bytes.
func (r *Registry) LoadFromJSON(data []byte) error {
	var list []*Profile
	if err := json.Unmarshal(data, &list); err != nil {
		return fmt.Errorf("parse profiles JSON: %w", err)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range list {
		if p.ID == "" {
			continue
		}
		if p.PassProbability == 0 {
			p.PassProbability = DefaultPassProbability
		}
		if _, known := r.profiles[p.ID]; !known {
			r.order = append(r.order, p.ID)
		}
		r.profiles[p.ID] = p
	}
	return nil
}

// Get returns a profile by ID.
func (r *Registry) Get(id string) *Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.profiles[id]
}

// All returns the profiles in registration order.
func (r *Registry) All() []*Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*Profile, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.profiles[id])
	}
	return out
}

// NextFree returns the first profile whose ID is not in use.
func (r *Registry) NextFree(used map[string]bool) *Profile {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, id := range r.order {
		if !used[id] {
			return r.profiles[id]
		}
	}
	return nil
}

// Count returns the number of registered profiles.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.profiles)
}
