package dataset

import (
	"sort"
	"sync"
	"time"
)

// Info is the catalog metadata for a registered dataset.
type Info struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Path      string    `json:"-"` // storage path of the uploaded CSV
	Rows      int       `json:"rows"`
	Columns   int       `json:"columns"`
	CreatedAt time.Time `json:"created_at"`
}

// Entry pairs catalog metadata with the loaded table.
type Entry struct {
	Info Info
	Data *Dataset
}

// Registry holds all loaded datasets, keyed by id. Loaded at startup from
// the catalog and mutated by the dataset handlers.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*Entry
}

func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*Entry)}
}

// Get returns the entry with the given id, or nil.
func (r *Registry) Get(id string) *Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.entries[id]
}

// Put registers or replaces an entry.
func (r *Registry) Put(e *Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Info.ID] = e
}

// Delete removes an entry and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

// All returns all entries sorted by name for stable listings.
func (r *Registry) All() []*Entry {
	r.mu.RLock()
	defer r.mu.RUnlock()
	entries := make([]*Entry, 0, len(r.entries))
	for _, e := range r.entries {
		entries = append(entries, e)
	}
	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Info.Name != entries[j].Info.Name {
			return entries[i].Info.Name < entries[j].Info.Name
		}
		return entries[i].Info.ID < entries[j].Info.ID
	})
	return entries
}
