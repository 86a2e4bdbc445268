// Package registry keeps the live document sessions of a server process.
package registry

import (
	"sync"
	"time"

	"github.com/dgallion1/docblocks/internal/session"
	"github.com/google/uuid"
)

// Entry owns one session and serializes every call into it.
type Entry struct {
	mu sync.Mutex

	ID        string
	Name      string
	CreatedAt time.Time
	UpdatedAt time.Time

	sess *session.Session
}

// Do runs fn with exclusive access to the entry's session.
func (e *Entry) Do(fn func(s *session.Session)) {
	e.mu.Lock()
	defer e.mu.Unlock()
	fn(e.sess)
	e.UpdatedAt = time.Now()
}

// Rename changes the display name used for exports.
func (e *Entry) Rename(name string) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.Name = name
	e.UpdatedAt = time.Now()
}

// Info returns the entry's name and last update time.
func (e *Entry) Info() (name string, updated time.Time) {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.Name, e.UpdatedAt
}

// Registry is a thread-safe in-memory session registry with TTL eviction.
type Registry struct {
	mu      sync.Mutex
	entries map[string]*Entry
	ttl     time.Duration
	opts    []session.Option
}

func New(ttl time.Duration, opts ...session.Option) *Registry {
	return &Registry{
		entries: make(map[string]*Entry),
		ttl:     ttl,
		opts:    opts,
	}
}

// Create registers a new session loaded with doc.
func (r *Registry) Create(name, doc string) *Entry {
	now := time.Now()
	sess := session.New(r.opts...)
	sess.Load(doc)
	e := &Entry{
		ID:        uuid.NewString(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
		sess:      sess,
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.ID] = e
	return e
}

func (r *Registry) Get(id string) *Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.entries[id]
}

// Delete removes a session and reports whether it existed.
func (r *Registry) Delete(id string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.entries[id]
	delete(r.entries, id)
	return ok
}

func (r *Registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.entries)
}

// Cleanup removes sessions idle for longer than the TTL and returns how
// many were evicted.
func (r *Registry) Cleanup() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	now := time.Now()
	evicted := 0
	for id, e := range r.entries {
		if _, updated := e.Info(); now.Sub(updated) > r.ttl {
			delete(r.entries, id)
			evicted++
		}
	}
	return evicted
}
