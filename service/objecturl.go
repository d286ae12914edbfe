package service

import (
	"fmt"
	"strings"
	"sync"

	"github.com/GregoriCrispim/participa-df-ouvidoria-pwa/model"
	"github.com/google/uuid"
)

type objectEntry struct {
	data        []byte
	contentType string
}

// ObjectURLRegistry hands out session-only "blob:" references to media
// bytes. References die with the process or when revoked.
type ObjectURLRegistry struct {
	mu      sync.RWMutex
	objects map[string]objectEntry
}

func NewObjectURLRegistry() *ObjectURLRegistry {
	return &ObjectURLRegistry{objects: make(map[string]objectEntry)}
}

// Create registers data and returns its reference.
func (r *ObjectURLRegistry) Create(data []byte, contentType string) string {
	id := uuid.New().String()

	r.mu.Lock()
	r.objects[id] = objectEntry{data: data, contentType: contentType}
	r.mu.Unlock()

	return model.ObjectURLScheme + id
}

// Open returns the bytes behind ref, accepting either "blob:<id>" or "<id>".
func (r *ObjectURLRegistry) Open(ref string) ([]byte, string, error) {
	id := strings.TrimPrefix(ref, model.ObjectURLScheme)

	r.mu.RLock()
	defer r.mu.RUnlock()
	entry, ok := r.objects[id]
	if !ok {
		return nil, "", fmt.Errorf("object %s: %w", id, model.ErrNotFound)
	}
	return entry.data, entry.contentType, nil
}

// Revoke releases a single reference. Unknown references are ignored.
func (r *ObjectURLRegistry) Revoke(ref string) {
	id := strings.TrimPrefix(ref, model.ObjectURLScheme)

	r.mu.Lock()
	delete(r.objects, id)
	r.mu.Unlock()
}

// RevokeAll releases every reference; called on teardown.
func (r *ObjectURLRegistry) RevokeAll() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	n := len(r.objects)
	r.objects = make(map[string]objectEntry)
	return n
}

// Len returns the number of live references.
func (r *ObjectURLRegistry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.objects)
}
