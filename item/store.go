/*
store.go - Document store contract and the shared connection handle

PURPOSE:
  Defines the minimal document-store interface the pipeline persists
  through, plus Conn, the depth-counted handle that lets independent
  subsystems share one physical connection without double-closing it.

STORE CONTRACT:
  Load(id):          one document or nil; more than one match is a fatal
                     identity collision
  Find(query, sort): all documents matching a field-equality query,
                     materialized per call (each call restarts the scan)
  Upsert(id, doc):   replace semantics on the named top-level fields,
                     creating the document if absent

CONCURRENCY:
  Implementations must support concurrent upserts from independent
  per-listing cycles without cross-listing locking. Identity keys are
  listing-scoped, so distinct cycles never contend on a document.

IMPLEMENTATIONS:
  - store/sqlite: production store, JSON documents in SQLite
  - store/memory: in-memory store for tests and development

SEE ALSO:
  - save.go: the only write path the pipeline uses
*/
package item

import (
	"context"
	"sync"
)

// Query is a field-equality filter over top-level document fields.
type Query map[string]any

// Store is the document persistence contract.
type Store interface {
	// Load returns the document stored under id, or nil if absent.
	// Returns ErrIdentityCollision if more than one document matches.
	Load(ctx context.Context, id string) (Document, error)

	// Find returns every document whose fields equal the query values,
	// ordered by the named fields when sort is non-empty (prefix a field
	// with '-' for descending). Each call is independent and restartable.
	Find(ctx context.Context, query Query, sort ...string) ([]Document, error)

	// Upsert writes the full document under id, creating it if absent.
	Upsert(ctx context.Context, id string, doc Document) error
}

// Backend is a Store that owns a closable physical connection.
type Backend interface {
	Store
	Close() error
}

// =============================================================================
// CONN - Depth-counted shared connection
// =============================================================================

// Conn owns one physical store connection shared by multiple independent
// subsystems. Nested Acquire calls increment a depth counter and reuse the
// open connection; Release decrements it and tears the connection down only
// at depth zero. Releasing below zero is a fatal usage error.
type Conn struct {
	open func() (Backend, error)

	mu      sync.Mutex
	depth   int
	backend Backend
}

// NewConn wraps an opener. The opener runs on the first Acquire and again
// after the depth has returned to zero and the connection was torn down.
func NewConn(open func() (Backend, error)) *Conn {
	return &Conn{open: open}
}

// Acquire returns the shared store, opening the physical connection on
// first use.
func (c *Conn) Acquire() (Store, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.depth == 0 {
		backend, err := c.open()
		if err != nil {
			return nil, err
		}
		c.backend = backend
	}
	c.depth++
	return c.backend, nil
}

// Release undoes one Acquire. The underlying connection closes only when
// the last holder releases.
func (c *Conn) Release() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.depth--
	if c.depth > 0 {
		return nil
	}
	if c.depth < 0 {
		c.depth = 0
		return ErrConnMismatch
	}

	backend := c.backend
	c.backend = nil
	if backend == nil {
		return nil
	}
	return backend.Close()
}

// Depth reports the current acquire depth. Diagnostic only.
func (c *Conn) Depth() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.depth
}
