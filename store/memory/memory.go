/*
Package memory provides an in-memory document store for tests and
development. Semantics match store/sqlite: identity-keyed documents,
field-equality find with ordering, whole-document upsert.
*/
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/diatche/airbnb-scraper/item"
)

// Store is an in-memory item.Backend.
type Store struct {
	mu   sync.RWMutex
	docs map[string]item.Document
}

// New creates an empty store.
func New() *Store {
	return &Store{docs: make(map[string]item.Document)}
}

// Open is an item.Conn opener.
func Open() (item.Backend, error) { return New(), nil }

func (s *Store) Load(_ context.Context, id string) (item.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.docs[id]
	if !ok {
		return nil, nil
	}
	return doc.Clone(), nil
}

func (s *Store) Find(_ context.Context, query item.Query, sortFields ...string) ([]item.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []item.Document
	for _, doc := range s.docs {
		if matches(doc, query) {
			result = append(result, doc.Clone())
		}
	}
	sortDocs(result, sortFields)
	return result, nil
}

func (s *Store) Upsert(_ context.Context, id string, doc item.Document) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.docs[id] = doc.Clone()
	return nil
}

func (s *Store) Close() error { return nil }

// Len reports the number of stored documents. Test helper.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.docs)
}

func matches(doc item.Document, query item.Query) bool {
	for k, want := range query {
		got, ok := doc[k]
		if !ok || !item.ValuesEqual(got, want) {
			return false
		}
	}
	return true
}

// sortDocs orders by the named fields ('-' prefix for descending), with
// the identity key as the final tie-breaker so results are deterministic.
func sortDocs(docs []item.Document, fields []string) {
	sort.Slice(docs, func(i, j int) bool {
		for _, f := range fields {
			desc := strings.HasPrefix(f, "-")
			key := strings.TrimPrefix(f, "-")
			c := compareValues(docs[i][key], docs[j][key])
			if c == 0 {
				continue
			}
			if desc {
				return c > 0
			}
			return c < 0
		}
		idI, _ := docs[i].String(item.FieldID)
		idJ, _ := docs[j].String(item.FieldID)
		return idI < idJ
	})
}

// compareValues orders two document values of the same field. Probing
// through a one-entry Document reuses the accessors' representation
// tolerance (typed values vs JSON round-trip forms).
func compareValues(a, b any) int {
	av := item.Document{"v": a}
	bv := item.Document{"v": b}
	if at, ok := av.Time("v"); ok {
		if bt, ok := bv.Time("v"); ok {
			switch {
			case at.Before(bt):
				return -1
			case at.After(bt):
				return 1
			default:
				return 0
			}
		}
	}
	if ad, ok := av.Decimal("v"); ok {
		if bd, ok := bv.Decimal("v"); ok {
			return ad.Cmp(bd)
		}
	}
	if as, ok := a.(string); ok {
		if bs, ok := b.(string); ok {
			return strings.Compare(as, bs)
		}
	}
	return 0
}
