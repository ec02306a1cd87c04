package item_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diatche/airbnb-scraper/item"
	"github.com/diatche/airbnb-scraper/store/memory"
)

// =============================================================================
// TEST SETUP
// =============================================================================

// note is a minimal entity for exercising the save discipline without
// dragging in the calendar domain.
type note struct {
	item.Record

	NoteID string
	Body   string
}

func newNote(id, body string, now time.Time) *note {
	return &note{Record: item.NewRecord(now), NoteID: id, Body: body}
}

func (n *note) ID() (string, error) {
	if n.NoteID == "" {
		return "", item.ErrMissingIdentity
	}
	return n.NoteID, nil
}

func (n *note) Kind() item.Kind { return item.Kind("note") }

func (n *note) Validate() error {
	_, err := n.ID()
	return err
}

func (n *note) Document() (item.Document, error) {
	id, err := n.ID()
	if err != nil {
		return nil, err
	}
	doc := n.MetaDocument(id, n.Kind())
	doc["body"] = n.Body
	return doc, nil
}

// countingStore counts upserts so tests can assert write suppression.
type countingStore struct {
	item.Store
	upserts int
}

func (s *countingStore) Upsert(ctx context.Context, id string, doc item.Document) error {
	s.upserts++
	return s.Store.Upsert(ctx, id, doc)
}

func newCountingStore(t *testing.T) *countingStore {
	t.Helper()
	return &countingStore{Store: memory.New()}
}

// =============================================================================
// CHANGE-TRACKED SAVES
// =============================================================================

func TestSave_UnchangedEntitySkipsWrite(t *testing.T) {
	// GIVEN: A saved entity
	// WHEN: It is saved again without changing anything
	// THEN: No write reaches the store

	store := newCountingStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	n := newNote("n-1", "hello", now)

	wrote, err := item.Save(ctx, store, n, item.SaveOptions{})
	require.NoError(t, err)
	assert.True(t, wrote)

	wrote, err = item.Save(ctx, store, n, item.SaveOptions{})
	require.NoError(t, err)
	assert.False(t, wrote)
	assert.Equal(t, 1, store.upserts)
}

func TestSave_ChangedFieldWrites(t *testing.T) {
	store := newCountingStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	n := newNote("n-1", "hello", now)

	_, err := item.Save(ctx, store, n, item.SaveOptions{})
	require.NoError(t, err)

	n.Body = "goodbye"
	wrote, err := item.Save(ctx, store, n, item.SaveOptions{})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, 2, store.upserts)
}

func TestSave_ForceWritesWithoutDiff(t *testing.T) {
	store := newCountingStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	n := newNote("n-1", "hello", now)

	_, err := item.Save(ctx, store, n, item.SaveOptions{})
	require.NoError(t, err)

	wrote, err := item.Save(ctx, store, n, item.SaveOptions{Force: true})
	require.NoError(t, err)
	assert.True(t, wrote)
	assert.Equal(t, 2, store.upserts)
}

func TestSave_MissingIdentityRejected(t *testing.T) {
	store := newCountingStore(t)
	n := newNote("", "hello", time.Now())

	_, err := item.Save(context.Background(), store, n, item.SaveOptions{})
	assert.ErrorIs(t, err, item.ErrMissingIdentity)
	assert.Equal(t, 0, store.upserts)
}

func TestSave_ImmutableCreationDateRejected(t *testing.T) {
	// GIVEN: An entity persisted with a creation instant
	// WHEN: The creation instant is altered and saved again
	// THEN: The save fails with an immutable-field error

	store := newCountingStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	n := newNote("n-1", "hello", now)

	_, err := item.Save(ctx, store, n, item.SaveOptions{})
	require.NoError(t, err)

	n.CreationDate = now.Add(time.Hour)
	_, err = item.Save(ctx, store, n, item.SaveOptions{})

	assert.Error(t, err)
	var iErr *item.ImmutableFieldError
	assert.ErrorAs(t, err, &iErr)
	assert.ErrorIs(t, err, item.ErrImmutableField)
	assert.Equal(t, item.FieldCreationDate, iErr.Field)
	assert.Equal(t, 1, store.upserts)
}

func TestSave_LoadedDocumentDiffsClean(t *testing.T) {
	// GIVEN: An entity round-tripped through the store
	// WHEN: The loaded copy is saved unchanged
	// THEN: The shadow from hydration suppresses the write

	store := newCountingStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)
	n := newNote("n-1", "hello", now)
	_, err := item.Save(ctx, store, n, item.SaveOptions{})
	require.NoError(t, err)

	doc, err := store.Load(ctx, "n-1")
	require.NoError(t, err)
	require.NotNil(t, doc)

	loaded := &note{}
	loaded.HydrateMeta(doc)
	loaded.NoteID, _ = doc.String(item.FieldID)
	loaded.Body, _ = doc.String("body")

	wrote, err := item.Save(ctx, store, loaded, item.SaveOptions{})
	require.NoError(t, err)
	assert.False(t, wrote)
}

func TestSaveMany_CountsOnlyActualWrites(t *testing.T) {
	store := newCountingStore(t)
	ctx := context.Background()
	now := time.Date(2025, time.June, 1, 12, 0, 0, 0, time.UTC)

	a := newNote("n-1", "a", now)
	b := newNote("n-2", "b", now)
	_, err := item.Save(ctx, store, a, item.SaveOptions{})
	require.NoError(t, err)

	b.Body = "b2"
	written, err := item.SaveMany(ctx, store, []item.Entity{a, b}, item.SaveOptions{})
	require.NoError(t, err)
	assert.Equal(t, 1, written, "only the changed entity writes")
}
