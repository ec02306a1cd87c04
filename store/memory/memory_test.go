package memory_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/diatche/airbnb-scraper/item"
	"github.com/diatche/airbnb-scraper/store/memory"
)

func TestStore_LoadReturnsIsolatedCopy(t *testing.T) {
	// GIVEN: A stored document
	// WHEN: A caller mutates the loaded copy
	// THEN: The stored document is untouched

	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "d-1", item.Document{
		item.FieldID: "d-1",
		"name":       "original",
	}))

	loaded, err := store.Load(ctx, "d-1")
	require.NoError(t, err)
	loaded["name"] = "mutated"

	again, err := store.Load(ctx, "d-1")
	require.NoError(t, err)
	name, _ := again.String("name")
	assert.Equal(t, "original", name)
}

func TestStore_FindOrdersByTypedFields(t *testing.T) {
	// GIVEN: Documents carrying typed time fields
	// WHEN: Sorted descending on that field
	// THEN: Instants order correctly regardless of representation

	store := memory.New()
	ctx := context.Background()
	early := time.Date(2025, time.May, 1, 0, 0, 0, 0, time.UTC)
	late := time.Date(2025, time.June, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, store.Upsert(ctx, "m-1", item.Document{
		item.FieldID: "m-1", "kind": "x", "start_date": early,
	}))
	require.NoError(t, store.Upsert(ctx, "m-2", item.Document{
		item.FieldID: "m-2", "kind": "x", "start_date": late.Format(time.RFC3339Nano),
	}))

	docs, err := store.Find(ctx, item.Query{"kind": "x"}, "-start_date")
	require.NoError(t, err)
	require.Len(t, docs, 2)
	id, _ := docs[0].String(item.FieldID)
	assert.Equal(t, "m-2", id)
}

func TestStore_FindUnmatchedFieldExcludes(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	require.NoError(t, store.Upsert(ctx, "d-1", item.Document{item.FieldID: "d-1", "kind": "x"}))

	docs, err := store.Find(ctx, item.Query{"kind": "y"})
	require.NoError(t, err)
	assert.Empty(t, docs)

	docs, err = store.Find(ctx, item.Query{"missing": "x"})
	require.NoError(t, err)
	assert.Empty(t, docs)
}
