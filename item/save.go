/*
save.go - Change-tracked persistence discipline

PURPOSE:
  The single write path for every entity. A save validates, serializes,
  diffs against the persisted-value shadow, and only then upserts. An
  unchanged entity produces no write at all.

SAVE SEQUENCE:
  1. Validate the entity (skippable, not recommended)
  2. Serialize to a Document, omitting never-set fields
  3. Diff against the shadow; no diff and no force -> no-op
  4. Reject any diff touching id/creation_date with a non-null prior value
  5. Upsert the full document, then refresh the shadow

  Timestamps diff by instant, so re-serializing an unchanged entity after
  a round-trip through the store never produces a phantom write.

SEE ALSO:
  - record.go: the shadow
  - store.go: the Upsert target
*/
package item

import (
	"context"
	"fmt"
)

// SaveOptions tune one save call.
type SaveOptions struct {
	// Force writes even when the diff is empty.
	Force bool

	// SkipValidation bypasses the entity's validation rule and the
	// immutable-field check. Only for trusted migration paths.
	SkipValidation bool
}

// Save persists the entity if and only if it changed since it was last
// loaded or saved. Returns true when a write happened.
func Save(ctx context.Context, store Store, e Entity, opts SaveOptions) (bool, error) {
	if !opts.SkipValidation {
		if err := e.Validate(); err != nil {
			return false, err
		}
	}

	id, err := e.ID()
	if err != nil {
		return false, err
	}

	doc, err := e.Document()
	if err != nil {
		return false, err
	}

	shadow := e.Shadow()
	changed := Diff(doc, shadow)
	if len(changed) == 0 && !opts.Force {
		return false, nil
	}

	if !opts.SkipValidation {
		for _, field := range changed {
			if err := checkImmutable(field, shadow, doc); err != nil {
				return false, err
			}
		}
	}

	if err := store.Upsert(ctx, id, doc); err != nil {
		return false, fmt.Errorf("upsert %s: %w", id, err)
	}
	e.RememberPersisted(doc)
	return true, nil
}

// SaveMany saves entities sequentially. Each item's write is independent:
// no ordering or atomicity guarantee is made across items, and the first
// error aborts the remainder. Returns the number of documents written.
func SaveMany(ctx context.Context, store Store, entities []Entity, opts SaveOptions) (int, error) {
	written := 0
	for _, e := range entities {
		wrote, err := Save(ctx, store, e, opts)
		if err != nil {
			return written, err
		}
		if wrote {
			written++
		}
	}
	return written, nil
}

func checkImmutable(field string, shadow, doc Document) error {
	for _, immutable := range immutableFields {
		if field != immutable {
			continue
		}
		old, had := shadow[field]
		if !had || old == nil {
			// First materialization of the field is legitimate.
			continue
		}
		return &ImmutableFieldError{Field: field, Old: old, New: doc[field]}
	}
	return nil
}
