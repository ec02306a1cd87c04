/*
record.go - Entity meta and the persisted-value shadow

PURPOSE:
  Every persisted entity carries the same meta block: an entity-kind tag, a
  creation instant, an update instant and a schema version marker. Record
  bundles that block together with the persisted-value shadow - the last
  document loaded or saved for the entity - which exists solely so that
  save() can diff and skip redundant writes.

KIND TAGS:
  Kinds form a small closed set. Pipeline code dispatches on the tag, never
  on runtime type identity.

SEE ALSO:
  - save.go: how the shadow gates writes
  - document.go: the serialized form the shadow holds
*/
package item

import "time"

// SchemaVersion is written on every saved document so that consumers can
// detect rows produced by older field layouts.
const SchemaVersion = "2.0.0"

// Kind tags one entity variety. The set is closed; adding a kind means
// adding a staleness interval and a collection mapping with it.
type Kind string

const (
	KindListing Kind = "listing"
	KindDay     Kind = "calendar_day"
	KindMonth   Kind = "calendar_month"
)

// Reserved document field names shared by every kind.
const (
	FieldID            = "id"
	FieldItemType      = "item_type"
	FieldCreationDate  = "creation_date"
	FieldUpdateDate    = "update_date"
	FieldSchemaVersion = "schema_version"
)

// immutableFields may never change once persisted with a non-null value.
var immutableFields = []string{FieldID, FieldCreationDate}

// Record is the meta block embedded in every entity.
type Record struct {
	CreationDate time.Time
	UpdateDate   time.Time

	// shadow is the last-loaded-or-saved document. Not part of the entity's
	// logical identity; only the save discipline reads it.
	shadow Document
}

// NewRecord stamps a fresh entity created at now.
func NewRecord(now time.Time) Record {
	return Record{CreationDate: now, UpdateDate: now}
}

// Shadow returns the persisted-value shadow, nil for a never-persisted
// entity.
func (r *Record) Shadow() Document { return r.shadow }

// RememberPersisted replaces the shadow with the just-written or
// just-loaded document.
func (r *Record) RememberPersisted(doc Document) { r.shadow = doc.Clone() }

// MetaDocument returns the meta fields every save writes.
func (r *Record) MetaDocument(id string, kind Kind) Document {
	return Document{
		FieldID:            id,
		FieldItemType:      string(kind),
		FieldCreationDate:  r.CreationDate,
		FieldUpdateDate:    r.UpdateDate,
		FieldSchemaVersion: SchemaVersion,
	}
}

// HydrateMeta restores the meta block from a loaded document and installs
// the document as the shadow.
func (r *Record) HydrateMeta(doc Document) {
	if t, ok := doc.Time(FieldCreationDate); ok {
		r.CreationDate = t
	}
	if t, ok := doc.Time(FieldUpdateDate); ok {
		r.UpdateDate = t
	}
	r.RememberPersisted(doc)
}

// Entity is what the save discipline needs from a persistable value.
// Concrete entities live in the calendar package; this package only ever
// sees their serialized shape.
type Entity interface {
	// ID returns the entity's composite identity key. It fails when the
	// parameters the key is derived from were never set.
	ID() (string, error)

	// Kind returns the entity-kind tag.
	Kind() Kind

	// Document serializes the entity to its full persisted field set,
	// meta block included, omitting fields never set.
	Document() (Document, error)

	// Validate checks entity-level consistency rules before a write.
	Validate() error

	// Shadow and RememberPersisted are provided by an embedded Record.
	Shadow() Document
	RememberPersisted(Document)
}
