/*
Package sqlite provides the production document store.

PURPOSE:
  Implements item.Backend over a single SQLite table of JSON documents.
  The identity key is the primary key, so upserts are identity-preserving
  and point loads never scan.

SCHEMA:
  items:
    id        TEXT PRIMARY KEY   composite identity key
    item_type TEXT NOT NULL      entity-kind tag (query hot path)
    body      TEXT NOT NULL      full JSON document

  Field-equality queries beyond id/item_type go through json_extract on
  the body; listing_id and month_id carry expression indexes for the two
  queries the pipeline and API actually run.

CODEC:
  Times are stored as RFC3339 strings, decimals as JSON numbers, and
  documents are decoded with json.Number so numeric precision survives
  the round-trip. item.Document's accessors and equality absorb these
  representations.

CONCURRENCY:
  Opened in WAL mode: concurrent readers, one writer at a time. Identity
  keys are listing-scoped, so independent per-listing cycles never upsert
  the same row.

USAGE:
  conn := item.NewConn(func() (item.Backend, error) {
      return sqlite.New("./data/airbnb.db")
  })
*/
package sqlite

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"github.com/shopspring/decimal"

	"github.com/diatche/airbnb-scraper/item"
)

// Store implements item.Backend using SQLite.
type Store struct {
	db *sql.DB
}

// New opens (and if necessary creates) the database at dbPath. Use
// ":memory:" for an in-memory database.
func New(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath+"?_foreign_keys=on&_journal_mode=WAL")
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}

	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("migrate database: %w", err)
	}
	return store, nil
}

// Close closes the database connection.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	schema := `
	CREATE TABLE IF NOT EXISTS items (
		id        TEXT PRIMARY KEY,
		item_type TEXT NOT NULL,
		body      TEXT NOT NULL
	);

	CREATE INDEX IF NOT EXISTS idx_items_type
		ON items(item_type);

	-- The two query shapes the pipeline and the API run:
	--   {item_type, listing_id} and {item_type, month_id}
	CREATE INDEX IF NOT EXISTS idx_items_listing
		ON items(item_type, json_extract(body, '$.listing_id'));
	CREATE INDEX IF NOT EXISTS idx_items_month
		ON items(item_type, json_extract(body, '$.month_id'));
	`
	_, err := s.db.Exec(schema)
	return err
}

// Load returns the document stored under id, nil if absent.
func (s *Store) Load(ctx context.Context, id string) (item.Document, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT body FROM items WHERE id = ? LIMIT 2`, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var bodies []string
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		bodies = append(bodies, body)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	switch len(bodies) {
	case 0:
		return nil, nil
	case 1:
		return decodeDocument(bodies[0])
	default:
		return nil, fmt.Errorf("id %q: %w", id, item.ErrIdentityCollision)
	}
}

// Find returns every document matching the field-equality query, ordered
// by the named fields. Each call runs an independent query.
func (s *Store) Find(ctx context.Context, query item.Query, sortFields ...string) ([]item.Document, error) {
	var (
		where []string
		args  []any
	)
	for key, val := range query {
		switch key {
		case item.FieldID:
			where = append(where, "id = ?")
		case item.FieldItemType:
			where = append(where, "item_type = ?")
		default:
			where = append(where, fmt.Sprintf("json_extract(body, '$.%s') = ?", key))
		}
		args = append(args, bindValue(val))
	}

	q := "SELECT body FROM items"
	if len(where) > 0 {
		q += " WHERE " + strings.Join(where, " AND ")
	}
	q += orderClause(sortFields)

	rows, err := s.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []item.Document
	for rows.Next() {
		var body string
		if err := rows.Scan(&body); err != nil {
			return nil, err
		}
		doc, err := decodeDocument(body)
		if err != nil {
			return nil, err
		}
		result = append(result, doc)
	}
	return result, rows.Err()
}

// Upsert writes the full document under id, replacing any prior version.
func (s *Store) Upsert(ctx context.Context, id string, doc item.Document) error {
	body, err := encodeDocument(doc)
	if err != nil {
		return err
	}
	itemType, _ := doc.String(item.FieldItemType)
	_, err = s.db.ExecContext(ctx, `
		INSERT INTO items (id, item_type, body) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			item_type = excluded.item_type,
			body      = excluded.body`,
		id, itemType, body)
	return err
}

func orderClause(sortFields []string) string {
	var parts []string
	for _, f := range sortFields {
		dir := "ASC"
		key := f
		if strings.HasPrefix(f, "-") {
			dir = "DESC"
			key = f[1:]
		}
		parts = append(parts, fmt.Sprintf("json_extract(body, '$.%s') %s", key, dir))
	}
	parts = append(parts, "id ASC")
	return " ORDER BY " + strings.Join(parts, ", ")
}

// =============================================================================
// CODEC
// =============================================================================

// encodeDocument marshals a document with decimals as raw JSON numbers
// and times as RFC3339 strings.
func encodeDocument(doc item.Document) (string, error) {
	out := make(map[string]any, len(doc))
	for k, v := range doc {
		switch tv := v.(type) {
		case decimal.Decimal:
			out[k] = json.RawMessage(tv.String())
		case time.Time:
			out[k] = tv.Format(time.RFC3339Nano)
		default:
			out[k] = v
		}
	}
	body, err := json.Marshal(out)
	if err != nil {
		return "", err
	}
	return string(body), nil
}

// decodeDocument unmarshals with json.Number so numeric fields keep their
// exact representation.
func decodeDocument(body string) (item.Document, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(body)))
	dec.UseNumber()
	var doc item.Document
	if err := dec.Decode(&doc); err != nil {
		return nil, err
	}
	return doc, nil
}

func bindValue(v any) any {
	switch tv := v.(type) {
	case decimal.Decimal:
		f, _ := tv.Float64()
		return f
	case time.Time:
		return tv.Format(time.RFC3339Nano)
	default:
		return v
	}
}
