/*
document.go - Serialized field bags and diffing

PURPOSE:
  A Document is the persisted shape of every entity: a flat field-value
  mapping with only the fields that were actually set. Documents are what
  the store reads and writes, and what the change-tracked save discipline
  diffs against the persisted-value shadow.

VALUE DOMAIN:
  Document values are restricted to:
    string, bool, int, float64, decimal.Decimal, time.Time,
    []string, and nil (an explicitly nulled field).
  After a round-trip through a JSON-backed store, times come back as
  RFC3339 strings and decimals as numeric strings. The typed accessors and
  the equality helper absorb both representations, so a diff never fires
  on representation changes alone.

EQUALITY:
  Timestamps compare by instant, not representation. Decimals compare
  numerically. Everything else compares by value.

SEE ALSO:
  - record.go: entity meta carried on every document
  - save.go: the diff-gated save discipline
*/
package item

import (
	"encoding/json"
	"reflect"
	"sort"
	"time"

	"github.com/shopspring/decimal"
)

// Document is one entity's serialized field set. Keys absent from the map
// were never set; keys present with a nil value were explicitly nulled.
type Document map[string]any

// Clone returns a shallow copy. Values are immutable in practice ([]string
// excepted, which is copied), so a shallow copy is sufficient isolation.
func (d Document) Clone() Document {
	if d == nil {
		return nil
	}
	out := make(Document, len(d))
	for k, v := range d {
		if ss, ok := v.([]string); ok {
			v = append([]string(nil), ss...)
		}
		out[k] = v
	}
	return out
}

// =============================================================================
// TYPED ACCESSORS - Tolerant of JSON round-trip representations
// =============================================================================

func (d Document) String(key string) (string, bool) {
	s, ok := d[key].(string)
	return s, ok
}

func (d Document) Bool(key string) (bool, bool) {
	b, ok := d[key].(bool)
	return b, ok
}

func (d Document) Int(key string) (int, bool) {
	switch v := d[key].(type) {
	case int:
		return v, true
	case int64:
		return int(v), true
	case float64:
		return int(v), true
	case json.Number:
		n, err := v.Int64()
		return int(n), err == nil
	}
	return 0, false
}

// Time returns the field as an instant. Accepts time.Time and RFC3339
// strings (the JSON store representation).
func (d Document) Time(key string) (time.Time, bool) {
	switch v := d[key].(type) {
	case time.Time:
		return v, true
	case string:
		t, err := time.Parse(time.RFC3339Nano, v)
		if err != nil {
			return time.Time{}, false
		}
		return t, true
	}
	return time.Time{}, false
}

// Decimal returns the field as a decimal. Accepts decimal.Decimal, float64,
// numeric strings and json.Number.
func (d Document) Decimal(key string) (decimal.Decimal, bool) {
	switch v := d[key].(type) {
	case decimal.Decimal:
		return v, true
	case float64:
		return decimal.NewFromFloat(v), true
	case int:
		return decimal.NewFromInt(int64(v)), true
	case int64:
		return decimal.NewFromInt(v), true
	case string:
		dec, err := decimal.NewFromString(v)
		return dec, err == nil
	case json.Number:
		dec, err := decimal.NewFromString(v.String())
		return dec, err == nil
	}
	return decimal.Decimal{}, false
}

func (d Document) StringList(key string) ([]string, bool) {
	switch v := d[key].(type) {
	case []string:
		return v, true
	case []any:
		out := make([]string, 0, len(v))
		for _, e := range v {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}

// =============================================================================
// EQUALITY AND DIFF
// =============================================================================

// ValuesEqual reports whether two document values denote the same value.
// Instants compare by time, decimals by magnitude, regardless of whether
// either side is still typed or already a JSON round-trip representation.
func ValuesEqual(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if at, aok := asTime(a); aok {
		bt, bok := asTime(b)
		return bok && at.Equal(bt)
	}
	if ad, aok := asDecimal(a); aok {
		bd, bok := asDecimal(b)
		return bok && ad.Equal(bd)
	}
	if as, aok := asStringList(a); aok {
		bs, bok := asStringList(b)
		if !bok || len(as) != len(bs) {
			return false
		}
		for i := range as {
			if as[i] != bs[i] {
				return false
			}
		}
		return true
	}
	return reflect.DeepEqual(a, b)
}

// Diff returns the keys of next whose values differ from prev, sorted.
// Keys present only in prev are not reported: a save never unsets a field,
// it overwrites the full document.
func Diff(next, prev Document) []string {
	var changed []string
	for k, v := range next {
		old, ok := prev[k]
		if !ok || !ValuesEqual(v, old) {
			changed = append(changed, k)
		}
	}
	sort.Strings(changed)
	return changed
}

func asTime(v any) (time.Time, bool) {
	switch t := v.(type) {
	case time.Time:
		return t, true
	case string:
		// Only treat parseable RFC3339 strings as instants.
		parsed, err := time.Parse(time.RFC3339Nano, t)
		if err != nil {
			return time.Time{}, false
		}
		return parsed, true
	}
	return time.Time{}, false
}

func asDecimal(v any) (decimal.Decimal, bool) {
	switch n := v.(type) {
	case decimal.Decimal:
		return n, true
	case float64:
		return decimal.NewFromFloat(n), true
	case int:
		return decimal.NewFromInt(int64(n)), true
	case int64:
		return decimal.NewFromInt(n), true
	case json.Number:
		d, err := decimal.NewFromString(n.String())
		return d, err == nil
	}
	// Strings are NOT coerced to decimals here: "12" as a field value is a
	// string unless the other side is numeric, which asDecimal on that side
	// already covers via the store codec writing decimals as numbers.
	return decimal.Decimal{}, false
}

func asStringList(v any) ([]string, bool) {
	switch l := v.(type) {
	case []string:
		return l, true
	case []any:
		out := make([]string, 0, len(l))
		for _, e := range l {
			s, ok := e.(string)
			if !ok {
				return nil, false
			}
			out = append(out, s)
		}
		return out, true
	}
	return nil, false
}
