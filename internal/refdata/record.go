package refdata

import (
	"encoding/json"
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// Record is a single reference entry. Attribute names are stored lower-cased and
// numeric values are held as decimals so money never passes through float math.
type Record map[string]any

// Table maps a normalized identifier to its record.
type Table map[string]Record

// NewRecord normalizes raw attributes decoded from JSON or YAML.
// When two names differ only by case the lexicographically last original name wins.
func NewRecord(raw map[string]any) Record {
	keys := make([]string, 0, len(raw))
	for key := range raw {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	rec := make(Record, len(raw))
	for _, key := range keys {
		rec[NormalizeKey(key)] = normalizeValue(raw[key])
	}
	return rec
}

// NormalizeKey lower-cases and trims an attribute name or identifier.
func NormalizeKey(key string) string {
	return strings.ToLower(strings.TrimSpace(key))
}

// Get looks up an attribute case-insensitively.
func (r Record) Get(key string) (any, bool) {
	if r == nil {
		return nil, false
	}
	v, ok := r[NormalizeKey(key)]
	return v, ok
}

// String returns a string attribute.
func (r Record) String(key string) (string, bool) {
	v, ok := r.Get(key)
	if !ok {
		return "", false
	}
	s, ok := v.(string)
	return s, ok
}

// Decimal returns a numeric attribute.
func (r Record) Decimal(key string) (decimal.Decimal, bool) {
	v, ok := r.Get(key)
	if !ok {
		return decimal.Zero, false
	}
	d, ok := v.(decimal.Decimal)
	return d, ok
}

// Int returns a numeric attribute that holds a whole number representable as int.
func (r Record) Int(key string) (int, bool) {
	d, ok := r.Decimal(key)
	if !ok || !d.IsInteger() {
		return 0, false
	}
	bi := d.BigInt()
	if !bi.IsInt64() {
		return 0, false
	}
	v := bi.Int64()
	if int64(int(v)) != v {
		return 0, false
	}
	return int(v), true
}

// Nested returns a mapping attribute.
func (r Record) Nested(key string) (Record, bool) {
	v, ok := r.Get(key)
	if !ok {
		return nil, false
	}
	nested, ok := v.(Record)
	return nested, ok
}

// Clone copies the record, including nested records and lists.
func (r Record) Clone() Record {
	if r == nil {
		return nil
	}
	out := make(Record, len(r))
	for key, value := range r {
		out[key] = cloneValue(value)
	}
	return out
}

// Get looks up a record by identifier case-insensitively.
func (t Table) Get(id string) (Record, bool) {
	rec, ok := t[NormalizeKey(id)]
	return rec, ok
}

// IDs returns the table identifiers in sorted order.
func (t Table) IDs() []string {
	ids := make([]string, 0, len(t))
	for id := range t {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		d, err := decimal.NewFromString(val.String())
		if err != nil {
			return val.String()
		}
		return d
	case float64:
		if math.IsInf(val, 0) || math.IsNaN(val) {
			return val
		}
		return decimal.NewFromFloat(val)
	case float32:
		if math.IsInf(float64(val), 0) || math.IsNaN(float64(val)) {
			return val
		}
		return decimal.NewFromFloat32(val)
	case int:
		return decimal.NewFromInt(int64(val))
	case int64:
		return decimal.NewFromInt(val)
	case int32:
		return decimal.NewFromInt32(val)
	case uint64:
		return decimal.RequireFromString(strconv.FormatUint(val, 10))
	case map[string]any:
		return NewRecord(val)
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, item := range val {
			converted[fmt.Sprint(k)] = item
		}
		return NewRecord(converted)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return v
	}
}

func cloneValue(v any) any {
	switch val := v.(type) {
	case Record:
		return val.Clone()
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = cloneValue(item)
		}
		return out
	default:
		return v
	}
}

// asMap accepts the mapping shapes produced by encoding/json and yaml.v3.
func asMap(v any) (map[string]any, bool) {
	switch val := v.(type) {
	case map[string]any:
		return val, true
	case map[any]any:
		converted := make(map[string]any, len(val))
		for k, item := range val {
			converted[fmt.Sprint(k)] = item
		}
		return converted, true
	default:
		return nil, false
	}
}
