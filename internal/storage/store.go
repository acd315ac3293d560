// Package storage persists named collections of flat records as JSON
// arrays. Records keep every field they were stored with: updates are
// shallow merges, so fields a newer reader does not know about survive.
package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strconv"
)

// Collection names the four persisted record sets.
type Collection string

const (
	Users           Collection = "users"
	Goals           Collection = "goals"
	Participations  Collection = "participations"
	Recommendations Collection = "recommendations"
)

// AllCollections lists every collection the store manages.
var AllCollections = []Collection{Users, Goals, Participations, Recommendations}

// Record is one flat persisted object. Numeric values decode as
// json.Number so int64 ids survive a round trip.
type Record map[string]any

// ID returns the canonical string form of the record's "id" field.
func (r Record) ID() string {
	return IDString(r["id"])
}

// IDString converts any id representation the codec may produce into the
// canonical string used for lookups.
func IDString(v any) string {
	switch id := v.(type) {
	case string:
		return id
	case json.Number:
		return id.String()
	case float64:
		return strconv.FormatFloat(id, 'f', -1, 64)
	case int64:
		return strconv.FormatInt(id, 10)
	case int:
		return strconv.Itoa(id)
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Store is the abstraction boundary over record persistence. Callers must
// not assume any particular backing structure; a linear scan is the only
// guarantee the finders make.
type Store interface {
	// Load returns the current contents of a collection.
	Load(ctx context.Context, c Collection) ([]Record, error)

	// SaveAll replaces the whole collection. The write is atomic: a crash
	// mid-save never leaves a torn file behind.
	SaveAll(ctx context.Context, c Collection, records []Record) error

	// FindOne returns the first record matching pred.
	FindOne(ctx context.Context, c Collection, pred func(Record) bool) (Record, bool, error)

	// FindMany returns every record matching pred, in stored order.
	FindMany(ctx context.Context, c Collection, pred func(Record) bool) ([]Record, error)

	// Append adds a record to the end of the collection.
	Append(ctx context.Context, c Collection, rec Record) error

	// UpdateFields shallow-merges fields into the record with the given id
	// and touches its updatedAt timestamp. ok is false when no record has
	// that id; callers treat that as a NotFound condition.
	UpdateFields(ctx context.Context, c Collection, id string, fields Record) (Record, bool, error)

	// UpsertByID appends the record unless one with the same id already
	// exists, in which case the existing record is returned untouched.
	UpsertByID(ctx context.Context, c Collection, rec Record) (Record, bool, error)

	// Increment atomically adds delta to an integer field of the record
	// with the given id. Missing fields count as zero.
	Increment(ctx context.Context, c Collection, id string, field string, delta int64) (Record, bool, error)

	// Mutate runs fn on the full collection inside the collection's
	// critical section and persists whatever fn returns. Use it when a
	// read-modify-write decision and its write must not interleave with
	// other writers.
	Mutate(ctx context.Context, c Collection, fn func(records []Record) ([]Record, error)) error
}

// Encode converts a typed value into a Record via its JSON form.
func Encode(v any) (Record, error) {
	raw, err := json.Marshal(v)
	if err != nil {
		return nil, fmt.Errorf("encode record: %w", err)
	}
	return decodeRecord(raw)
}

// Decode fills a typed value from a Record. Fields the type does not
// declare are ignored in the typed view but stay in the record.
func Decode(rec Record, out any) error {
	raw, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode record: %w", err)
	}
	return nil
}

// DecodeAll maps a record slice onto a typed slice, skipping nothing:
// a single bad record fails the whole call.
func DecodeAll[T any](recs []Record) ([]T, error) {
	out := make([]T, 0, len(recs))
	for _, rec := range recs {
		var v T
		if err := Decode(rec, &v); err != nil {
			return nil, err
		}
		out = append(out, v)
	}
	return out, nil
}

func decodeRecord(raw []byte) (Record, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, fmt.Errorf("decode record: %w", err)
	}
	return rec, nil
}
