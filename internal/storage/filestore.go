package storage

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"sync"
	"time"

	"yolchi-backend/internal/common/logger"
)

// FileStore keeps each collection as one JSON array file under dataDir and
// mirrors it in memory. Every mutating operation holds the collection's
// mutex for the whole load-modify-persist cycle, so two writers of the
// same collection cannot lose an update to each other.
type FileStore struct {
	dataDir    string
	memoryOnly bool
	cols       map[Collection]*collectionState
}

type collectionState struct {
	mu      sync.Mutex // held for the whole load-modify-persist cycle
	records []Record
}

// NewFileStore opens (or initializes) the data directory and loads every
// collection. A missing file becomes an empty collection; a corrupt file
// is logged and also falls back to empty rather than crashing the process.
func NewFileStore(dataDir string, memoryOnly bool) (*FileStore, error) {
	s := &FileStore{
		dataDir:    dataDir,
		memoryOnly: memoryOnly,
		cols:       make(map[Collection]*collectionState, len(AllCollections)),
	}

	if !memoryOnly {
		if err := os.MkdirAll(dataDir, 0o755); err != nil {
			return nil, fmt.Errorf("create data dir: %w", err)
		}
	}

	for _, c := range AllCollections {
		cs := &collectionState{}
		if !memoryOnly {
			cs.records = s.readCollection(c)
		}
		s.cols[c] = cs
	}

	return s, nil
}

func (s *FileStore) path(c Collection) string {
	return filepath.Join(s.dataDir, string(c)+".json")
}

func (s *FileStore) readCollection(c Collection) []Record {
	raw, err := os.ReadFile(s.path(c))
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Warn().Err(err).Str("collection", string(c)).Msg("failed to read collection, starting empty")
		}
		return nil
	}

	var records []Record
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	if err := dec.Decode(&records); err != nil {
		logger.Warn().Err(err).Str("collection", string(c)).Msg("failed to parse collection, starting empty")
		return nil
	}
	return records
}

// persist writes the collection atomically: marshal to a temp file in the
// same directory, then rename over the target. Callers hold the lock.
func (s *FileStore) persist(c Collection, records []Record) error {
	if s.memoryOnly {
		return nil
	}

	if records == nil {
		records = []Record{}
	}
	raw, err := json.MarshalIndent(records, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal %s: %w", c, err)
	}

	tmp, err := os.CreateTemp(s.dataDir, string(c)+"-*.tmp")
	if err != nil {
		return fmt.Errorf("create temp file for %s: %w", c, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write %s: %w", c, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close %s: %w", c, err)
	}
	if err := os.Rename(tmpName, s.path(c)); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace %s: %w", c, err)
	}
	return nil
}

func (s *FileStore) collection(c Collection) (*collectionState, error) {
	cs, ok := s.cols[c]
	if !ok {
		return nil, fmt.Errorf("unknown collection %q", c)
	}
	return cs, nil
}

func (s *FileStore) Load(ctx context.Context, c Collection) ([]Record, error) {
	cs, err := s.collection(c)
	if err != nil {
		return nil, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	return cloneRecords(cs.records), nil
}

func (s *FileStore) SaveAll(ctx context.Context, c Collection, records []Record) error {
	cs, err := s.collection(c)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	clone := cloneRecords(records)
	if err := s.persist(c, clone); err != nil {
		return err
	}
	cs.records = clone
	return nil
}

func (s *FileStore) FindOne(ctx context.Context, c Collection, pred func(Record) bool) (Record, bool, error) {
	cs, err := s.collection(c)
	if err != nil {
		return nil, false, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	for _, rec := range cs.records {
		if pred(rec) {
			return cloneRecord(rec), true, nil
		}
	}
	return nil, false, nil
}

func (s *FileStore) FindMany(ctx context.Context, c Collection, pred func(Record) bool) ([]Record, error) {
	cs, err := s.collection(c)
	if err != nil {
		return nil, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	var out []Record
	for _, rec := range cs.records {
		if pred(rec) {
			out = append(out, cloneRecord(rec))
		}
	}
	return out, nil
}

func (s *FileStore) Append(ctx context.Context, c Collection, rec Record) error {
	cs, err := s.collection(c)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()
	next := append(cloneRecords(cs.records), cloneRecord(rec))
	if err := s.persist(c, next); err != nil {
		return err
	}
	cs.records = next
	return nil
}

func (s *FileStore) UpdateFields(ctx context.Context, c Collection, id string, fields Record) (Record, bool, error) {
	cs, err := s.collection(c)
	if err != nil {
		return nil, false, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	idx := indexByID(cs.records, id)
	if idx < 0 {
		return nil, false, nil
	}

	next := cloneRecords(cs.records)
	merged := next[idx]
	for k, v := range fields {
		merged[k] = v
	}
	merged["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.persist(c, next); err != nil {
		return nil, false, err
	}
	cs.records = next
	return cloneRecord(merged), true, nil
}

func (s *FileStore) UpsertByID(ctx context.Context, c Collection, rec Record) (Record, bool, error) {
	cs, err := s.collection(c)
	if err != nil {
		return nil, false, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	if idx := indexByID(cs.records, rec.ID()); idx >= 0 {
		return cloneRecord(cs.records[idx]), false, nil
	}

	next := append(cloneRecords(cs.records), cloneRecord(rec))
	if err := s.persist(c, next); err != nil {
		return nil, false, err
	}
	cs.records = next
	return cloneRecord(rec), true, nil
}

func (s *FileStore) Increment(ctx context.Context, c Collection, id string, field string, delta int64) (Record, bool, error) {
	cs, err := s.collection(c)
	if err != nil {
		return nil, false, err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	idx := indexByID(cs.records, id)
	if idx < 0 {
		return nil, false, nil
	}

	next := cloneRecords(cs.records)
	rec := next[idx]
	cur, err := numberValue(rec[field])
	if err != nil {
		return nil, false, fmt.Errorf("increment %s.%s: %w", c, field, err)
	}
	rec[field] = json.Number(fmt.Sprintf("%d", cur+delta))
	rec["updatedAt"] = time.Now().UTC().Format(time.RFC3339Nano)

	if err := s.persist(c, next); err != nil {
		return nil, false, err
	}
	cs.records = next
	return cloneRecord(rec), true, nil
}

func (s *FileStore) Mutate(ctx context.Context, c Collection, fn func(records []Record) ([]Record, error)) error {
	cs, err := s.collection(c)
	if err != nil {
		return err
	}
	cs.mu.Lock()
	defer cs.mu.Unlock()

	next, err := fn(cloneRecords(cs.records))
	if err != nil {
		return err
	}
	if err := s.persist(c, next); err != nil {
		return err
	}
	cs.records = next
	return nil
}

func indexByID(records []Record, id string) int {
	for i, rec := range records {
		if rec.ID() == id {
			return i
		}
	}
	return -1
}

func numberValue(v any) (int64, error) {
	switch n := v.(type) {
	case nil:
		return 0, nil
	case json.Number:
		return n.Int64()
	case float64:
		return int64(n), nil
	case int64:
		return n, nil
	case int:
		return int64(n), nil
	default:
		return 0, fmt.Errorf("field is not numeric (%T)", v)
	}
}

func cloneRecord(rec Record) Record {
	return Record(maps.Clone(map[string]any(rec)))
}

func cloneRecords(records []Record) []Record {
	out := make([]Record, len(records))
	for i, rec := range records {
		out[i] = cloneRecord(rec)
	}
	return out
}
