package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/pkg/serialization"
)

// ArchiveSaver implements archive.Saver with serialized in-memory entries.
// Records are stored encoded so callers never share memory with the store.
// PRINCIPLES:
// - KISS: one map guarded by one RWMutex
// - SRP: in-memory archive storage only
// - DIP: implements archive.Saver
type ArchiveSaver struct {
	mu          sync.RWMutex
	entries     map[string]*archiveEntry
	currentSize int64
	maxBytes    int64
	retention   time.Duration
	serializer  *serialization.Serializer
	now         func() time.Time

	stopCleanup chan struct{}
	cleanupOnce sync.Once
}

// ArchiveConfig holds configuration for ArchiveSaver
type ArchiveConfig struct {
	MaxMemoryMB     int64                     // Maximum encoded size in MB (default 64)
	Retention       time.Duration             // Drop records archived longer ago than this; 0 keeps forever
	CleanupInterval time.Duration             // Retention sweep interval (default 1h)
	Serializer      *serialization.Serializer // Defaults to msgpack+zstd
}

type archiveEntry struct {
	record *archive.Record // decoded copy for filtering
	data   []byte
	size   int64
}

// ArchiveStats reports the saver's footprint
type ArchiveStats struct {
	Count              int64   `json:"count"`
	Stale              int64   `json:"stale"`
	Done               int64   `json:"done"`
	SizeBytes          int64   `json:"size_bytes"`
	MaxBytes           int64   `json:"max_bytes"`
	UtilizationPercent float64 `json:"utilization_percent"`
}

// NewArchiveSaver creates an in-memory archive saver. When Retention is
// set a background goroutine prunes expired records until Close.
func NewArchiveSaver(config ArchiveConfig) *ArchiveSaver {
	if config.MaxMemoryMB == 0 {
		config.MaxMemoryMB = 64
	}
	if config.CleanupInterval == 0 {
		config.CleanupInterval = time.Hour
	}
	if config.Serializer == nil {
		config.Serializer = serialization.Default()
	}

	s := &ArchiveSaver{
		entries:     make(map[string]*archiveEntry),
		maxBytes:    config.MaxMemoryMB * 1024 * 1024,
		retention:   config.Retention,
		serializer:  config.Serializer,
		now:         time.Now,
		stopCleanup: make(chan struct{}),
	}
	if s.retention > 0 {
		s.startCleanup(config.CleanupInterval)
	}
	return s
}

// DefaultArchiveSaver creates an ArchiveSaver with default configuration
func DefaultArchiveSaver() *ArchiveSaver {
	return NewArchiveSaver(ArchiveConfig{})
}

// Save stores a record, replacing any record with the same ID.
func (s *ArchiveSaver) Save(_ context.Context, r *archive.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("archive record validation failed: %w", err)
	}
	data, err := s.serializer.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrSaveFailed, err)
	}
	decoded, err := serialization.Decode[archive.Record](s.serializer, data)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrSaveFailed, err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	size := int64(len(data))
	var previous int64
	if old, ok := s.entries[r.ID]; ok {
		previous = old.size
	}
	if s.currentSize-previous+size > s.maxBytes {
		return fmt.Errorf("%w: memory limit of %d bytes exceeded", archive.ErrSaveFailed, s.maxBytes)
	}
	s.entries[r.ID] = &archiveEntry{record: &decoded, data: data, size: size}
	s.currentSize += size - previous
	return nil
}

// Load decodes a fresh copy of the record.
func (s *ArchiveSaver) Load(_ context.Context, id string) (*archive.Record, error) {
	s.mu.RLock()
	entry, ok := s.entries[id]
	s.mu.RUnlock()
	if !ok {
		return nil, archive.ErrRecordNotFound
	}
	r, err := serialization.Decode[archive.Record](s.serializer, entry.data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrLoadFailed, err)
	}
	return &r, nil
}

// List returns matching records, newest ArchivedAt first, ties by ID.
func (s *ArchiveSaver) List(_ context.Context, filter archive.Filter) ([]*archive.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	s.mu.RLock()
	var matched []*archiveEntry
	for _, e := range s.entries {
		if filter.Matches(e.record) {
			matched = append(matched, e)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i].record, matched[j].record
		if !a.ArchivedAt.Equal(b.ArchivedAt) {
			return a.ArchivedAt.After(b.ArchivedAt)
		}
		return a.ID < b.ID
	})

	page := archive.Page(matched, filter)
	out := make([]*archive.Record, 0, len(page))
	for _, e := range page {
		r, err := serialization.Decode[archive.Record](s.serializer, e.data)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", archive.ErrLoadFailed, err)
		}
		out = append(out, &r)
	}
	return out, nil
}

// Delete removes a record by ID.
func (s *ArchiveSaver) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.deleteLocked(id) {
		return archive.ErrRecordNotFound
	}
	return nil
}

// Stats returns counts and memory usage.
func (s *ArchiveSaver) Stats() ArchiveStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := ArchiveStats{
		Count:     int64(len(s.entries)),
		SizeBytes: s.currentSize,
		MaxBytes:  s.maxBytes,
	}
	for _, e := range s.entries {
		if e.record.Kind == archive.KindStale {
			st.Stale++
		} else {
			st.Done++
		}
	}
	if s.maxBytes > 0 {
		st.UtilizationPercent = float64(s.currentSize) / float64(s.maxBytes) * 100
	}
	return st
}

// Close stops the retention goroutine.
func (s *ArchiveSaver) Close() error {
	s.cleanupOnce.Do(func() { close(s.stopCleanup) })
	return nil
}

func (s *ArchiveSaver) startCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				s.pruneExpired()
			case <-s.stopCleanup:
				return
			}
		}
	}()
}

// pruneExpired drops records archived before now-retention and returns
// how many were removed.
func (s *ArchiveSaver) pruneExpired() int {
	cutoff := s.now().Add(-s.retention)

	s.mu.Lock()
	defer s.mu.Unlock()
	removed := 0
	for id, e := range s.entries {
		if e.record.ArchivedAt.Before(cutoff) {
			s.deleteLocked(id)
			removed++
		}
	}
	return removed
}

func (s *ArchiveSaver) deleteLocked(id string) bool {
	e, ok := s.entries[id]
	if !ok {
		return false
	}
	delete(s.entries, id)
	s.currentSize -= e.size
	return true
}
