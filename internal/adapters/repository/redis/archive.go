// Package redis keeps archive records in Redis: one serialized blob per
// record plus sorted-set indexes scored by archive time.
package redis

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/taskflow/taskflow/internal/core/archive"
	"github.com/taskflow/taskflow/pkg/serialization"
)

// DefaultPrefix namespaces every key the saver writes.
const DefaultPrefix = "taskflow:archive:"

// ArchiveSaver implements archive.Saver on Redis.
// Keys:
//
//	{prefix}record:{id}        serialized record
//	{prefix}idx:all            zset id -> archived_at (unix ms)
//	{prefix}idx:kind:{kind}    zset per kind
//	{prefix}idx:topic:{topic}  zset per topic
type ArchiveSaver struct {
	client     redis.UniversalClient
	serializer *serialization.Serializer
	prefix     string
}

// NewArchiveSaver wraps an existing client. A nil serializer means
// msgpack+zstd; an empty prefix means DefaultPrefix.
func NewArchiveSaver(client redis.UniversalClient, serializer *serialization.Serializer, prefix string) *ArchiveSaver {
	if serializer == nil {
		serializer = serialization.Default()
	}
	if prefix == "" {
		prefix = DefaultPrefix
	}
	return &ArchiveSaver{client: client, serializer: serializer, prefix: prefix}
}

// NewClient builds a single-node client.
func NewClient(addr, password string, db int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
}

func (s *ArchiveSaver) recordKey(id string) string { return s.prefix + "record:" + id }
func (s *ArchiveSaver) allKey() string             { return s.prefix + "idx:all" }
func (s *ArchiveSaver) kindKey(k archive.Kind) string {
	return s.prefix + "idx:kind:" + string(k)
}
func (s *ArchiveSaver) topicKey(topicID string) string {
	return s.prefix + "idx:topic:" + topicID
}

// Save writes the record and its index entries in one transaction,
// moving index entries if an existing record changed kind or topic.
func (s *ArchiveSaver) Save(ctx context.Context, r *archive.Record) error {
	if err := r.Validate(); err != nil {
		return fmt.Errorf("archive record validation failed: %w", err)
	}
	data, err := s.serializer.Marshal(r)
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrSaveFailed, err)
	}

	previous, err := s.Load(ctx, r.ID)
	if err != nil && !errors.Is(err, archive.ErrRecordNotFound) {
		return err
	}

	score := float64(r.ArchivedAt.UnixMilli())
	member := redis.Z{Score: score, Member: r.ID}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		if previous != nil {
			pipe.ZRem(ctx, s.kindKey(previous.Kind), r.ID)
			pipe.ZRem(ctx, s.topicKey(previous.TopicID), r.ID)
		}
		pipe.Set(ctx, s.recordKey(r.ID), data, 0)
		pipe.ZAdd(ctx, s.allKey(), member)
		pipe.ZAdd(ctx, s.kindKey(r.Kind), member)
		pipe.ZAdd(ctx, s.topicKey(r.TopicID), member)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrSaveFailed, err)
	}
	return nil
}

// Load retrieves a record by ID.
func (s *ArchiveSaver) Load(ctx context.Context, id string) (*archive.Record, error) {
	data, err := s.client.Get(ctx, s.recordKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, archive.ErrRecordNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrLoadFailed, err)
	}
	return s.decode(data)
}

// List reads candidate IDs from the narrowest index within the time
// window, loads them in one MGET, then filters, orders and pages.
func (s *ArchiveSaver) List(ctx context.Context, filter archive.Filter) ([]*archive.Record, error) {
	if err := filter.Validate(); err != nil {
		return nil, fmt.Errorf("filter validation failed: %w", err)
	}

	index := s.allKey()
	switch {
	case filter.TopicID != "":
		index = s.topicKey(filter.TopicID)
	case filter.Kind != "":
		index = s.kindKey(filter.Kind)
	}

	// Scores are whole milliseconds, so the window is widened to
	// inclusive ms bounds and Matches applies the exact predicate.
	window := &redis.ZRangeBy{Min: "-inf", Max: "+inf"}
	if filter.Since != nil {
		window.Min = strconv.FormatInt(filter.Since.UnixMilli(), 10)
	}
	if filter.Before != nil {
		window.Max = strconv.FormatInt(filter.Before.UnixMilli(), 10)
	}
	ids, err := s.client.ZRangeByScore(ctx, index, window).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list archive records: %w", err)
	}
	if len(ids) == 0 {
		return []*archive.Record{}, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = s.recordKey(id)
	}
	blobs, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load archive records: %w", err)
	}

	var matched []*archive.Record
	for _, blob := range blobs {
		str, ok := blob.(string)
		if !ok {
			continue // deleted between ZRANGE and MGET
		}
		r, err := s.decode([]byte(str))
		if err != nil {
			return nil, err
		}
		if filter.Matches(r) {
			matched = append(matched, r)
		}
	}

	sort.Slice(matched, func(i, j int) bool {
		a, b := matched[i], matched[j]
		if !a.ArchivedAt.Equal(b.ArchivedAt) {
			return a.ArchivedAt.After(b.ArchivedAt)
		}
		return a.ID < b.ID
	})
	return archive.Page(matched, filter), nil
}

// Delete removes the record and its index entries.
func (s *ArchiveSaver) Delete(ctx context.Context, id string) error {
	r, err := s.Load(ctx, id)
	if err != nil {
		return err
	}
	_, err = s.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, s.recordKey(id))
		pipe.ZRem(ctx, s.allKey(), id)
		pipe.ZRem(ctx, s.kindKey(r.Kind), id)
		pipe.ZRem(ctx, s.topicKey(r.TopicID), id)
		return nil
	})
	if err != nil {
		return fmt.Errorf("%w: %v", archive.ErrDeleteFailed, err)
	}
	return nil
}

// Ping checks connectivity.
func (s *ArchiveSaver) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

func (s *ArchiveSaver) decode(data []byte) (*archive.Record, error) {
	r, err := serialization.Decode[archive.Record](s.serializer, data)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", archive.ErrLoadFailed, err)
	}
	return &r, nil
}
