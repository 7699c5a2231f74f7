package content

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

var (
	// ErrNotFound is an exported constant or variable used by the back-office engine.
	ErrNotFound = errors.New("content row not found")
	// ErrUnknownCollection is an exported constant or variable used by the back-office engine.
	ErrUnknownCollection = errors.New("unknown collection")
	// ErrUnavailable is an exported constant or variable used by the back-office engine.
	ErrUnavailable = errors.New("content store unavailable")
)

// Collections is the fixed set of editable tables.
var Collections = []string{
	"services",
	"bookings",
	"testimonials",
	"astrologers",
	"videos",
	"carousel_items",
	"gallery_images",
	"site_settings",
}

var collectionSet = func() map[string]struct{} {
	m := make(map[string]struct{}, len(Collections))
	for _, c := range Collections {
		m[c] = struct{}{}
	}
	return m
}()

// Known reports whether name is an allowed collection.
func Known(name string) bool {
	_, ok := collectionSet[name]
	return ok
}

// Row is one stored document plus its bookkeeping fields.
type Row struct {
	ID        string          `json:"id"`
	CreatedAt int64           `json:"created_at"`
	UpdatedAt int64           `json:"updated_at"`
	Data      json.RawMessage `json:"data"`
}

// Store persists content rows in Redis.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// NewStore creates a [Store] with the given key prefix.
func NewStore(redisClient redis.UniversalClient, prefix string) *Store {
	return &Store{
		redis:  redisClient,
		prefix: prefix,
	}
}

// Put creates or replaces a row. New rows keep the caller-supplied ID
// and get a fresh creation stamp; existing rows keep theirs.
func (s *Store) Put(ctx context.Context, collection string, row Row) (*Row, error) {
	if !Known(collection) {
		return nil, ErrUnknownCollection
	}
	if row.ID == "" {
		return nil, errors.New("row id required")
	}
	if len(row.Data) == 0 || !json.Valid(row.Data) {
		return nil, errors.New("row data must be valid JSON")
	}

	now := time.Now().Unix()
	existing, err := s.Get(ctx, collection, row.ID)
	switch {
	case err == nil:
		row.CreatedAt = existing.CreatedAt
	case errors.Is(err, ErrNotFound):
		row.CreatedAt = now
	default:
		return nil, err
	}
	row.UpdatedAt = now

	payload, err := json.Marshal(row)
	if err != nil {
		return nil, err
	}

	pipe := s.redis.TxPipeline()
	pipe.Set(ctx, s.rowKey(collection, row.ID), payload, 0)
	pipe.ZAdd(ctx, s.indexKey(collection), redis.Z{Score: float64(row.CreatedAt), Member: row.ID})
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	return &row, nil
}

// Get loads one row from a collection.
func (s *Store) Get(ctx context.Context, collection, id string) (*Row, error) {
	if !Known(collection) {
		return nil, ErrUnknownCollection
	}

	payload, err := s.redis.Get(ctx, s.rowKey(collection, id)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	var row Row
	if err := json.Unmarshal(payload, &row); err != nil {
		return nil, fmt.Errorf("corrupt row %s/%s: %v", collection, id, err)
	}
	return &row, nil
}

// List returns every row in a collection ordered by creation time.
func (s *Store) List(ctx context.Context, collection string) ([]Row, error) {
	if !Known(collection) {
		return nil, ErrUnknownCollection
	}

	ids, err := s.redis.ZRange(ctx, s.indexKey(collection), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}

	rows := make([]Row, 0, len(ids))
	for _, id := range ids {
		row, err := s.Get(ctx, collection, id)
		if err != nil {
			if errors.Is(err, ErrNotFound) {
				// Stale index entry; skip rather than fail the listing.
				continue
			}
			return nil, err
		}
		rows = append(rows, *row)
	}
	return rows, nil
}

// Delete removes a row. Missing rows are not an error.
func (s *Store) Delete(ctx context.Context, collection, id string) error {
	if !Known(collection) {
		return ErrUnknownCollection
	}

	pipe := s.redis.TxPipeline()
	pipe.Del(ctx, s.rowKey(collection, id))
	pipe.ZRem(ctx, s.indexKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}

func (s *Store) rowKey(collection, id string) string {
	return s.prefix + ":" + collection + ":" + id
}

func (s *Store) indexKey(collection string) string {
	return s.prefix + ":" + collection + ":index"
}
