package redisstore

import (
	"context"
	"errors"
	"fmt"
	"time"

	goAuthBridge "github.com/MrEthical07/goAuthBridge"
	"github.com/redis/go-redis/v9"
)

// ErrRedisUnavailable wraps every Redis transport or server error.
var ErrRedisUnavailable = errors.New("redis unavailable")

const defaultPrefix = "gab"

// updateIfExistsScript writes ARGV as field/value pairs only when the hash
// already exists. It returns 1 on write and 0 when the row is missing.
const updateIfExistsScript = `
if redis.call("EXISTS", KEYS[1]) == 0 then
  return 0
end
if #ARGV > 0 then
  redis.call("HSET", KEYS[1], unpack(ARGV))
end
return 1
`

var updateIfExistsLua = redis.NewScript(updateIfExistsScript)

// Store keeps profile rows in Redis hashes.
type Store struct {
	redis  redis.UniversalClient
	prefix string
}

// New returns a Store using prefix for its keys. An empty prefix uses
// "gab".
func New(client redis.UniversalClient, prefix string) *Store {
	if prefix == "" {
		prefix = defaultPrefix
	}
	return &Store{
		redis:  client,
		prefix: prefix,
	}
}

func (s *Store) key(id string) string {
	return s.prefix + ":users:" + id
}

// GetByID returns the row for id or goAuthBridge.ErrProfileNotFound.
func (s *Store) GetByID(ctx context.Context, id string) (*goAuthBridge.ProfileRecord, error) {
	if id == "" {
		return nil, goAuthBridge.ErrInvalidProfileID
	}

	cols, err := s.redis.HGetAll(ctx, s.key(id)).Result()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if len(cols) == 0 {
		return nil, goAuthBridge.ErrProfileNotFound
	}

	return goAuthBridge.DecodeProfileColumns(id, cols)
}

// Upsert creates the row for id when missing and overwrites the present
// fields.
func (s *Store) Upsert(ctx context.Context, id string, fields goAuthBridge.ProfileFields) error {
	if id == "" {
		return goAuthBridge.ErrInvalidProfileID
	}

	values := append([]any{goAuthBridge.ColumnID, id}, hashValues(fields)...)
	if err := s.redis.HSet(ctx, s.key(id), values...).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// UpdateByID overwrites the present fields of an existing row. It returns
// goAuthBridge.ErrProfileNotFound and writes nothing when the row is missing.
func (s *Store) UpdateByID(ctx context.Context, id string, fields goAuthBridge.ProfileFields) error {
	if id == "" {
		return goAuthBridge.ErrInvalidProfileID
	}

	res, err := updateIfExistsLua.Run(ctx, s.redis, []string{s.key(id)}, hashValues(fields)...).Int64()
	if err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	if res == 0 {
		return goAuthBridge.ErrProfileNotFound
	}
	return nil
}

// Delete removes the row for id. Deleting a missing row is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if err := s.redis.Del(ctx, s.key(id)).Err(); err != nil {
		return fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return nil
}

// Ping measures a round trip to Redis.
func (s *Store) Ping(ctx context.Context) (time.Duration, error) {
	start := time.Now()
	if err := s.redis.Ping(ctx).Err(); err != nil {
		return time.Since(start), fmt.Errorf("%w: %v", ErrRedisUnavailable, err)
	}
	return time.Since(start), nil
}

func hashValues(fields goAuthBridge.ProfileFields) []any {
	cols := fields.Columns()
	values := make([]any, 0, 2*len(cols))
	for _, c := range cols {
		values = append(values, c.Name, goAuthBridge.FormatColumnValue(c.Value))
	}
	return values
}
