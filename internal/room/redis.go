package room

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-redis/redis/v8"

	"github.com/paul0vinicius/chasing-chairs/internal/engine"
)

const (
	redisRoomPrefix = "chairs:room:"
	redisIndexKey   = "chairs:rooms"
)

// RedisStore keeps rooms as JSON blobs (engine.Room implements BinaryMarshaler)
// plus a set of live codes.
type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

// OpenRedis parses a redis:// URL and checks the server answers.
func OpenRedis(ctx context.Context, url string) (*RedisStore, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return NewRedisStore(rdb), nil
}

func (s *RedisStore) Get(ctx context.Context, code string) (*engine.Room, error) {
	data, err := s.rdb.Get(ctx, redisRoomPrefix+code).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrRoomNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get room %s: %w", code, err)
	}

	r := &engine.Room{}
	if err := r.UnmarshalBinary(data); err != nil {
		return nil, fmt.Errorf("decode room %s: %w", code, err)
	}
	return r, nil
}

func (s *RedisStore) Put(ctx context.Context, r *engine.Room) error {
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Set(ctx, redisRoomPrefix+r.Code, r, 0)
		p.SAdd(ctx, redisIndexKey, r.Code)
		return nil
	})
	if err != nil {
		return fmt.Errorf("put room %s: %w", r.Code, err)
	}
	return nil
}

func (s *RedisStore) Delete(ctx context.Context, code string) (bool, error) {
	var del *redis.IntCmd
	_, err := s.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		del = p.Del(ctx, redisRoomPrefix+code)
		p.SRem(ctx, redisIndexKey, code)
		return nil
	})
	if err != nil {
		return false, fmt.Errorf("delete room %s: %w", code, err)
	}
	return del.Val() > 0, nil
}

func (s *RedisStore) Codes(ctx context.Context) ([]string, error) {
	codes, err := s.rdb.SMembers(ctx, redisIndexKey).Result()
	if err != nil {
		return nil, fmt.Errorf("list rooms: %w", err)
	}
	return codes, nil
}

func (s *RedisStore) Close() error { return s.rdb.Close() }
