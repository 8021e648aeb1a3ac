package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/gofrs/uuid/v5"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisStore keeps blobs in Redis so several client processes share one
// session and cart. Every mutation is published on a channel; Watch
// subscribers in other processes receive it as a push, mirroring the
// browser's storage event.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
	src    string
	log    *zap.Logger
}

type redisEvent struct {
	Key     string `json:"key"`
	Removed bool   `json:"removed"`
	Src     string `json:"src"`
}

// NewRedisStore wraps an existing client. Prefix namespaces the keys and
// the event channel (one prefix per storefront profile).
func NewRedisStore(rdb *redis.Client, prefix string, log *zap.Logger) *RedisStore {
	id, _ := uuid.NewV4()
	return &RedisStore{rdb: rdb, prefix: prefix, src: id.String(), log: log}
}

func (s *RedisStore) key(key string) string { return s.prefix + ":" + key }
func (s *RedisStore) channel() string       { return s.prefix + ":events" }

// Get retrieves the blob for key. A missing key is (nil, false, nil).
func (s *RedisStore) Get(key string) ([]byte, bool, error) {
	data, err := s.rdb.Get(context.Background(), s.key(key)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, false, nil
		}
		return nil, false, err
	}
	return data, true, nil
}

// Set stores the blob and announces the change.
func (s *RedisStore) Set(key string, data []byte) error {
	if err := s.rdb.Set(context.Background(), s.key(key), data, 0).Err(); err != nil {
		return err
	}
	s.publish(key, false)
	return nil
}

// Delete removes the key and announces the removal.
func (s *RedisStore) Delete(key string) error {
	if err := s.rdb.Del(context.Background(), s.key(key)).Err(); err != nil {
		return err
	}
	s.publish(key, true)
	return nil
}

func (s *RedisStore) publish(key string, removed bool) {
	data, _ := json.Marshal(redisEvent{Key: key, Removed: removed, Src: s.src})
	if err := s.rdb.Publish(context.Background(), s.channel(), data).Err(); err != nil {
		s.log.Warn("publish change event", zap.String("key", key), zap.Error(err))
	}
}

// Watch subscribes to the event channel and forwards changes originating
// from other processes.
func (s *RedisStore) Watch(ctx context.Context) (<-chan Event, func(), error) {
	sub := s.rdb.Subscribe(ctx, s.channel())
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return nil, nil, err
	}

	out := make(chan Event, 8)
	stopOnce := sync.Once{}
	stop := func() { stopOnce.Do(func() { _ = sub.Close() }) }

	go func() {
		defer close(out)
		defer stop()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var ev redisEvent
				if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
					s.log.Warn("bad change event payload", zap.Error(err))
					continue
				}
				if ev.Src == s.src {
					continue
				}
				select {
				case out <- Event{Key: ev.Key, Removed: ev.Removed}:
				default:
				}
			}
		}
	}()
	return out, stop, nil
}
