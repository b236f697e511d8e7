package cache

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"talentflow_backend/internal/model"
	"talentflow_backend/internal/util"
	"time"

	"github.com/go-redis/redis/v8"
)

// SessionCache 在请求之间保存预览会话。
// 会话不存在或已过期时 Get 返回 util.ErrSessionNotFound
type SessionCache interface {
	Set(ctx context.Context, session *model.PreviewSession) error
	Get(ctx context.Context, id string) (*model.PreviewSession, error)
	Delete(ctx context.Context, id string) error
}

const sessionKeyPrefix = "preview:session:"

type redisSessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisSessionCache(client *redis.Client, ttl time.Duration) SessionCache {
	return &redisSessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *redisSessionCache) Set(ctx context.Context, session *model.PreviewSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, sessionKeyPrefix+session.ID, data, c.ttl).Err()
}

func (c *redisSessionCache) Get(ctx context.Context, id string) (*model.PreviewSession, error) {
	data, err := c.client.Get(ctx, sessionKeyPrefix+id).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, util.ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}
	var session model.PreviewSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *redisSessionCache) Delete(ctx context.Context, id string) error {
	return c.client.Del(ctx, sessionKeyPrefix+id).Err()
}

type memoryEntry struct {
	data    []byte
	expires time.Time
}

// memorySessionCache 未启用redis时使用。条目序列化存储，调用方之间不共享会话对象
type memorySessionCache struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

func NewMemorySessionCache(ttl time.Duration) SessionCache {
	return &memorySessionCache{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

func (c *memorySessionCache) Set(_ context.Context, session *model.PreviewSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	c.sweep()
	var expires time.Time
	if c.ttl > 0 {
		expires = c.now().Add(c.ttl)
	}
	c.entries[session.ID] = memoryEntry{data: data, expires: expires}
	return nil
}

func (c *memorySessionCache) Get(_ context.Context, id string) (*model.PreviewSession, error) {
	c.mu.Lock()
	e, ok := c.entries[id]
	if ok && c.expired(e) {
		delete(c.entries, id)
		ok = false
	}
	c.mu.Unlock()
	if !ok {
		return nil, util.ErrSessionNotFound
	}
	var session model.PreviewSession
	if err := json.Unmarshal(e.data, &session); err != nil {
		return nil, err
	}
	return &session, nil
}

func (c *memorySessionCache) Delete(_ context.Context, id string) error {
	c.mu.Lock()
	delete(c.entries, id)
	c.mu.Unlock()
	return nil
}

func (c *memorySessionCache) expired(e memoryEntry) bool {
	return !e.expires.IsZero() && c.now().After(e.expires)
}

// sweep 清理过期条目，调用方需持有 mu
func (c *memorySessionCache) sweep() {
	for id, e := range c.entries {
		if c.expired(e) {
			delete(c.entries, id)
		}
	}
}
