package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"rdo-fidel/backend/internal/report"
	apperrors "rdo-fidel/backend/pkg/errors"
	"rdo-fidel/backend/pkg/redis"
)

// ErrSessionNotFound 草稿不存在或已过期
var ErrSessionNotFound = errors.New("日报草稿不存在或已过期")

// DraftStore 日报草稿存储。Save 按版本号比较后写入，版本不一致返回 apperrors.ErrOptimisticLock；
// version 为 0 表示新建。
type DraftStore interface {
	Load(ctx context.Context, id string) (*report.Session, int64, error)
	Save(ctx context.Context, s *report.Session, version int64) (int64, error)
	Delete(ctx context.Context, id string) error
}

// ════════════════════════════════════════════════════════════
// Redis 草稿存储
// ════════════════════════════════════════════════════════════

// versionedCache pkg/redis.Client 的草稿相关子集
type versionedCache interface {
	GetVersioned(ctx context.Context, key string, v interface{}) (int64, error)
	SetVersioned(ctx context.Context, key string, expected int64, v interface{}, ttl time.Duration) (int64, error)
	Del(ctx context.Context, keys ...string) error
}

type redisDraftStore struct {
	cache versionedCache
	ttl   time.Duration
}

// NewRedisDraftStore 基于 Redis 的草稿存储，每次保存刷新 TTL
func NewRedisDraftStore(cache versionedCache, ttl time.Duration) DraftStore {
	return &redisDraftStore{cache: cache, ttl: ttl}
}

func draftKey(id string) string {
	return "rdo:draft:" + id
}

func (d *redisDraftStore) Load(ctx context.Context, id string) (*report.Session, int64, error) {
	var s report.Session
	version, err := d.cache.GetVersioned(ctx, draftKey(id), &s)
	if err != nil {
		if errors.Is(err, redis.ErrNotFound) {
			return nil, 0, ErrSessionNotFound
		}
		return nil, 0, err
	}
	return &s, version, nil
}

func (d *redisDraftStore) Save(ctx context.Context, s *report.Session, version int64) (int64, error) {
	return d.cache.SetVersioned(ctx, draftKey(s.ID), version, s, d.ttl)
}

func (d *redisDraftStore) Delete(ctx context.Context, id string) error {
	return d.cache.Del(ctx, draftKey(id))
}

// ════════════════════════════════════════════════════════════
// 内存草稿存储：未启用 Redis 时使用，仅适用于单实例
// ════════════════════════════════════════════════════════════

type memoryDraft struct {
	version   int64
	data      []byte
	expiresAt time.Time
}

type memoryDraftStore struct {
	mu     sync.Mutex
	ttl    time.Duration
	drafts map[string]*memoryDraft
	now    func() time.Time
}

// NewMemoryDraftStore 创建内存草稿存储。保存的是序列化副本，调用方修改会话不会影响已保存版本。
func NewMemoryDraftStore(ttl time.Duration) DraftStore {
	return &memoryDraftStore{
		ttl:    ttl,
		drafts: make(map[string]*memoryDraft),
		now:    time.Now,
	}
}

func (m *memoryDraftStore) Load(_ context.Context, id string) (*report.Session, int64, error) {
	m.mu.Lock()
	d, ok := m.drafts[id]
	if ok && m.expired(d) {
		delete(m.drafts, id)
		ok = false
	}
	m.mu.Unlock()
	if !ok {
		return nil, 0, ErrSessionNotFound
	}

	var s report.Session
	if err := json.Unmarshal(d.data, &s); err != nil {
		return nil, 0, fmt.Errorf("反序列化草稿失败: %w", err)
	}
	return &s, d.version, nil
}

func (m *memoryDraftStore) Save(_ context.Context, s *report.Session, version int64) (int64, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return 0, fmt.Errorf("序列化草稿失败: %w", err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	var current int64
	if d, ok := m.drafts[s.ID]; ok && !m.expired(d) {
		current = d.version
	}
	if current != version {
		return 0, apperrors.ErrOptimisticLock
	}

	next := &memoryDraft{version: current + 1, data: data}
	if m.ttl > 0 {
		next.expiresAt = m.now().Add(m.ttl)
	}
	m.drafts[s.ID] = next
	return next.version, nil
}

func (m *memoryDraftStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	delete(m.drafts, id)
	m.mu.Unlock()
	return nil
}

func (m *memoryDraftStore) expired(d *memoryDraft) bool {
	return !d.expiresAt.IsZero() && m.now().After(d.expiresAt)
}
