package service

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"rdo-fidel/backend/internal/report"
	apperrors "rdo-fidel/backend/pkg/errors"
	"rdo-fidel/backend/pkg/redis"
)

// fakeVersionedCache 内存实现的版本化缓存，行为与 pkg/redis.Client 一致
type fakeVersionedCache struct {
	docs     map[string][]byte
	versions map[string]int64
	ttls     map[string]time.Duration
}

func newFakeVersionedCache() *fakeVersionedCache {
	return &fakeVersionedCache{
		docs:     make(map[string][]byte),
		versions: make(map[string]int64),
		ttls:     make(map[string]time.Duration),
	}
}

func (c *fakeVersionedCache) GetVersioned(_ context.Context, key string, v interface{}) (int64, error) {
	data, ok := c.docs[key]
	if !ok {
		return 0, redis.ErrNotFound
	}
	if err := json.Unmarshal(data, v); err != nil {
		return 0, err
	}
	return c.versions[key], nil
}

func (c *fakeVersionedCache) SetVersioned(_ context.Context, key string, expected int64, v interface{}, ttl time.Duration) (int64, error) {
	if c.versions[key] != expected {
		return 0, apperrors.ErrOptimisticLock
	}
	data, err := json.Marshal(v)
	if err != nil {
		return 0, err
	}
	c.docs[key] = data
	c.versions[key] = expected + 1
	c.ttls[key] = ttl
	return expected + 1, nil
}

func (c *fakeVersionedCache) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(c.docs, k)
		delete(c.versions, k)
	}
	return nil
}

func newDraft() *report.Session {
	return report.NewSession("site-1", "Obra Norte", "user-1", testNow)
}

func TestMemoryDraftStore_VersionedSave(t *testing.T) {
	store := NewMemoryDraftStore(time.Hour)
	ctx := context.Background()
	s := newDraft()

	v1, err := store.Save(ctx, s, 0)
	if err != nil || v1 != 1 {
		t.Fatalf("首次保存应得到版本 1，实际 %d, %v", v1, err)
	}
	if _, err := store.Save(ctx, s, 0); !errors.Is(err, apperrors.ErrOptimisticLock) {
		t.Errorf("旧版本写入期望 ErrOptimisticLock，实际: %v", err)
	}

	// 保存的是副本
	s.Notes = "修改但未保存"
	loaded, version, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if version != 1 || loaded.Notes != "" {
		t.Errorf("读取结果不应受未保存修改影响: version=%d notes=%q", version, loaded.Notes)
	}

	if err := store.Delete(ctx, s.ID); err != nil {
		t.Fatalf("Delete 应成功: %v", err)
	}
	if _, _, err := store.Load(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("删除后期望 ErrSessionNotFound，实际: %v", err)
	}
}

func TestMemoryDraftStore_Expiry(t *testing.T) {
	store := NewMemoryDraftStore(time.Minute).(*memoryDraftStore)
	now := testNow
	store.now = func() time.Time { return now }
	ctx := context.Background()
	s := newDraft()

	if _, err := store.Save(ctx, s, 0); err != nil {
		t.Fatalf("保存失败: %v", err)
	}
	now = now.Add(2 * time.Minute)
	if _, _, err := store.Load(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("过期后期望 ErrSessionNotFound，实际: %v", err)
	}
	// 过期草稿视为不存在，可按新建重新保存
	if v, err := store.Save(ctx, s, 0); err != nil || v != 1 {
		t.Errorf("过期后按新建保存应得到版本 1，实际 %d, %v", v, err)
	}
}

func TestRedisDraftStore_RoundTrip(t *testing.T) {
	cache := newFakeVersionedCache()
	store := NewRedisDraftStore(cache, 12*time.Hour)
	ctx := context.Background()
	s := newDraft()
	s.Notes = "Sem observações"

	if _, _, err := store.Load(ctx, s.ID); !errors.Is(err, ErrSessionNotFound) {
		t.Errorf("不存在的草稿期望 ErrSessionNotFound，实际: %v", err)
	}
	v, err := store.Save(ctx, s, 0)
	if err != nil {
		t.Fatalf("Save 应成功: %v", err)
	}
	if cache.ttls["rdo:draft:"+s.ID] != 12*time.Hour {
		t.Errorf("应按配置的 TTL 写入，实际 %v", cache.ttls["rdo:draft:"+s.ID])
	}

	loaded, version, err := store.Load(ctx, s.ID)
	if err != nil {
		t.Fatalf("Load 应成功: %v", err)
	}
	if version != v || loaded.Notes != s.Notes || loaded.SiteID != "site-1" {
		t.Errorf("读取结果不一致: version=%d %+v", version, loaded)
	}
	if _, err := store.Save(ctx, s, v+1); !errors.Is(err, apperrors.ErrOptimisticLock) {
		t.Errorf("版本不符期望 ErrOptimisticLock，实际: %v", err)
	}
}
