package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	goredis "github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"rdo-fidel/backend/config"
	apperrors "rdo-fidel/backend/pkg/errors"
)

// ErrNotFound 键不存在或已过期
var ErrNotFound = errors.New("缓存键不存在")

// Client Redis 客户端封装
// 用于日报草稿存储、接口限流和 Token 黑名单
type Client struct {
	rdb    *goredis.Client
	logger *zap.Logger
}

// NewClient 创建 Redis 连接并执行 Ping 健康检查
func NewClient(cfg *config.RedisConfig, logger *zap.Logger) (*Client, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("Redis 连接失败: %w", err)
	}

	logger.Info("Redis 连接成功", zap.String("addr", cfg.Addr))

	return &Client{rdb: rdb, logger: logger}, nil
}

// ── 带版本的 JSON 文档（草稿） ──

// 文档以 hash 存储: version + data
// KEYS[1] 文档键；ARGV: 期望版本、数据、过期毫秒（0 不过期）
var compareAndSetScript = goredis.NewScript(`
local key = KEYS[1]
local expected = tonumber(ARGV[1])
local current = tonumber(redis.call("HGET", key, "version") or "0")
if current ~= expected then
    return -1
end
local next = current + 1
redis.call("HSET", key, "version", next, "data", ARGV[2])
local ttl = tonumber(ARGV[3])
if ttl > 0 then
    redis.call("PEXPIRE", key, ttl)
end
return next
`)

// GetVersioned 读取文档并反序列化到 v，返回当前版本；键不存在时返回 ErrNotFound
func (c *Client) GetVersioned(ctx context.Context, key string, v interface{}) (int64, error) {
	vals, err := c.rdb.HMGet(ctx, key, "version", "data").Result()
	if err != nil {
		return 0, err
	}
	version, _ := vals[0].(string)
	data, _ := vals[1].(string)
	if version == "" || data == "" {
		return 0, ErrNotFound
	}
	n, err := strconv.ParseInt(version, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("文档版本无效: %w", err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return 0, fmt.Errorf("反序列化缓存值失败: %w", err)
	}
	return n, nil
}

// SetVersioned 当前版本等于 expected 时写入 v 并返回新版本，否则返回 ErrOptimisticLock
// expected 为 0 表示新建
func (c *Client) SetVersioned(ctx context.Context, key string, expected int64, v interface{}, ttl time.Duration) (int64, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return 0, fmt.Errorf("序列化缓存值失败: %w", err)
	}
	if ttl < 0 {
		ttl = 0
	}
	next, err := compareAndSetScript.Run(ctx, c.rdb, []string{key}, expected, data, ttl.Milliseconds()).Int64()
	if err != nil {
		return 0, fmt.Errorf("写入文档失败: %w", err)
	}
	if next < 0 {
		return 0, apperrors.ErrOptimisticLock
	}
	return next, nil
}

// Del 删除若干键，不存在的键忽略
func (c *Client) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return c.rdb.Del(ctx, keys...).Err()
}

// ── 滑动窗口限流 ──

// KEYS[1] 窗口键；ARGV: 当前毫秒、窗口毫秒、上限、成员
var slidingWindowScript = goredis.NewScript(`
local key = KEYS[1]
local now = tonumber(ARGV[1])
local window = tonumber(ARGV[2])
local limit = tonumber(ARGV[3])

redis.call("ZREMRANGEBYSCORE", key, 0, now - window)
local count = redis.call("ZCARD", key)
if count >= limit then
    return 0
end
redis.call("ZADD", key, now, ARGV[4])
redis.call("PEXPIRE", key, window)
return 1
`)

// CheckRateLimit 在 window 内对 key 计数，未超过 limit 时返回 true
func (c *Client) CheckRateLimit(ctx context.Context, key string, limit int, window time.Duration) (bool, error) {
	if limit <= 0 {
		return true, nil
	}
	now := time.Now().UnixMilli()
	res, err := slidingWindowScript.Run(ctx, c.rdb, []string{key},
		now, window.Milliseconds(), limit, strconv.FormatInt(now, 10)+"-"+uuid.NewString(),
	).Int()
	if err != nil {
		return false, fmt.Errorf("限流脚本执行失败: %w", err)
	}
	return res == 1, nil
}

// ── Token 黑名单 ──

const blacklistPrefix = "token:blacklist:"

// BlacklistToken 将 JWT ID 加入黑名单，TTL 与 Token 剩余有效期一致
func (c *Client) BlacklistToken(ctx context.Context, jti string, ttl time.Duration) error {
	if ttl <= 0 {
		return nil // Token 已过期，无需加入黑名单
	}
	return c.rdb.Set(ctx, blacklistPrefix+jti, "1", ttl).Err()
}

// IsBlacklisted 检查 JWT ID 是否在黑名单中
func (c *Client) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	n, err := c.rdb.Exists(ctx, blacklistPrefix+jti).Result()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// Close 关闭 Redis 连接
func (c *Client) Close() error {
	return c.rdb.Close()
}
