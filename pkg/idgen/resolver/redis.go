package resolver

import (
	"context"
	"errors"
	"strconv"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisKey 运维分配表所在的Redis哈希键
const DefaultRedisKey = "idgen:workers"

type redisResolver struct {
	client redis.Cmdable
	key    string
	member func() (string, error)
}

// RedisOption Redis解析器选项
type RedisOption func(*redisResolver)

// WithRedisKey 设置分配表的哈希键
func WithRedisKey(key string) RedisOption {
	return func(r *redisResolver) {
		if key != "" {
			r.key = key
		}
	}
}

// WithRedisMember 设置在哈希中查找的字段名，默认为主机名
func WithRedisMember(member string) RedisOption {
	return func(r *redisResolver) {
		r.member = func() (string, error) { return member, nil }
	}
}

// Redis 从运维维护的Redis哈希中读取本机的工作机器ID
//
//	HSET idgen:workers <hostname> <worker id>
//
// 只做查表，不负责分配，也不检测重复分配。
func Redis(client redis.Cmdable, opts ...RedisOption) Resolver {
	r := &redisResolver{
		client: client,
		key:    DefaultRedisKey,
		member: osHostname,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(r)
		}
	}
	return r
}

// Resolve 实现Resolver接口
func (r *redisResolver) Resolve(ctx context.Context, maxWorkerID int64) (int64, error) {
	if r.client == nil {
		return 0, unavailable("redis: nil client")
	}

	member, err := r.member()
	if err != nil {
		return 0, unavailable("redis: %w", err)
	}
	if member == "" {
		return 0, unavailable("redis: empty member name")
	}

	raw, err := r.client.HGet(ctx, r.key, member).Result()
	if errors.Is(err, redis.Nil) {
		return 0, unavailable("redis: no worker id assigned to %q in %s", member, r.key)
	}
	if err != nil {
		return 0, unavailable("redis: %w", err)
	}

	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return 0, unavailable("redis: invalid worker id %q for %q: %w", raw, member, err)
	}
	return checkRange("redis "+r.key, id, maxWorkerID)
}
