package app

import (
	"fmt"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"katydid-snowflake/pkg/config"
	"katydid-snowflake/pkg/idgen/resolver"
)

// BuildResolver 按配置的策略顺序组装解析链
// 启用redis策略时返回的closer负责关闭Redis连接，否则为空操作
func BuildResolver(cfg config.ResolverConfig, logger *zap.Logger) (resolver.Resolver, func() error, error) {
	closer := func() error { return nil }
	strategies := make([]resolver.Resolver, 0, len(cfg.Strategies))

	for _, name := range cfg.Strategies {
		switch name {
		case config.StrategyStatic:
			strategies = append(strategies, resolver.Static(cfg.StaticWorkerID))
		case config.StrategyEnv:
			strategies = append(strategies, resolver.Env(cfg.EnvVar))
		case config.StrategyOutbound:
			strategies = append(strategies, resolver.OutboundIP(cfg.ProbeAddr))
		case config.StrategyPrivateIP:
			strategies = append(strategies, resolver.PrivateIP())
		case config.StrategyHostname:
			strategies = append(strategies, resolver.Hostname())
		case config.StrategyRedis:
			client := redis.NewClient(&redis.Options{
				Addr:     cfg.Redis.Addr,
				Password: cfg.Redis.Password,
				DB:       cfg.Redis.DB,
			})
			closer = client.Close

			opts := []resolver.RedisOption{resolver.WithRedisKey(cfg.Redis.Key)}
			if cfg.Redis.Member != "" {
				opts = append(opts, resolver.WithRedisMember(cfg.Redis.Member))
			}
			strategies = append(strategies,
				resolver.Retry(resolver.Redis(client, opts...), cfg.RetryAttempts, cfg.RetryDelay))
		default:
			_ = closer()
			return nil, nil, fmt.Errorf("%w: unknown resolver strategy %q", config.ErrInvalidConfig, name)
		}
	}

	logger.Info("worker id resolver configured", zap.Strings("strategies", cfg.Strategies))
	return resolver.Chain(strategies...), closer, nil
}
