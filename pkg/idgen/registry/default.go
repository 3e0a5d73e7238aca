package registry

import (
	"context"

	"katydid-snowflake/pkg/idgen/core"
	"katydid-snowflake/pkg/idgen/resolver"
	"katydid-snowflake/pkg/idgen/snowflake"
)

// DefaultGeneratorKey 默认生成器的键
const DefaultGeneratorKey = "default"

// GetOrCreateDefaultGenerator 获取或创建全局注册表中的默认生成器
//
// 首次调用时通过r解析工作机器ID（r为nil时使用 resolver.Default()），
// 数据中心ID为datacenterID；之后的调用直接返回已注册的实例。
func GetOrCreateDefaultGenerator(ctx context.Context, datacenterID int64, r resolver.Resolver) (core.IGenerator, error) {
	reg := GetRegistry()

	if gen, err := reg.Get(DefaultGeneratorKey); err == nil {
		return gen, nil
	}

	gen, err := snowflake.NewFromEnvironmentWithConfig(ctx, &snowflake.Config{
		DatacenterID: datacenterID,
		Logger:       reg.log(),
	}, r)
	if err != nil {
		return nil, err
	}

	if err := reg.Register(DefaultGeneratorKey, gen); err != nil {
		// 并发首次调用时另一方可能已完成注册
		if existing, getErr := reg.Get(DefaultGeneratorKey); getErr == nil {
			return existing, nil
		}
		return nil, err
	}
	return gen, nil
}
