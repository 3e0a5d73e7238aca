// Package idgen 提供基于默认生成器的便捷函数
//
// 默认生成器保存在全局注册表中（键为 registry.DefaultGeneratorKey）。
// 服务启动时应先调用 Init 指定数据中心ID和工作机器ID的来源；
// 未初始化时首次调用会以数据中心0和 resolver.Default() 创建。
package idgen

import (
	"context"
	"fmt"

	"katydid-snowflake/pkg/idgen/core"
	"katydid-snowflake/pkg/idgen/domain"
	"katydid-snowflake/pkg/idgen/registry"
	"katydid-snowflake/pkg/idgen/resolver"
)

// Init 创建并注册默认生成器，已存在时直接返回nil
func Init(ctx context.Context, datacenterID int64, r resolver.Resolver) error {
	_, err := registry.GetOrCreateDefaultGenerator(ctx, datacenterID, r)
	return err
}

// GetDefaultGenerator 获取默认生成器
func GetDefaultGenerator() (core.IGenerator, error) {
	gen, err := registry.GetOrCreateDefaultGenerator(context.Background(), 0, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to get default generator: %w", err)
	}
	return gen, nil
}

// GenerateID 使用默认生成器生成ID
func GenerateID() (domain.ID, error) {
	gen, err := GetDefaultGenerator()
	if err != nil {
		return 0, err
	}
	id, err := gen.NextID()
	if err != nil {
		return 0, err
	}
	return domain.ID(id), nil
}

// GenerateIDs 使用默认生成器批量生成ID，失败时同样返回已生成的部分
func GenerateIDs(count int) (domain.IDSlice, error) {
	gen, err := GetDefaultGenerator()
	if err != nil {
		return nil, err
	}
	ids, err := gen.NextIDBatch(count)
	return domain.FromInt64s(ids), err
}

// Parse 按默认生成器的位布局解析ID
func Parse(id domain.ID) (*core.IDInfo, error) {
	gen, err := GetDefaultGenerator()
	if err != nil {
		return nil, err
	}
	return gen.ParseID(id.Int64())
}
