package snowflake

import (
	"fmt"

	"katydid-snowflake/pkg/idgen/core"
)

// 编译期检查 Generator 实现了完整的生成器接口
var _ core.IGenerator = (*Generator)(nil)

// Factory Snowflake生成器工厂（无状态）
type Factory struct{}

// NewFactory 创建Snowflake工厂实例
func NewFactory() *Factory {
	return &Factory{}
}

// Create 创建Snowflake生成器实例
// 说明：config 必须是 *Config 或 Config，NewWithConfig内部会验证配置
func (f *Factory) Create(config any) (core.IGenerator, error) {
	var cfg *Config
	switch c := config.(type) {
	case *Config:
		cfg = c
	case Config:
		cfg = &c
	default:
		return nil, fmt.Errorf("%w: expected *snowflake.Config, got %T", core.ErrInvalidConfig, config)
	}

	g, err := NewWithConfig(cfg)
	if err != nil {
		return nil, err
	}
	return g, nil
}
