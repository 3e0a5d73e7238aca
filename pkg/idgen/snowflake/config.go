package snowflake

import (
	"fmt"

	"go.uber.org/zap"

	"katydid-snowflake/pkg/idgen/core"
)

// ============================================================================
// Snowflake 配置定义
// ============================================================================

// Config Snowflake生成器配置
type Config struct {
	// Layout 位布局
	// 零值表示使用 DefaultLayout
	Layout Layout

	// DatacenterID 数据中心ID
	// 范围：[0, Layout.MaxDatacenterID()]，默认布局下为0-31
	DatacenterID int64

	// WorkerID 工作机器ID
	// 范围：[0, Layout.MaxWorkerID()]，默认布局下为0-31
	WorkerID int64

	// Clock 时钟源，nil时使用 SystemClock
	Clock Clock

	// Logger 日志记录器，nil时不输出日志
	Logger *zap.Logger

	// EnableMetrics 是否启用性能监控
	// 默认值：false
	EnableMetrics bool
}

// Validate 验证配置的有效性
func (c *Config) Validate() error {
	layout := c.Layout
	if layout.IsZero() {
		layout = DefaultLayout
	}

	if err := layout.Validate(); err != nil {
		return err
	}

	if c.DatacenterID < 0 || c.DatacenterID > layout.MaxDatacenterID() {
		return fmt.Errorf("%w: %w: got %d, valid range [0, %d]",
			core.ErrInvalidConfig, core.ErrInvalidDatacenterID, c.DatacenterID, layout.MaxDatacenterID())
	}

	if c.WorkerID < 0 || c.WorkerID > layout.MaxWorkerID() {
		return fmt.Errorf("%w: %w: got %d, valid range [0, %d]",
			core.ErrInvalidConfig, core.ErrInvalidWorkerID, c.WorkerID, layout.MaxWorkerID())
	}

	return nil
}

// SetDefaults 设置配置的默认值
func (c *Config) SetDefaults() {
	if c.Layout.IsZero() {
		c.Layout = DefaultLayout
	}
	if c.Clock == nil {
		c.Clock = SystemClock
	}
	if c.Logger == nil {
		c.Logger = zap.NewNop()
	}
}

// Clone 克隆配置对象
func (c *Config) Clone() *Config {
	clone := *c
	return &clone
}
