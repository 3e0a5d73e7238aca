package snowflake

import (
	"fmt"

	"katydid-snowflake/pkg/idgen/core"
)

// Validator Snowflake ID验证器（无状态，可共享）
type Validator struct {
	layout Layout
	clock  Clock
}

// ValidateID 使用默认位布局和系统时钟验证ID
func ValidateID(id int64) error {
	return NewValidator(DefaultLayout, SystemClock).Validate(id)
}

// NewValidator 创建新的验证器实例，clock为nil时使用 SystemClock
func NewValidator(layout Layout, clock Clock) *Validator {
	if clock == nil {
		clock = SystemClock
	}
	return &Validator{layout: layout, clock: clock}
}

// Validate 验证Snowflake ID的有效性
// 实现core.IIDValidator接口
func (v *Validator) Validate(id int64) error {
	// 验证1：ID必须为正整数
	if id <= 0 {
		return fmt.Errorf("%w: id must be positive, got %d",
			core.ErrInvalidSnowflakeID, id)
	}

	// 验证2：时间戳不能太超前
	// 说明：允许一定的时钟误差（maxFutureTimeTolerance = 1分钟），
	// 超出的多半是用不同Epoch或位布局生成的ID
	timestamp := (id >> v.layout.TimestampShift()) + v.layout.Epoch
	now := v.clock.NowMillis()
	if timestamp > now+maxFutureTimeTolerance {
		return fmt.Errorf("%w: timestamp %d is too far in the future (current: %d, max tolerance: %d ms)",
			core.ErrInvalidSnowflakeID, timestamp, now, maxFutureTimeTolerance)
	}

	return nil
}

// ValidateBatch 批量验证ID，遇到第一个错误立即返回
// 实现core.IIDValidator接口
func (v *Validator) ValidateBatch(ids []int64) error {
	if ids == nil {
		return fmt.Errorf("%w: ids slice cannot be nil", core.ErrInvalidSnowflakeID)
	}

	for i, id := range ids {
		if err := v.Validate(id); err != nil {
			return fmt.Errorf("invalid ID at index %d: %w", i, err)
		}
	}

	return nil
}
