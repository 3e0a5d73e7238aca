package core

import (
	"errors"
	"fmt"
)

var (
	// ErrInvalidConfig 配置错误（位宽溢出、ID超出位宽、配置为nil等），构造阶段返回
	ErrInvalidConfig = errors.New("invalid snowflake config")

	// ErrInvalidWorkerID 工作机器ID超出配置的位宽
	ErrInvalidWorkerID = errors.New("invalid worker id")

	// ErrInvalidDatacenterID 数据中心ID超出配置的位宽
	ErrInvalidDatacenterID = errors.New("invalid datacenter id")

	// ErrClockMovedBackwards 检测到时钟回拨
	ErrClockMovedBackwards = errors.New("clock moved backwards: refusing to generate id")

	// ErrTimestampOverflow 时间戳早于Epoch或超出时间戳位宽
	ErrTimestampOverflow = errors.New("timestamp overflow: outside the representable range")

	// ErrWorkerIDUnavailable 无法从运行环境解析出工作机器ID
	ErrWorkerIDUnavailable = errors.New("worker id unavailable")

	// ErrInvalidSnowflakeID 无效的Snowflake ID
	ErrInvalidSnowflakeID = errors.New("invalid snowflake id")

	// ErrInvalidBatchSize 批量生成数量无效
	ErrInvalidBatchSize = errors.New("invalid batch size")

	// ErrNilConfig 配置为nil
	ErrNilConfig = errors.New("config cannot be nil")

	// ErrInvalidGeneratorType 无效的生成器类型
	ErrInvalidGeneratorType = errors.New("invalid generator type")

	// ErrFactoryNotFound 生成器类型没有注册工厂
	ErrFactoryNotFound = errors.New("generator factory not found")

	// ErrGeneratorNotFound 生成器未找到
	ErrGeneratorNotFound = errors.New("generator not found")

	// ErrGeneratorAlreadyExists 生成器已存在
	ErrGeneratorAlreadyExists = errors.New("generator already exists")

	// ErrPairInUse (datacenter, worker) 组合已被本进程内的其他生成器占用
	ErrPairInUse = errors.New("datacenter/worker pair already in use")

	// ErrInvalidKey 无效的键
	ErrInvalidKey = errors.New("invalid key")

	// ErrMaxGeneratorsReached 达到最大生成器数量
	ErrMaxGeneratorsReached = errors.New("maximum number of generators reached")

	// ErrOwnerClosed 生成器所有者协程已关闭
	ErrOwnerClosed = errors.New("generator owner closed")
)

// ClockMovedBackwardsError 时钟回拨错误，携带上次成功生成ID时记录的时间戳
type ClockMovedBackwardsError struct {
	LastTimestamp int64 // 上次生成ID的时间戳（Unix毫秒）
	Now           int64 // 本次读取到的时间戳（Unix毫秒）
}

// Error 实现error接口
func (e *ClockMovedBackwardsError) Error() string {
	return fmt.Sprintf("%s: refusing to generate id until %d (backward %d ms)",
		ErrClockMovedBackwards.Error(), e.LastTimestamp, e.LastTimestamp-e.Now)
}

// Unwrap 使 errors.Is(err, ErrClockMovedBackwards) 成立
func (e *ClockMovedBackwardsError) Unwrap() error {
	return ErrClockMovedBackwards
}
