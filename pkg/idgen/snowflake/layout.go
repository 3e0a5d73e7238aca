package snowflake

import (
	"fmt"

	"github.com/go-playground/validator/v10"

	"katydid-snowflake/pkg/idgen/core"
)

// layoutValidate 位布局的结构体标签校验器（validator.Validate 并发安全）
var layoutValidate = validator.New()

// Layout Snowflake ID位布局
//
// 时间戳固定占用剩余的高位（至少41位），三个字段位数之和不得超过22。
// 移位量和掩码都由位数推导，Layout 本身是不可变的值类型。
type Layout struct {
	// Epoch 起始时间戳（Unix毫秒），时间戳字段存储的是相对它的偏移
	Epoch int64 `mapstructure:"epoch" validate:"gte=0"`

	// DatacenterBits 数据中心ID位数
	DatacenterBits int `mapstructure:"datacenter_bits" validate:"gte=0,lte=22"`

	// WorkerBits 工作机器ID位数
	WorkerBits int `mapstructure:"worker_bits" validate:"gte=0,lte=22"`

	// SequenceBits 序列号位数
	SequenceBits int `mapstructure:"sequence_bits" validate:"gte=1,lte=22"`
}

// IsZero 是否为零值（未配置）
func (l Layout) IsZero() bool {
	return l == Layout{}
}

// Validate 校验位布局，失败时返回包装了 core.ErrInvalidConfig 的错误
func (l Layout) Validate() error {
	if err := layoutValidate.Struct(l); err != nil {
		return fmt.Errorf("%w: layout: %v", core.ErrInvalidConfig, err)
	}

	total := l.DatacenterBits + l.WorkerBits + l.SequenceBits
	if total > maxFieldBits {
		return fmt.Errorf("%w: layout uses %d field bits, 1 sign + %d timestamp bits leave at most %d",
			core.ErrInvalidConfig, total, timestampBits, maxFieldBits)
	}

	return nil
}

// WorkerShift 工作机器ID左移位数
func (l Layout) WorkerShift() uint {
	return uint(l.SequenceBits)
}

// DatacenterShift 数据中心ID左移位数
func (l Layout) DatacenterShift() uint {
	return uint(l.WorkerBits + l.SequenceBits)
}

// TimestampShift 时间戳左移位数
func (l Layout) TimestampShift() uint {
	return uint(l.DatacenterBits + l.WorkerBits + l.SequenceBits)
}

// SequenceMask 序列号掩码 (1 << SequenceBits) - 1
func (l Layout) SequenceMask() int64 {
	return -1 ^ (-1 << l.SequenceBits)
}

// MaxWorkerID 工作机器ID最大值（切记不是个数）
func (l Layout) MaxWorkerID() int64 {
	return -1 ^ (-1 << l.WorkerBits)
}

// MaxDatacenterID 数据中心ID最大值
func (l Layout) MaxDatacenterID() int64 {
	return -1 ^ (-1 << l.DatacenterBits)
}

// MaxTimestampDiff 时间戳字段可表示的最大偏移（毫秒）
func (l Layout) MaxTimestampDiff() int64 {
	return -1 ^ (-1 << (usableBits - l.TimestampShift()))
}

// Encode 把四个字段组装为ID
//
// 纯函数，不做校验：调用方必须保证各字段已在位宽之内。
func (l Layout) Encode(timestamp, datacenterID, workerID, sequence int64) int64 {
	return ((timestamp - l.Epoch) << l.TimestampShift()) |
		(datacenterID << l.DatacenterShift()) |
		(workerID << l.WorkerShift()) |
		sequence
}

// Decode 按位布局拆解ID，Timestamp 为Unix毫秒
func (l Layout) Decode(id int64) core.IDInfo {
	return core.IDInfo{
		ID:           id,
		Timestamp:    (id >> l.TimestampShift()) + l.Epoch,
		DatacenterID: (id >> l.DatacenterShift()) & l.MaxDatacenterID(),
		WorkerID:     (id >> l.WorkerShift()) & l.MaxWorkerID(),
		Sequence:     id & l.SequenceMask(),
	}
}
