package snowflake

import (
	"fmt"
	"time"

	"katydid-snowflake/pkg/idgen/core"
)

// Parser Snowflake ID解析器
type Parser struct {
	layout    Layout
	validator core.IIDValidator // 解析前验证ID有效性
}

// NewParser 创建新的解析器实例
func NewParser(layout Layout, clock Clock) *Parser {
	return &Parser{
		layout:    layout,
		validator: NewValidator(layout, clock),
	}
}

// Parse 解析Snowflake ID，提取完整的元信息
// 实现core.IIDParser接口
func (p *Parser) Parse(id int64) (*core.IDInfo, error) {
	if err := p.validator.Validate(id); err != nil {
		return nil, err
	}

	info := p.layout.Decode(id)
	return &info, nil
}

// ExtractTime 从ID中提取生成时间，无效ID返回零值时间
func (p *Parser) ExtractTime(id int64) time.Time {
	if id <= 0 {
		return time.Time{}
	}
	return time.UnixMilli(p.layout.Decode(id).Timestamp)
}

// ParseSnowflakeID 使用默认位布局解析ID（不做有效性校验）
func ParseSnowflakeID(id int64) (timestamp, datacenterID, workerID, sequence int64) {
	info := DefaultLayout.Decode(id)
	return info.Timestamp, info.DatacenterID, info.WorkerID, info.Sequence
}

// GetTimestamp 使用默认位布局提取ID的生成时间
func GetTimestamp(id int64) time.Time {
	return NewParser(DefaultLayout, SystemClock).ExtractTime(id)
}

// String 以 "ts-dc-worker-seq" 形式展示ID的组成，便于日志排查
func (p *Parser) String(id int64) string {
	info := p.layout.Decode(id)
	return fmt.Sprintf("%d-%d-%d-%d", info.Timestamp, info.DatacenterID, info.WorkerID, info.Sequence)
}
