package snowflake

import (
	"sync/atomic"
	"time"
)

// Metrics 性能监控指标（nil接收者上的所有方法都是空操作）
type Metrics struct {
	idCount           atomic.Uint64 // 已生成ID总数
	sequenceOverflow  atomic.Uint64 // 序列号耗尽、等待下一毫秒的次数
	clockBackward     atomic.Uint64 // 时钟回拨次数
	timestampOverflow atomic.Uint64 // 时间戳越界次数
	totalWaitTimeNs   atomic.Uint64 // 等待下一毫秒的总耗时（纳秒）
}

// MetricsSnapshot 指标快照（不可变副本）
type MetricsSnapshot struct {
	IDCount           uint64 `json:"id_count"`
	SequenceOverflow  uint64 `json:"sequence_overflow"`
	ClockBackward     uint64 `json:"clock_backward"`
	TimestampOverflow uint64 `json:"timestamp_overflow"`
	TotalWaitTimeNs   uint64 `json:"total_wait_time_ns"`
}

// NewMetrics 创建新的监控指标实例
func NewMetrics() *Metrics {
	return &Metrics{}
}

func (m *Metrics) recordID() {
	if m != nil {
		m.idCount.Add(1)
	}
}

func (m *Metrics) recordWait(d time.Duration) {
	if m != nil {
		m.sequenceOverflow.Add(1)
		m.totalWaitTimeNs.Add(uint64(d.Nanoseconds()))
	}
}

func (m *Metrics) recordClockBackward() {
	if m != nil {
		m.clockBackward.Add(1)
	}
}

func (m *Metrics) recordTimestampOverflow() {
	if m != nil {
		m.timestampOverflow.Add(1)
	}
}

// Reset 重置所有监控指标
func (m *Metrics) Reset() {
	if m == nil {
		return
	}
	m.idCount.Store(0)
	m.sequenceOverflow.Store(0)
	m.clockBackward.Store(0)
	m.timestampOverflow.Store(0)
	m.totalWaitTimeNs.Store(0)
}

// Snapshot 获取当前指标的快照
func (m *Metrics) Snapshot() MetricsSnapshot {
	if m == nil {
		return MetricsSnapshot{}
	}
	return MetricsSnapshot{
		IDCount:           m.idCount.Load(),
		SequenceOverflow:  m.sequenceOverflow.Load(),
		ClockBackward:     m.clockBackward.Load(),
		TimestampOverflow: m.timestampOverflow.Load(),
		TotalWaitTimeNs:   m.totalWaitTimeNs.Load(),
	}
}

// ToMap 转换为map格式（便于序列化和展示）
func (m *Metrics) ToMap() map[string]uint64 {
	if m == nil {
		return map[string]uint64{"metrics_enabled": 0}
	}

	s := m.Snapshot()
	var avgWaitTime uint64
	if s.SequenceOverflow > 0 {
		avgWaitTime = s.TotalWaitTimeNs / s.SequenceOverflow
	}

	return map[string]uint64{
		"metrics_enabled":    1,
		"id_count":           s.IDCount,
		"sequence_overflow":  s.SequenceOverflow,
		"clock_backward":     s.ClockBackward,
		"timestamp_overflow": s.TimestampOverflow,
		"avg_wait_time_ns":   avgWaitTime,
	}
}
