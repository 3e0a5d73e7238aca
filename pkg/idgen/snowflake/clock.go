package snowflake

import "time"

// Clock 时钟源，返回当前时间距Unix纪元的毫秒数
//
// 时钟只需和操作系统时钟一样单调，回拨检测由 Generator 负责。
type Clock interface {
	NowMillis() int64
}

// ClockFunc 函数适配器
type ClockFunc func() int64

// NowMillis 实现Clock接口
func (f ClockFunc) NowMillis() int64 {
	return f()
}

type systemClock struct{}

func (systemClock) NowMillis() int64 {
	return time.Now().UnixMilli()
}

// SystemClock 基于 time.Now 的系统时钟
var SystemClock Clock = systemClock{}
