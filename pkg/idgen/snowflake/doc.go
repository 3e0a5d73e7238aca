// Package snowflake 实现 Snowflake 分布式ID生成算法。
//
// 每个ID是一个63位正整数（最高位恒为0），由时间戳偏移、数据中心ID、
// 工作机器ID和毫秒内序列号组成。默认位布局（DefaultLayout）是对外的
// 兼容性契约，已发放的ID依赖它解码，不可修改：
//
//	 63 | 62 ............ 22 | 21 ... 17 | 16 ... 12 | 11 ...... 0
//	  0 | 距Epoch毫秒数(41)  | 数据中心(5) | 工作机器(5) | 序列号(12)
//
//	Epoch = 1514736000000 (2018-01-01T00:00:00Z)
//
// 解码方式：
//
//	timestamp    = (id >> 22) + Epoch
//	datacenterID = (id >> 17) & 0x1F
//	workerID     = (id >> 12) & 0x1F
//	sequence     = id & 0xFFF
//
// 并发模型：Generator 用一把互斥锁保护 (lastTimestamp, sequence) 整体，
// 可在多个goroutine间共享。需要按请求取消等待时使用 Owner，
// 它由单个goroutine独占生成器并通过channel串行处理请求。
//
// 全局唯一性依赖于同时运行的生成器不共享 (datacenterID, workerID) 组合，
// 这是部署层面的前提，本包不做跨进程检查。
package snowflake
