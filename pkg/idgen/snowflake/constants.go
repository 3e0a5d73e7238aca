package snowflake

const (
	// DefaultEpoch 默认起始时间戳 (2018-01-01 00:00:00 UTC)，毫秒
	DefaultEpoch int64 = 1514736000000

	// 默认位数分配
	DefaultDatacenterIDBits = 5  // 数据中心ID位数
	DefaultWorkerIDBits     = 5  // 工作机器ID位数
	DefaultSequenceBits     = 12 // 序列号位数

	// timestampBits 时间戳至少保留的位数
	timestampBits = 41

	// usableBits 可用位数（最高位为符号位，恒为0）
	usableBits = 63

	// maxFieldBits 数据中心、工作机器、序列号三者位数之和的上限
	maxFieldBits = usableBits - timestampBits // 22

	// 批量生成最大数量（支持跨毫秒生成）
	maxBatchSize = 100_000

	// 允许的未来时间容差（毫秒）
	maxFutureTimeTolerance = 60 * 1000 // 1分钟
)

// DefaultLayout 默认位布局：41位时间戳 | 5位数据中心 | 5位工作机器 | 12位序列号
var DefaultLayout = Layout{
	Epoch:          DefaultEpoch,
	DatacenterBits: DefaultDatacenterIDBits,
	WorkerBits:     DefaultWorkerIDBits,
	SequenceBits:   DefaultSequenceBits,
}
