package snowflake

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.uber.org/zap"

	"katydid-snowflake/pkg/idgen/core"
	"katydid-snowflake/pkg/idgen/resolver"
)

// Generator Snowflake算法的ID生成器实现
type Generator struct {
	// ========== 核心状态（受mu保护，必须整体更新） ==========
	mu            sync.Mutex
	lastTimestamp int64 // 上次成功生成ID的时间戳（Unix毫秒），初始为0
	sequence      int64 // 当前毫秒内的序列号

	// ========== 构造后不变 ==========
	datacenterID     int64
	workerID         int64
	layout           Layout
	sequenceMask     int64
	maxTimestampDiff int64
	clock            Clock

	// ========== 监控和工具 ==========
	logger  *zap.Logger
	metrics *Metrics // 性能监控指标（可选，nil时不收集）
	parser  *Parser
}

// New 使用默认位布局创建生成器
// 说明：参数顺序为 (workerID, datacenterID)，任一ID超出位宽时返回 core.ErrInvalidConfig
func New(workerID, datacenterID int64) (*Generator, error) {
	return NewWithConfig(&Config{
		DatacenterID: datacenterID,
		WorkerID:     workerID,
	})
}

// NewWithConfig 使用配置创建生成器
func NewWithConfig(config *Config) (*Generator, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, core.ErrNilConfig)
	}

	cfg := config.Clone()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	cfg.SetDefaults()

	var metrics *Metrics
	if cfg.EnableMetrics {
		metrics = NewMetrics()
	}

	g := &Generator{
		datacenterID:     cfg.DatacenterID,
		workerID:         cfg.WorkerID,
		layout:           cfg.Layout,
		sequenceMask:     cfg.Layout.SequenceMask(),
		maxTimestampDiff: cfg.Layout.MaxTimestampDiff(),
		clock:            cfg.Clock,
		logger:           cfg.Logger,
		metrics:          metrics,
		parser:           NewParser(cfg.Layout, cfg.Clock),
	}

	g.logger.Info("snowflake generator created",
		zap.Int64("datacenter_id", g.datacenterID),
		zap.Int64("worker_id", g.workerID),
		zap.Int64("epoch", g.layout.Epoch),
		zap.Int("datacenter_bits", g.layout.DatacenterBits),
		zap.Int("worker_bits", g.layout.WorkerBits),
		zap.Int("sequence_bits", g.layout.SequenceBits),
		zap.Bool("metrics_enabled", metrics != nil))

	return g, nil
}

// NewFromEnvironment 通过解析器获取工作机器ID并使用默认位布局创建生成器
// 说明：r为nil时使用 resolver.Default()；解析失败返回 core.ErrWorkerIDUnavailable，不会panic
func NewFromEnvironment(ctx context.Context, datacenterID int64, r resolver.Resolver) (*Generator, error) {
	return NewFromEnvironmentWithConfig(ctx, &Config{DatacenterID: datacenterID}, r)
}

// NewFromEnvironmentWithConfig 同 NewFromEnvironment，config.WorkerID 会被解析结果覆盖
func NewFromEnvironmentWithConfig(ctx context.Context, config *Config, r resolver.Resolver) (*Generator, error) {
	if config == nil {
		return nil, fmt.Errorf("%w: %w", core.ErrInvalidConfig, core.ErrNilConfig)
	}
	if r == nil {
		r = resolver.Default()
	}

	cfg := config.Clone()
	layout := cfg.Layout
	if layout.IsZero() {
		layout = DefaultLayout
	}
	if err := layout.Validate(); err != nil {
		return nil, err
	}

	workerID, err := r.Resolve(ctx, layout.MaxWorkerID())
	if err != nil {
		if errors.Is(err, core.ErrWorkerIDUnavailable) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %w", core.ErrWorkerIDUnavailable, err)
	}
	cfg.WorkerID = workerID

	return NewWithConfig(cfg)
}

// NextID 生成下一个唯一ID（线程安全）
//
// 时钟回拨时返回 *core.ClockMovedBackwardsError，生成器状态保持不变；
// 同一毫秒内序列号耗尽时忙等到下一毫秒，这不是错误。
func (g *Generator) NextID() (int64, error) {
	g.mu.Lock()
	defer g.mu.Unlock()

	return g.nextIDLocked()
}

// NextIDBatch 批量生成ID（一次加锁，可跨毫秒）
// 说明：中途失败时返回已生成的ID和错误，已生成的ID仍然有效且唯一
func (g *Generator) NextIDBatch(n int) ([]int64, error) {
	if n <= 0 {
		return nil, fmt.Errorf("%w: batch size must be positive, got %d",
			core.ErrInvalidBatchSize, n)
	}
	if n > maxBatchSize {
		return nil, fmt.Errorf("%w: batch size too large (max %d), got %d",
			core.ErrInvalidBatchSize, maxBatchSize, n)
	}

	g.mu.Lock()
	defer g.mu.Unlock()

	ids := make([]int64, 0, n)
	for len(ids) < n {
		id, err := g.nextIDLocked()
		if err != nil {
			return ids, fmt.Errorf("%w (generated %d/%d IDs)", err, len(ids), n)
		}
		ids = append(ids, id)
	}
	return ids, nil
}

// nextIDLocked 状态转移：读时钟 → 判断 → 提交，调用者必须持有mu
//
// 新的 (timestamp, sequence) 先算到局部变量里，所有检查通过后才写回，
// 因此任何失败路径都不会修改生成器状态。
func (g *Generator) nextIDLocked() (int64, error) {
	now := g.clock.NowMillis()

	if now < g.lastTimestamp {
		g.metrics.recordClockBackward()
		g.logger.Warn("clock moved backwards, refusing to generate id",
			zap.Int64("last_timestamp", g.lastTimestamp),
			zap.Int64("current_timestamp", now))
		return 0, &core.ClockMovedBackwardsError{LastTimestamp: g.lastTimestamp, Now: now}
	}

	var sequence int64
	if now == g.lastTimestamp {
		sequence = (g.sequence + 1) & g.sequenceMask
		if sequence == 0 {
			start := time.Now()
			now = g.waitNextMillis(g.lastTimestamp)
			g.metrics.recordWait(time.Since(start))
			g.logger.Debug("sequence exhausted, waited for next millisecond",
				zap.Int64("last_timestamp", g.lastTimestamp),
				zap.Int64("current_timestamp", now))
		}
	}

	if diff := now - g.layout.Epoch; diff < 0 || diff > g.maxTimestampDiff {
		g.metrics.recordTimestampOverflow()
		return 0, fmt.Errorf("%w: timestamp %d, epoch %d, max offset %d",
			core.ErrTimestampOverflow, now, g.layout.Epoch, g.maxTimestampDiff)
	}

	g.lastTimestamp = now
	g.sequence = sequence
	g.metrics.recordID()

	return g.layout.Encode(now, g.datacenterID, g.workerID, sequence), nil
}

// waitNextMillis 忙等直到时钟越过lastTimestamp
// 说明：紧凑轮询，不休眠、无超时，持续时间受真实时间推进约束（通常不足1毫秒）
func (g *Generator) waitNextMillis(lastTimestamp int64) int64 {
	timestamp := g.clock.NowMillis()
	for timestamp <= lastTimestamp {
		timestamp = g.clock.NowMillis()
	}
	return timestamp
}

// WorkerID 获取工作机器ID
func (g *Generator) WorkerID() int64 {
	return g.workerID
}

// DatacenterID 获取数据中心ID
func (g *Generator) DatacenterID() int64 {
	return g.datacenterID
}

// Layout 获取位布局
func (g *Generator) Layout() Layout {
	return g.layout
}

// LastTimestamp 上次成功生成ID的时间戳（Unix毫秒）
func (g *Generator) LastTimestamp() int64 {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.lastTimestamp
}

// Metrics 获取性能监控指标
func (g *Generator) Metrics() map[string]uint64 {
	return g.metrics.ToMap()
}

// MetricsSnapshot 获取指标快照，未启用监控时为零值
func (g *Generator) MetricsSnapshot() MetricsSnapshot {
	return g.metrics.Snapshot()
}

// ResetMetrics 重置性能监控指标
func (g *Generator) ResetMetrics() {
	g.metrics.Reset()
}

// ParseID 按本生成器的位布局解析ID
func (g *Generator) ParseID(id int64) (*core.IDInfo, error) {
	return g.parser.Parse(id)
}
