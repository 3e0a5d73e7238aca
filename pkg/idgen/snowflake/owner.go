package snowflake

import (
	"context"
	"sync"

	"go.uber.org/zap"

	"katydid-snowflake/pkg/idgen/core"
)

// Owner 单所有者模式：一个goroutine独占Generator，通过channel串行处理请求
//
// 调用方在排队和等待结果期间都可以通过context取消，
// 序列号耗尽时的忙等只占用owner协程，不会阻塞调用方的其他工作。
// 被取消的请求若已进入处理，生成的ID会被丢弃（ID不要求连续）。
type Owner struct {
	gen      *Generator
	logger   *zap.Logger
	requests chan ownerRequest
	quit     chan struct{}
	done     chan struct{}

	closeOnce sync.Once
}

type ownerRequest struct {
	n     int
	reply chan ownerResult // 缓冲为1，owner写入永不阻塞
}

type ownerResult struct {
	ids []int64
	err error
}

// NewOwner 启动owner协程，queueSize为请求队列长度（<0按0处理）
func NewOwner(gen *Generator, queueSize int) *Owner {
	if queueSize < 0 {
		queueSize = 0
	}
	o := &Owner{
		gen:      gen,
		logger:   gen.logger,
		requests: make(chan ownerRequest, queueSize),
		quit:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	go o.loop()
	return o
}

func (o *Owner) loop() {
	defer close(o.done)
	for {
		select {
		case <-o.quit:
			return
		case req := <-o.requests:
			var res ownerResult
			if req.n == 1 {
				id, err := o.gen.NextID()
				if err == nil {
					res.ids = []int64{id}
				}
				res.err = err
			} else {
				res.ids, res.err = o.gen.NextIDBatch(req.n)
			}
			req.reply <- res
		}
	}
}

// Next 生成一个ID
func (o *Owner) Next(ctx context.Context) (int64, error) {
	ids, err := o.NextBatch(ctx, 1)
	if err != nil {
		return 0, err
	}
	return ids[0], nil
}

// NextBatch 生成n个ID，语义同 Generator.NextIDBatch
func (o *Owner) NextBatch(ctx context.Context, n int) ([]int64, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	req := ownerRequest{n: n, reply: make(chan ownerResult, 1)}
	select {
	case o.requests <- req:
	case <-o.quit:
		return nil, core.ErrOwnerClosed
	case <-ctx.Done():
		return nil, ctx.Err()
	}

	select {
	case res := <-req.reply:
		return res.ids, res.err
	case <-o.done:
		// owner退出前可能刚好处理完本请求
		select {
		case res := <-req.reply:
			return res.ids, res.err
		default:
			return nil, core.ErrOwnerClosed
		}
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Generator 返回被托管的生成器
func (o *Owner) Generator() *Generator {
	return o.gen
}

// Close 停止owner协程并等待其退出，可重复调用
// 说明：已入队但未处理的请求返回 core.ErrOwnerClosed
func (o *Owner) Close() {
	o.closeOnce.Do(func() {
		close(o.quit)
		<-o.done
		o.logger.Info("snowflake owner stopped",
			zap.Int64("datacenter_id", o.gen.DatacenterID()),
			zap.Int64("worker_id", o.gen.WorkerID()))
	})
}
