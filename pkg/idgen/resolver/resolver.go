// Package resolver 提供工作机器ID的解析能力。
//
// 解析是有副作用的环境探测（环境变量、网络地址、主机名、Redis），
// 因此抽象为可注入的 Resolver 接口，所有失败都以包装了
// core.ErrWorkerIDUnavailable 的错误返回，绝不终止进程。
package resolver

import (
	"context"
	"errors"
	"fmt"

	"katydid-snowflake/pkg/idgen/core"
)

// Resolver 工作机器ID解析器
type Resolver interface {
	// Resolve 返回 [0, maxWorkerID] 范围内的工作机器ID
	Resolve(ctx context.Context, maxWorkerID int64) (int64, error)
}

// Func 函数适配器
type Func func(ctx context.Context, maxWorkerID int64) (int64, error)

// Resolve 实现Resolver接口
func (f Func) Resolve(ctx context.Context, maxWorkerID int64) (int64, error) {
	return f(ctx, maxWorkerID)
}

// Static 固定的工作机器ID，适用于显式分配和测试
type Static int64

// Resolve 实现Resolver接口
func (s Static) Resolve(_ context.Context, maxWorkerID int64) (int64, error) {
	return checkRange("static", int64(s), maxWorkerID)
}

// chain 依次尝试多个解析器
type chain []Resolver

// Chain 依次尝试各解析器，第一个成功的结果生效，全部失败时聚合所有错误
func Chain(resolvers ...Resolver) Resolver {
	return chain(resolvers)
}

// Resolve 实现Resolver接口
func (c chain) Resolve(ctx context.Context, maxWorkerID int64) (int64, error) {
	errs := make([]error, 0, len(c))
	for _, r := range c {
		if r == nil {
			continue
		}
		if err := ctx.Err(); err != nil {
			return 0, unavailable("chain: %w", err)
		}
		id, err := r.Resolve(ctx, maxWorkerID)
		if err == nil {
			return id, nil
		}
		errs = append(errs, err)
	}
	if len(errs) == 0 {
		return 0, unavailable("chain: no resolvers configured")
	}
	return 0, unavailable("all strategies failed: %w", errors.Join(errs...))
}

// Default 默认解析策略：
//
//  1. IDGEN_WORKER_ID 环境变量
//  2. 出站网络地址（向 DefaultProbeAddr 建立UDP"连接"，不发送数据）的低位
//  3. 私有IPv4地址的低位
func Default() Resolver {
	return Chain(
		Env(EnvWorkerID),
		OutboundIP(DefaultProbeAddr),
		PrivateIP(),
	)
}

// unavailable 构造包装了 core.ErrWorkerIDUnavailable 的错误
func unavailable(format string, args ...any) error {
	return fmt.Errorf("%w: "+format, append([]any{core.ErrWorkerIDUnavailable}, args...)...)
}

// checkRange 校验显式给出的ID是否在范围内
func checkRange(source string, id, maxWorkerID int64) (int64, error) {
	if id < 0 || id > maxWorkerID {
		return 0, unavailable("%s: worker id %d outside [0, %d]", source, id, maxWorkerID)
	}
	return id, nil
}

// lowBits 把任意非负值折叠进 [0, maxWorkerID]
// 说明：maxWorkerID 总是 2^n-1，按位与即取低n位
func lowBits(v uint64, maxWorkerID int64) int64 {
	if maxWorkerID <= 0 {
		return 0
	}
	return int64(v & uint64(maxWorkerID))
}

// errNoPrivateAddress 没有可用的私有IPv4地址
var errNoPrivateAddress = errors.New("no private IPv4 address found")
