package resolver

import (
	"context"
	"time"

	retry "github.com/avast/retry-go/v5"
)

// 默认重试参数
const (
	DefaultRetryAttempts = 3
	DefaultRetryDelay    = 200 * time.Millisecond
)

type retrying struct {
	next     Resolver
	attempts uint
	delay    time.Duration
}

// Retry 在r失败时按指数退避重试，适合依赖网络的策略（Redis、出站地址）
// attempts为0时使用 DefaultRetryAttempts，delay<=0时使用 DefaultRetryDelay
func Retry(r Resolver, attempts uint, delay time.Duration) Resolver {
	if attempts == 0 {
		attempts = DefaultRetryAttempts
	}
	if delay <= 0 {
		delay = DefaultRetryDelay
	}
	return &retrying{next: r, attempts: attempts, delay: delay}
}

// Resolve 实现Resolver接口
func (r *retrying) Resolve(ctx context.Context, maxWorkerID int64) (int64, error) {
	if r.next == nil {
		return 0, unavailable("retry: nil resolver")
	}

	id, err := retry.NewWithData[int64](
		retry.Context(ctx),
		retry.Attempts(r.attempts),
		retry.Delay(r.delay),
		retry.DelayType(retry.BackOffDelay),
		retry.LastErrorOnly(true),
	).Do(func() (int64, error) {
		return r.next.Resolve(ctx, maxWorkerID)
	})
	if err != nil {
		return 0, unavailable("retry: %w", err)
	}
	return id, nil
}
