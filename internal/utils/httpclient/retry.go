package httpclient

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// RetryPolicy 显式重试策略：HTTP抓取与入库共用一套，
// 不在各调用点重复实现退避循环。
type RetryPolicy struct {
	MaxAttempts int                             // 最大尝试次数（含首次）
	Backoff     func(attempt int) time.Duration // 第attempt次失败后的等待时长（attempt从1起）
}

// DefaultPolicy 指数退避：1s、2s、4s…
func DefaultPolicy(maxAttempts int) RetryPolicy {
	if maxAttempts <= 0 {
		maxAttempts = 3
	}
	return RetryPolicy{
		MaxAttempts: maxAttempts,
		Backoff: func(attempt int) time.Duration {
			return time.Duration(1<<(attempt-1)) * time.Second
		},
	}
}

// WithRetry 按策略重试operation，ctx取消时立即停止。
// 返回最后一次的错误（全部失败时）。
func WithRetry(ctx context.Context, logger *logrus.Logger, name string, policy RetryPolicy, operation func() error) error {
	var lastErr error
	for attempt := 1; attempt <= policy.MaxAttempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		if attempt == policy.MaxAttempts {
			break
		}
		wait := policy.Backoff(attempt)
		logger.WithError(lastErr).WithFields(logrus.Fields{
			"op":      name,
			"attempt": attempt,
			"wait":    wait.String(),
		}).Warn("操作失败，等待重试")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(wait):
		}
	}
	return fmt.Errorf("%s重试%d次后仍失败: %w", name, policy.MaxAttempts, lastErr)
}
