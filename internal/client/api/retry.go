package api

import (
	"errors"
	"time"
)

const (
	defaultMaxAttempts = 2
	defaultBackoff     = time.Second
)

// RetryPolicy 重试策略：最大尝试次数、可重试判断与退避时长
type RetryPolicy struct {
	MaxAttempts    int
	DefaultBackoff time.Duration
	Retryable      func(err error) bool
}

// DefaultRetryPolicy 仅对 429 重试一次，按 Retry-After 退避
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		MaxAttempts:    defaultMaxAttempts,
		DefaultBackoff: defaultBackoff,
		Retryable:      IsRateLimited,
	}
}

// IsRateLimited 是否为限流错误
func IsRateLimited(err error) bool {
	return errors.Is(err, ErrRateLimited)
}

// ShouldRetry attempts 为已发出的请求次数
func (p RetryPolicy) ShouldRetry(attempts int, err error) bool {
	if err == nil {
		return false
	}
	maxAttempts := p.MaxAttempts
	if maxAttempts <= 0 {
		maxAttempts = defaultMaxAttempts
	}
	if attempts >= maxAttempts {
		return false
	}
	retryable := p.Retryable
	if retryable == nil {
		retryable = IsRateLimited
	}
	return retryable(err)
}

// Backoff 下一次重试前的等待时长
func (p RetryPolicy) Backoff(err error) time.Duration {
	fallback := p.DefaultBackoff
	if fallback <= 0 {
		fallback = defaultBackoff
	}
	var apiErr *APIError
	if errors.As(err, &apiErr) && apiErr.RetryAfter > 0 {
		return apiErr.RetryAfter
	}
	return fallback
}
