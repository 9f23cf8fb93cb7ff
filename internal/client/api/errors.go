package api

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrRequestFailed 请求未能完成（网络、超时等）
	ErrRequestFailed = errors.New("api request failed")
	// ErrResponseInvalid 响应无法解析
	ErrResponseInvalid = errors.New("api response invalid")
	// ErrRateLimited 服务端限流（429）
	ErrRateLimited = errors.New("api rate limited")
	// ErrUnauthorized 凭证无效（401）
	ErrUnauthorized = errors.New("api unauthorized")
	// ErrForbidden 无权限（403）
	ErrForbidden = errors.New("api forbidden")
	// ErrNotFound 资源不存在（404）
	ErrNotFound = errors.New("api not found")
)

// APIError 服务端返回的错误
type APIError struct {
	Status     int
	Code       string
	Message    string
	RequestID  string
	RetryAfter time.Duration
}

func (e *APIError) Error() string {
	if e == nil {
		return "<nil>"
	}
	msg := fmt.Sprintf("api error %d %s", e.Status, e.Code)
	if e.Message != "" {
		msg += ": " + e.Message
	}
	if e.RequestID != "" {
		msg += " (request_id=" + e.RequestID + ")"
	}
	return msg
}

// Is 按 HTTP 状态匹配哨兵错误
func (e *APIError) Is(target error) bool {
	if e == nil {
		return false
	}
	switch target {
	case ErrRateLimited:
		return e.Status == http.StatusTooManyRequests
	case ErrUnauthorized:
		return e.Status == http.StatusUnauthorized
	case ErrForbidden:
		return e.Status == http.StatusForbidden
	case ErrNotFound:
		return e.Status == http.StatusNotFound
	}
	return false
}

// RetryAfterHint 限流时建议的等待时长，缺省 1 秒
func (e *APIError) RetryAfterHint() (time.Duration, bool) {
	if e == nil || e.Status != http.StatusTooManyRequests {
		return 0, false
	}
	if e.RetryAfter <= 0 {
		return defaultBackoff, true
	}
	return e.RetryAfter, true
}

// parseRetryAfter 解析 Retry-After（秒数或 HTTP 日期）
func parseRetryAfter(value string, now time.Time) time.Duration {
	value = strings.TrimSpace(value)
	if value == "" {
		return 0
	}
	if seconds, err := strconv.Atoi(value); err == nil {
		if seconds <= 0 {
			return 0
		}
		return time.Duration(seconds) * time.Second
	}
	if at, err := http.ParseTime(value); err == nil {
		if wait := at.Sub(now); wait > 0 {
			return wait
		}
	}
	return 0
}
