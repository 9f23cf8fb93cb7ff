package worker

import (
	"context"
	"errors"
	"time"

	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/repository"
)

const defaultSweepInterval = 10 * time.Minute

// SessionSweeper 定期将过期会话标记为失效
type SessionSweeper struct {
	sessions repository.SessionRepository
	interval time.Duration
	now      func() time.Time
	stop     chan struct{}
	done     chan struct{}
}

// NewSessionSweeper 创建会话清理服务，interval 非正时使用默认间隔
func NewSessionSweeper(sessions repository.SessionRepository, interval time.Duration) *SessionSweeper {
	if interval <= 0 {
		interval = defaultSweepInterval
	}
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		now:      time.Now,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Name 服务名称
func (s *SessionSweeper) Name() string {
	return "session_sweeper"
}

// Start 启动清理循环，直到 ctx 取消或 Stop 被调用
func (s *SessionSweeper) Start(ctx context.Context) error {
	if s == nil {
		return errors.New("session sweeper not initialized")
	}
	defer close(s.done)
	if s.sessions == nil {
		return errors.New("session repository is nil")
	}

	s.RunOnce(ctx)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.stop:
			return nil
		case <-ticker.C:
			s.RunOnce(ctx)
		}
	}
}

// Stop 停止清理循环
func (s *SessionSweeper) Stop(ctx context.Context) error {
	if s == nil {
		return nil
	}
	select {
	case <-s.stop:
	default:
		close(s.stop)
	}
	select {
	case <-s.done:
	case <-ctx.Done():
		return ctx.Err()
	}
	return nil
}

// RunOnce 执行一次清理，返回失效的会话数
func (s *SessionSweeper) RunOnce(ctx context.Context) int64 {
	affected, err := s.sessions.DeactivateExpired(ctx, s.now())
	if err != nil {
		logger.Warnw("worker_session_sweep_failed", "error", err)
		return 0
	}
	if affected > 0 {
		logger.Infow("worker_session_sweep_done", "deactivated", affected)
	}
	return affected
}
