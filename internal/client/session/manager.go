package session

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

const (
	defaultRenewInterval  = 30 * time.Minute
	defaultRenewThreshold = time.Hour
)

// Grant 登录、续期或代登录的签发结果
type Grant struct {
	Token     string
	ExpiresAt time.Time
	User      *Principal
}

// Backend 会话相关的服务端调用，Token 由调用方显式传入
type Backend interface {
	Login(ctx context.Context, email, password string, rememberMe bool) (*Grant, error)
	Refresh(ctx context.Context, token string) (*Grant, error)
	Logout(ctx context.Context, token string) error
	Impersonate(ctx context.Context, token string, targetID uint) (*Grant, error)
}

// retryAfterHinter 限流错误携带的等待时长
type retryAfterHinter interface {
	RetryAfterHint() (time.Duration, bool)
}

// Options 管理器参数
type Options struct {
	Logger         *zap.SugaredLogger
	RenewInterval  time.Duration
	RenewThreshold time.Duration
	Now            func() time.Time
	Sleep          func(ctx context.Context, d time.Duration) error
}

// Manager 客户端会话管理：Token 选择、主动/被动续期、代登录
type Manager struct {
	backend Backend
	store   Store
	log     *zap.SugaredLogger
	now     func() time.Time
	sleep   func(ctx context.Context, d time.Duration) error

	renewInterval  time.Duration
	renewThreshold time.Duration

	renewals singleflight.Group

	mu      sync.Mutex
	state   State
	closed  bool
	started bool
	stop    chan struct{}
	done    chan struct{}
}

// NewManager 创建会话管理器并从 store 恢复状态
func NewManager(backend Backend, store Store, opts Options) (*Manager, error) {
	if backend == nil {
		return nil, errors.New("session backend is required")
	}
	if store == nil {
		store = &MemoryStore{}
	}
	m := &Manager{
		backend:        backend,
		store:          store,
		log:            opts.Logger,
		now:            opts.Now,
		sleep:          opts.Sleep,
		renewInterval:  opts.RenewInterval,
		renewThreshold: opts.RenewThreshold,
		stop:           make(chan struct{}),
		done:           make(chan struct{}),
	}
	if m.log == nil {
		m.log = zap.NewNop().Sugar()
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.sleep == nil {
		m.sleep = sleepContext
	}
	if m.renewInterval <= 0 {
		m.renewInterval = defaultRenewInterval
	}
	if m.renewThreshold <= 0 {
		m.renewThreshold = defaultRenewThreshold
	}

	state, found, err := store.Load()
	if err != nil {
		return nil, fmt.Errorf("load session state: %w", err)
	}
	if found {
		m.state = state
	}
	return m, nil
}

// State 当前状态副本
func (m *Manager) State() State {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.state
}

// TokenFor 按路径选择 Token
func (m *Manager) TokenFor(path string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return "", ErrClosed
	}
	token := SelectToken(path, m.state)
	if token == "" {
		return "", ErrLoggedOut
	}
	return token, nil
}

// Login 登录并保存标准 Token，会清除已有的代登录
func (m *Manager) Login(ctx context.Context, email, password string, rememberMe bool) (*Principal, error) {
	grant, err := m.backend.Login(ctx, strings.TrimSpace(email), password, rememberMe)
	if err != nil {
		return nil, err
	}
	if grant == nil || grant.Token == "" || grant.User == nil {
		return nil, fmt.Errorf("%w: empty login grant", ErrLoggedOut)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	m.state = State{
		StandardToken:     grant.Token,
		StandardExpiresAt: m.grantExpiry(grant),
		Principal:         grant.User,
	}
	m.persistLocked()
	m.log.Infow("session_login", "principal_id", grant.User.ID, "role", grant.User.Role)
	principal := *grant.User
	return &principal, nil
}

// Logout 通知服务端失效会话并清除本地状态，服务端失败不影响本地清除
func (m *Manager) Logout(ctx context.Context) error {
	m.mu.Lock()
	token := m.state.StandardToken
	m.mu.Unlock()

	if token != "" {
		if err := m.backend.Logout(ctx, token); err != nil {
			m.log.Warnw("session_logout_remote_failed", "error", err)
		}
	}
	m.hardLogout("logout")
	return nil
}

// Renew 续期标准 Token，并发调用合并为一次
func (m *Manager) Renew(ctx context.Context) error {
	_, err, _ := m.renewals.Do("renew", func() (interface{}, error) {
		return nil, m.renew(ctx)
	})
	return err
}

func (m *Manager) renew(ctx context.Context) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	token := m.state.StandardToken
	expiresAt := m.state.StandardExpiresAt
	m.mu.Unlock()

	if token == "" {
		return ErrLoggedOut
	}
	if !expiresAt.IsZero() && !m.now().Before(expiresAt) {
		m.hardLogout("standard_token_expired")
		return ErrLoggedOut
	}

	grant, err := m.backend.Refresh(ctx, token)
	if err != nil {
		if wait, ok := retryAfter(err); ok {
			m.log.Infow("session_renew_rate_limited", "retry_after", wait.String())
			if sleepErr := m.sleep(ctx, wait); sleepErr != nil {
				return sleepErr
			}
			grant, err = m.backend.Refresh(ctx, token)
		}
	}
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		m.log.Warnw("session_renew_failed", "error", err)
		m.hardLogout("renew_failed")
		return fmt.Errorf("%w: %w", ErrLoggedOut, err)
	}
	if grant == nil || grant.Token == "" {
		m.hardLogout("renew_empty_grant")
		return fmt.Errorf("%w: empty renew grant", ErrLoggedOut)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if m.state.StandardToken != token {
		return ErrSessionChanged
	}
	m.state.StandardToken = grant.Token
	m.state.StandardExpiresAt = m.grantExpiry(grant)
	m.persistLocked()
	m.log.Infow("session_renewed", "expires_at", m.state.StandardExpiresAt.Format(time.RFC3339))
	return nil
}

// RenewIfNeeded 主动续期：临近过期且未过期时续期，已过期则强制登出
func (m *Manager) RenewIfNeeded(ctx context.Context) error {
	state := m.State()
	if !state.LoggedIn() || state.StandardExpiresAt.IsZero() {
		return nil
	}
	remaining := state.StandardExpiresAt.Sub(m.now())
	if remaining <= 0 {
		m.hardLogout("standard_token_expired")
		return ErrLoggedOut
	}
	if remaining > m.renewThreshold {
		return nil
	}
	return m.Renew(ctx)
}

// HandleUnauthorized 处理 401：代登录 Token 被拒时退出代登录；标准 Token 被拒时续期一次
// 返回 true 表示调用方可以重试
func (m *Manager) HandleUnauthorized(ctx context.Context, usedToken string) (bool, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return false, ErrClosed
	}
	impersonation := m.state.ImpersonationToken
	standard := m.state.StandardToken
	m.mu.Unlock()

	if usedToken != "" && usedToken == impersonation {
		m.dropImpersonation("impersonation_rejected")
		return false, ErrImpersonationEnded
	}
	if standard == "" {
		return false, ErrLoggedOut
	}
	// 其他调用已完成续期
	if usedToken != "" && usedToken != standard {
		return true, nil
	}
	if err := m.Renew(ctx); err != nil {
		return false, err
	}
	return true, nil
}

// StartImpersonation 以管理员身份代登录目标账号
func (m *Manager) StartImpersonation(ctx context.Context, targetID uint) (*Principal, error) {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return nil, ErrClosed
	}
	if !m.state.LoggedIn() {
		m.mu.Unlock()
		return nil, ErrLoggedOut
	}
	if !m.state.IsAdmin() {
		m.mu.Unlock()
		return nil, ErrNotAdmin
	}
	if m.state.Impersonating() {
		m.mu.Unlock()
		return nil, ErrAlreadyImpersonating
	}
	token := m.state.StandardToken
	m.mu.Unlock()

	grant, err := m.backend.Impersonate(ctx, token, targetID)
	if err != nil {
		return nil, err
	}
	if grant == nil {
		return nil, fmt.Errorf("%w: empty grant", ErrInvalidImpersonationToken)
	}
	expiresAt, err := validateImpersonationToken(grant.Token, targetID)
	if err != nil {
		m.log.Warnw("session_impersonation_token_rejected", "target_id", targetID, "error", err)
		return nil, err
	}
	if !grant.ExpiresAt.IsZero() {
		expiresAt = grant.ExpiresAt
	}
	target := grant.User
	if target == nil {
		target = &Principal{ID: targetID}
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil, ErrClosed
	}
	if m.state.StandardToken != token || m.state.Impersonating() {
		return nil, ErrSessionChanged
	}
	m.state.ImpersonationToken = grant.Token
	m.state.ImpersonationExpiresAt = expiresAt
	m.state.Impersonated = target
	m.persistLocked()
	m.log.Infow("session_impersonation_started", "target_id", targetID, "admin_id", m.state.Principal.ID)
	principal := *target
	return &principal, nil
}

// StopImpersonation 退出代登录，恢复管理员身份
func (m *Manager) StopImpersonation() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return ErrClosed
	}
	if !m.state.Impersonating() {
		return ErrNotImpersonating
	}
	m.clearImpersonationLocked()
	m.persistLocked()
	m.log.Infow("session_impersonation_stopped")
	return nil
}

// Start 启动主动续期循环
func (m *Manager) Start(ctx context.Context) {
	m.mu.Lock()
	if m.closed || m.started {
		m.mu.Unlock()
		return
	}
	m.started = true
	m.mu.Unlock()

	go func() {
		defer close(m.done)
		ticker := time.NewTicker(m.renewInterval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-m.stop:
				return
			case <-ticker.C:
				if err := m.RenewIfNeeded(ctx); err != nil {
					m.log.Warnw("session_proactive_renew_failed", "error", err)
				}
			}
		}
	}()
}

// Close 停止续期循环，之后的状态变更全部丢弃
func (m *Manager) Close() {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return
	}
	m.closed = true
	started := m.started
	close(m.stop)
	m.mu.Unlock()

	if started {
		<-m.done
	}
}

func (m *Manager) hardLogout(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return
	}
	m.state = State{}
	if err := m.store.Clear(); err != nil {
		m.log.Warnw("session_store_clear_failed", "error", err)
	}
	m.log.Infow("session_cleared", "reason", reason)
}

func (m *Manager) dropImpersonation(reason string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed || !m.state.Impersonating() {
		return
	}
	m.clearImpersonationLocked()
	m.persistLocked()
	m.log.Infow("session_impersonation_dropped", "reason", reason)
}

func (m *Manager) clearImpersonationLocked() {
	m.state.ImpersonationToken = ""
	m.state.ImpersonationExpiresAt = time.Time{}
	m.state.Impersonated = nil
}

func (m *Manager) persistLocked() {
	var err error
	if m.state.LoggedIn() {
		err = m.store.Save(m.state)
	} else {
		err = m.store.Clear()
	}
	if err != nil {
		m.log.Warnw("session_store_save_failed", "error", err)
	}
}

func (m *Manager) grantExpiry(grant *Grant) time.Time {
	if !grant.ExpiresAt.IsZero() {
		return grant.ExpiresAt
	}
	expiresAt, err := TokenExpiry(grant.Token)
	if err != nil {
		return time.Time{}
	}
	return expiresAt
}

func validateImpersonationToken(token string, targetID uint) (time.Time, error) {
	if strings.TrimSpace(token) == "" {
		return time.Time{}, fmt.Errorf("%w: empty token", ErrInvalidImpersonationToken)
	}
	claims, err := parseUnverified(token)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %v", ErrInvalidImpersonationToken, err)
	}
	if !claims.IsImpersonation {
		return time.Time{}, fmt.Errorf("%w: not an impersonation token", ErrInvalidImpersonationToken)
	}
	if claims.Subject != strconv.FormatUint(uint64(targetID), 10) {
		return time.Time{}, fmt.Errorf("%w: subject mismatch", ErrInvalidImpersonationToken)
	}
	if claims.ExpiresAt == nil {
		return time.Time{}, nil
	}
	return claims.ExpiresAt.Time, nil
}

func retryAfter(err error) (time.Duration, bool) {
	var hinter retryAfterHinter
	if !errors.As(err, &hinter) {
		return 0, false
	}
	return hinter.RetryAfterHint()
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
