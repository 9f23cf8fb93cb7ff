package session

import "errors"

var (
	// ErrLoggedOut 本地无可用会话（未登录或已被强制登出）
	ErrLoggedOut = errors.New("session logged out")
	// ErrClosed 管理器已关闭
	ErrClosed = errors.New("session manager closed")
	// ErrNotAdmin 当前身份不是管理员
	ErrNotAdmin = errors.New("current principal is not an admin")
	// ErrAlreadyImpersonating 已处于代登录状态
	ErrAlreadyImpersonating = errors.New("impersonation already active")
	// ErrNotImpersonating 当前未代登录
	ErrNotImpersonating = errors.New("impersonation not active")
	// ErrInvalidImpersonationToken 服务端返回的代登录 Token 校验失败
	ErrInvalidImpersonationToken = errors.New("invalid impersonation token")
	// ErrImpersonationEnded 代登录 Token 被服务端拒绝，已退出代登录
	ErrImpersonationEnded = errors.New("impersonation ended")
	// ErrSessionChanged 请求期间会话已变化，本次结果被丢弃
	ErrSessionChanged = errors.New("session changed during request")
)
