package response

import "net/http"

// HTTP 状态码
const (
	CodeOK              = 0
	CodeBadRequest      = http.StatusBadRequest
	CodeUnauthorized    = http.StatusUnauthorized
	CodeForbidden       = http.StatusForbidden
	CodeNotFound        = http.StatusNotFound
	CodeTooManyRequests = http.StatusTooManyRequests
	CodeInternal        = http.StatusInternalServerError
)

// 错误标识（响应体 error 字段，客户端据此分类处理）
const (
	ErrBadRequest                 = "bad_request"
	ErrInvalidCredential          = "invalid_credential"
	ErrCredentialExpired          = "credential_expired"
	ErrSessionInvalid             = "session_invalid"
	ErrPrincipalInactive          = "principal_inactive"
	ErrImpersonationTargetInvalid = "impersonation_target_invalid"
	ErrInsufficientPermissions    = "insufficient_permissions"
	ErrAccessDenied               = "access_denied"
	ErrUnknownMetric              = "unknown_metric"
	ErrRateLimited                = "rate_limited"
	ErrNotFound                   = "not_found"
	ErrInternal                   = "internal"
)
