package shared

import (
	"errors"
	"strings"

	"github.com/techphorix/w-store-sub004/internal/http/response"
	"github.com/techphorix/w-store-sub004/internal/i18n"
	"github.com/techphorix/w-store-sub004/internal/logger"
	"github.com/techphorix/w-store-sub004/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RequestLog 提供携带 request_id 的日志实例。
func RequestLog(c *gin.Context) *zap.SugaredLogger {
	if c == nil {
		return logger.S()
	}
	if requestID, ok := c.Get(response.RequestIDKey); ok {
		if id, ok := requestID.(string); ok && id != "" {
			return logger.SW("request_id", id)
		}
	}
	return logger.S()
}

// RespondError 返回国际化错误响应，并在有原始错误时记录日志。
func RespondError(c *gin.Context, status int, code, key string, err error, args ...interface{}) {
	locale := i18n.ResolveLocale(c)
	msg := i18n.T(locale, key)
	if len(args) > 0 && strings.Contains(msg, "%") {
		msg = i18n.Sprintf(locale, key, args...)
	}
	appErr := response.WrapError(status, code, msg, err)
	if err != nil {
		RequestLog(c).Errorw("handler_error",
			"status", appErr.Status,
			"code", appErr.Code,
			"message", appErr.Message,
			"error", err,
		)
	}
	response.Error(c, appErr.Status, appErr.Code, appErr.Message)
}

// ErrorRule 业务错误到接口错误响应的映射关系。
type ErrorRule struct {
	Target error
	Status int
	Code   string
	Key    string
}

// AuthErrorRules 认证类错误统一返回 401，客户端据此触发一次续期重试
var AuthErrorRules = []ErrorRule{
	{Target: service.ErrInvalidCredential, Status: response.CodeUnauthorized, Code: response.ErrInvalidCredential, Key: "error.invalid_credential"},
	{Target: service.ErrCredentialExpired, Status: response.CodeUnauthorized, Code: response.ErrCredentialExpired, Key: "error.credential_expired"},
	{Target: service.ErrSessionInvalid, Status: response.CodeUnauthorized, Code: response.ErrSessionInvalid, Key: "error.session_invalid"},
	{Target: service.ErrPrincipalInactive, Status: response.CodeUnauthorized, Code: response.ErrPrincipalInactive, Key: "error.principal_inactive"},
	{Target: service.ErrImpersonationTargetInvalid, Status: response.CodeUnauthorized, Code: response.ErrImpersonationTargetInvalid, Key: "error.impersonation_target_invalid"},
}

// AccessErrorRules 授权类错误统一返回 403，不重试
var AccessErrorRules = []ErrorRule{
	{Target: service.ErrInsufficientPermissions, Status: response.CodeForbidden, Code: response.ErrInsufficientPermissions, Key: "error.insufficient_permissions"},
	{Target: service.ErrAccessDenied, Status: response.CodeForbidden, Code: response.ErrAccessDenied, Key: "error.access_denied"},
	{Target: service.ErrNotImpersonable, Status: response.CodeForbidden, Code: response.ErrInsufficientPermissions, Key: "error.not_impersonable"},
}

// DomainErrorRules 业务校验与资源类错误
var DomainErrorRules = []ErrorRule{
	{Target: service.ErrInvalidLogin, Status: response.CodeUnauthorized, Code: response.ErrInvalidCredential, Key: "error.login_failed"},
	{Target: service.ErrUnknownMetric, Status: response.CodeBadRequest, Code: response.ErrUnknownMetric, Key: "error.unknown_metric"},
	{Target: service.ErrInvalidStatus, Status: response.CodeBadRequest, Code: response.ErrBadRequest, Key: "error.invalid_status"},
	{Target: service.ErrSellerNotFound, Status: response.CodeNotFound, Code: response.ErrNotFound, Key: "error.seller_not_found"},
	{Target: service.ErrNotFound, Status: response.CodeNotFound, Code: response.ErrNotFound, Key: "error.not_found"},
}

var serviceErrorRules = concatErrorRules(AuthErrorRules, AccessErrorRules, DomainErrorRules)

// RespondServiceError 按映射表输出业务错误，未命中时返回 500 并记录原始错误。
func RespondServiceError(c *gin.Context, err error, args ...interface{}) {
	if rule, ok := MatchErrorRule(err); ok {
		RespondError(c, rule.Status, rule.Code, rule.Key, nil, args...)
		return
	}
	RespondError(c, response.CodeInternal, response.ErrInternal, "error.internal", err)
}

// MatchErrorRule 查找业务错误对应的响应规则
func MatchErrorRule(err error) (ErrorRule, bool) {
	if err == nil {
		return ErrorRule{}, false
	}
	for _, rule := range serviceErrorRules {
		if errors.Is(err, rule.Target) {
			return rule, true
		}
	}
	return ErrorRule{}, false
}

// IsAuthError 是否属于认证类错误
func IsAuthError(err error) bool {
	for _, rule := range AuthErrorRules {
		if errors.Is(err, rule.Target) {
			return true
		}
	}
	return false
}

func concatErrorRules(groups ...[]ErrorRule) []ErrorRule {
	total := 0
	for _, group := range groups {
		total += len(group)
	}
	result := make([]ErrorRule, 0, total)
	for _, group := range groups {
		result = append(result, group...)
	}
	return result
}
