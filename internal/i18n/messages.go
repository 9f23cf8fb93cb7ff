package i18n

var messages = map[string]map[string]string{
	LocaleZH: {
		"error.bad_request":                  "请求参数错误",
		"error.unauthorized":                 "未登录或登录已失效",
		"error.invalid_credential":           "凭证无效",
		"error.credential_expired":           "凭证已过期",
		"error.session_invalid":              "会话已失效，请重新登录",
		"error.principal_inactive":           "账号已停用",
		"error.impersonation_target_invalid": "代登录目标账号不存在或已停用",
		"error.insufficient_permissions":     "权限不足",
		"error.access_denied":                "无权访问该资源",
		"error.unknown_metric":               "不支持的指标名称: %s",
		"error.rate_limited":                 "请求过于频繁，请 %d 秒后再试",
		"error.rate_limit_unavailable":       "限流服务暂不可用",
		"error.login_failed":                 "邮箱或密码错误",
		"error.not_found":                    "资源不存在",
		"error.seller_not_found":             "卖家不存在",
		"error.not_impersonable":             "该账号不允许代登录",
		"error.invalid_status":               "账号状态无效",
		"error.invalid_value":                "指标值无效",
		"error.internal":                     "服务器内部错误",
		"error.password_min_length":          "密码长度至少 %d 位",
		"error.password_require_upper":       "密码需包含大写字母",
		"error.password_require_lower":       "密码需包含小写字母",
		"error.password_require_number":      "密码需包含数字",
		"error.password_require_special":     "密码需包含特殊字符",
	},
	LocaleEN: {
		"error.bad_request":                  "Invalid request parameters",
		"error.unauthorized":                 "Not signed in or session expired",
		"error.invalid_credential":           "Invalid credential",
		"error.credential_expired":           "Credential expired",
		"error.session_invalid":              "Session is no longer valid, please sign in again",
		"error.principal_inactive":           "Account is not active",
		"error.impersonation_target_invalid": "Impersonation target does not exist or is not active",
		"error.insufficient_permissions":     "Insufficient permissions",
		"error.access_denied":                "Access to this resource is denied",
		"error.unknown_metric":               "Unsupported metric name: %s",
		"error.rate_limited":                 "Too many requests, please retry in %d seconds",
		"error.rate_limit_unavailable":       "Rate limiter is unavailable",
		"error.login_failed":                 "Incorrect email or password",
		"error.not_found":                    "Resource not found",
		"error.seller_not_found":             "Seller not found",
		"error.not_impersonable":             "This account cannot be impersonated",
		"error.invalid_status":               "Invalid account status",
		"error.invalid_value":                "Invalid metric value",
		"error.internal":                     "Internal server error",
		"error.password_min_length":          "Password must be at least %d characters",
		"error.password_require_upper":       "Password must contain an uppercase letter",
		"error.password_require_lower":       "Password must contain a lowercase letter",
		"error.password_require_number":      "Password must contain a digit",
		"error.password_require_special":     "Password must contain a special character",
	},
}
