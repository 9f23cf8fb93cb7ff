package service

import (
	"unicode"

	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/i18n"
)

// PasswordPolicyError 密码策略校验失败，Key 为 i18n 消息键
type PasswordPolicyError struct {
	key  string
	args []interface{}
}

func (e PasswordPolicyError) Error() string {
	return e.key
}

func (e PasswordPolicyError) Is(target error) bool {
	return target == ErrWeakPassword
}

// Key 消息键
func (e PasswordPolicyError) Key() string {
	return e.key
}

// Localized 按语言输出提示
func (e PasswordPolicyError) Localized(locale string) string {
	return i18n.Sprintf(locale, e.key, e.args...)
}

// ValidatePassword 按策略校验密码，策略全部关闭时不校验
func ValidatePassword(policy config.PasswordPolicyConfig, password string) error {
	if policy.MinLength <= 0 &&
		!policy.RequireUpper &&
		!policy.RequireLower &&
		!policy.RequireNumber &&
		!policy.RequireSpecial {
		return nil
	}

	if policy.MinLength > 0 {
		if len([]rune(password)) < policy.MinLength {
			return PasswordPolicyError{key: "error.password_min_length", args: []interface{}{policy.MinLength}}
		}
	}

	var hasUpper, hasLower, hasNumber, hasSpecial bool
	for _, r := range password {
		switch {
		case unicode.IsUpper(r):
			hasUpper = true
		case unicode.IsLower(r):
			hasLower = true
		case unicode.IsDigit(r):
			hasNumber = true
		default:
			hasSpecial = true
		}
	}

	if policy.RequireUpper && !hasUpper {
		return PasswordPolicyError{key: "error.password_require_upper"}
	}
	if policy.RequireLower && !hasLower {
		return PasswordPolicyError{key: "error.password_require_lower"}
	}
	if policy.RequireNumber && !hasNumber {
		return PasswordPolicyError{key: "error.password_require_number"}
	}
	if policy.RequireSpecial && !hasSpecial {
		return PasswordPolicyError{key: "error.password_require_special"}
	}
	return nil
}
