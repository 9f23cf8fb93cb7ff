package service

import (
	"errors"

	"github.com/techphorix/w-store-sub004/internal/authz"
)

// 身份与会话
var (
	ErrInvalidCredential          = errors.New("invalid credential")
	ErrCredentialExpired          = errors.New("credential expired")
	ErrSessionInvalid             = errors.New("session invalid")
	ErrPrincipalInactive          = errors.New("principal inactive")
	ErrImpersonationTargetInvalid = errors.New("impersonation target invalid")
	ErrInvalidLogin               = errors.New("invalid email or password")
	ErrNotImpersonable            = errors.New("principal cannot be impersonated")
	ErrWeakPassword               = errors.New("password does not satisfy policy")
)

// 授权
var (
	ErrInsufficientPermissions = authz.ErrInsufficientPermissions
	ErrAccessDenied            = authz.ErrAccessDenied
)

// 业务数据
var (
	ErrNotFound       = errors.New("not found")
	ErrSellerNotFound = errors.New("seller not found")
	ErrUnknownMetric  = errors.New("unknown metric")
	ErrInvalidStatus  = errors.New("invalid principal status")
)
