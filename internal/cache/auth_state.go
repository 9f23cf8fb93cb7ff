package cache

import (
	"context"
	"fmt"
	"time"

	"github.com/techphorix/w-store-sub004/internal/models"
)

const authStateCacheTTL = 5 * time.Minute

// PrincipalAuthState 账号鉴权快照
// 仅缓存鉴权所需字段，状态变更时必须删除
type PrincipalAuthState struct {
	PrincipalID uint   `json:"principal_id"`
	Email       string `json:"email"`
	DisplayName string `json:"display_name"`
	Role        string `json:"role"`
	Status      string `json:"status"`
	UpdatedAt   int64  `json:"updated_at"`
}

func principalAuthStateKey(principalID uint) string {
	return fmt.Sprintf("auth:principal:%d", principalID)
}

// BuildPrincipalAuthState 从账号模型构建鉴权快照
func BuildPrincipalAuthState(user *models.User) *PrincipalAuthState {
	if user == nil {
		return nil
	}
	return &PrincipalAuthState{
		PrincipalID: user.ID,
		Email:       user.Email,
		DisplayName: user.DisplayName,
		Role:        user.Role,
		Status:      user.Status,
		UpdatedAt:   time.Now().Unix(),
	}
}

// ToUser 还原为账号模型（只包含快照字段）
func (s *PrincipalAuthState) ToUser() *models.User {
	if s == nil {
		return nil
	}
	return &models.User{
		ID:          s.PrincipalID,
		Email:       s.Email,
		DisplayName: s.DisplayName,
		Role:        s.Role,
		Status:      s.Status,
	}
}

// GetPrincipalAuthState 获取账号鉴权快照
func GetPrincipalAuthState(ctx context.Context, principalID uint) (*PrincipalAuthState, bool, error) {
	if principalID == 0 {
		return nil, false, nil
	}
	var state PrincipalAuthState
	hit, err := GetJSON(ctx, principalAuthStateKey(principalID), &state)
	if err != nil || !hit {
		return nil, hit, err
	}
	return &state, true, nil
}

// SetPrincipalAuthState 写入账号鉴权快照
func SetPrincipalAuthState(ctx context.Context, state *PrincipalAuthState) error {
	if state == nil || state.PrincipalID == 0 {
		return nil
	}
	return SetJSON(ctx, principalAuthStateKey(state.PrincipalID), state, authStateCacheTTL)
}

// DelPrincipalAuthState 删除账号鉴权快照
func DelPrincipalAuthState(ctx context.Context, principalID uint) error {
	if principalID == 0 {
		return nil
	}
	return Del(ctx, principalAuthStateKey(principalID))
}
