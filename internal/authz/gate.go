package authz

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/techphorix/w-store-sub004/internal/constants"

	"gorm.io/gorm"
)

var (
	// ErrInsufficientPermissions 角色不满足要求
	ErrInsufficientPermissions = errors.New("insufficient permissions")
	// ErrAccessDenied 资源不属于当前身份
	ErrAccessDenied = errors.New("access denied")
)

// Actor 授权判定使用的生效身份
type Actor interface {
	EffectiveID() uint
	EffectiveRole() string
}

// Gate 角色与资源归属校验
type Gate struct {
	db     *gorm.DB
	mu     sync.RWMutex
	owners map[string]string
}

// NewGate 创建访问控制器，并注册默认的资源归属列
func NewGate(db *gorm.DB) *Gate {
	g := &Gate{db: db, owners: map[string]string{}}
	g.Register("orders", "seller_id")
	g.Register("seller_metric_overrides", "seller_id")
	g.Register("seller_stats", "seller_id")
	return g
}

// Register 注册资源表与归属列
func (g *Gate) Register(resource, ownerColumn string) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.owners[strings.TrimSpace(resource)] = strings.TrimSpace(ownerColumn)
}

// RequireRoles 要求生效身份属于任一角色
func (g *Gate) RequireRoles(actor Actor, roles ...string) error {
	if actor == nil {
		return ErrInsufficientPermissions
	}
	current := actor.EffectiveRole()
	for _, role := range roles {
		if role == current {
			return nil
		}
	}
	return ErrInsufficientPermissions
}

// CheckOwnership 校验资源归属：管理员直接放行，其余身份要求归属列等于生效账号ID
// 记录不存在或资源未注册同样返回 ErrAccessDenied
func (g *Gate) CheckOwnership(ctx context.Context, actor Actor, resource string, id uint) error {
	if actor == nil {
		return ErrAccessDenied
	}
	if actor.EffectiveRole() == constants.RoleAdmin {
		return nil
	}

	g.mu.RLock()
	column, ok := g.owners[resource]
	g.mu.RUnlock()
	if !ok || column == "" {
		return ErrAccessDenied
	}

	var owners []uint
	if err := g.db.WithContext(ctx).
		Table(resource).
		Where("id = ?", id).
		Limit(1).
		Pluck(column, &owners).Error; err != nil {
		return fmt.Errorf("check ownership of %s#%d: %w", resource, id, err)
	}
	if len(owners) == 0 || owners[0] != actor.EffectiveID() {
		return ErrAccessDenied
	}
	return nil
}
