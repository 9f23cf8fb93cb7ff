package authz

import (
	"fmt"

	"github.com/techphorix/w-store-sub004/internal/constants"

	gormadapter "github.com/casbin/gorm-adapter/v3"
	"gorm.io/gorm"
)

const memberRole = "member"

// RoleSeed 预置角色定义
type RoleSeed struct {
	Role     string
	Inherits []string
	Policies []Policy
}

// BuiltinRoleSeeds 账号角色的路由策略矩阵
func BuiltinRoleSeeds() []RoleSeed {
	return []RoleSeed{
		{
			Role: memberRole,
			Policies: []Policy{
				{Object: "/me", Action: "GET"},
				{Object: "/auth/*", Action: "*"},
			},
		},
		{
			Role:     constants.RoleUser,
			Inherits: []string{memberRole},
		},
		{
			Role:     constants.RoleSeller,
			Inherits: []string{memberRole},
			Policies: []Policy{
				{Object: "/seller/*", Action: "*"},
			},
		},
		{
			Role:     constants.RoleAdmin,
			Inherits: []string{memberRole},
			Policies: []Policy{
				{Object: "/admin/*", Action: "*"},
			},
		},
	}
}

// SeedRolePolicies 在给定事务中写入预置策略，已存在的规则跳过
// 写入后需调用 Service.ReloadPolicy 使 enforcer 生效
func SeedRolePolicies(tx *gorm.DB) error {
	if tx == nil {
		return fmt.Errorf("authz seed db is nil")
	}
	for _, seed := range BuiltinRoleSeeds() {
		role, err := NormalizeRole(seed.Role)
		if err != nil {
			return err
		}
		for _, parent := range seed.Inherits {
			parentRole, err := NormalizeRole(parent)
			if err != nil {
				return err
			}
			if err := ensureRule(tx, gormadapter.CasbinRule{Ptype: "g", V0: role, V1: parentRole}); err != nil {
				return fmt.Errorf("link role inheritance failed: %w", err)
			}
		}
		for _, policy := range seed.Policies {
			action := NormalizeAction(policy.Action)
			if action == "" {
				return fmt.Errorf("builtin policy action is required")
			}
			rule := gormadapter.CasbinRule{Ptype: "p", V0: role, V1: NormalizeObject(policy.Object), V2: action}
			if err := ensureRule(tx, rule); err != nil {
				return fmt.Errorf("add builtin policy failed: %w", err)
			}
		}
	}
	return nil
}

func ensureRule(tx *gorm.DB, rule gormadapter.CasbinRule) error {
	var existing gormadapter.CasbinRule
	return tx.Table(casbinTableName).Where(&rule).FirstOrCreate(&existing).Error
}
