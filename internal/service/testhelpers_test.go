package service

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/techphorix/w-store-sub004/internal/config"
	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/repository"

	"github.com/glebarez/sqlite"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testPassword = "Passw0rd!"

type serviceTestEnv struct {
	db        *gorm.DB
	cfg       *config.Config
	users     *repository.GormUserRepository
	sessions  *repository.GormSessionRepository
	overrides *repository.GormOverrideRepository
	stats     *repository.GormSellerStatsRepository
	orders    *repository.GormOrderRepository
	audits    *repository.GormAuditLogRepository
	audit     *AuditService
	tokens    *TokenService
}

func setupServiceTest(t *testing.T) *serviceTestEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:service_%s_%d?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"), time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.Migrate(db); err != nil {
		t.Fatalf("migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "service-test-secret"
	cfg.JWT.ExpireHours = 24
	cfg.JWT.RememberMeExpireHours = 720
	cfg.Impersonation.ExpireMinutes = 30
	cfg.Session.LookupFailurePolicy = constants.SessionLookupPolicyDegraded

	audits := repository.NewAuditLogRepository(db)
	return &serviceTestEnv{
		db:        db,
		cfg:       cfg,
		users:     repository.NewUserRepository(db),
		sessions:  repository.NewSessionRepository(db),
		overrides: repository.NewOverrideRepository(db),
		stats:     repository.NewSellerStatsRepository(db),
		orders:    repository.NewOrderRepository(db),
		audits:    audits,
		audit:     NewAuditService(audits, nil),
		tokens:    NewTokenService(cfg),
	}
}

func (e *serviceTestEnv) authService() *AuthService {
	return NewAuthService(e.users, e.sessions, e.tokens, e.audit)
}

func (e *serviceTestEnv) resolver() *IdentityResolver {
	return NewIdentityResolver(e.cfg, e.users, e.sessions)
}

func (e *serviceTestEnv) overrideService() *OverrideService {
	return NewOverrideService(e.overrides, e.users, e.stats, e.audit)
}

func (e *serviceTestEnv) createPrincipal(t *testing.T, email, role, status string) *models.User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(testPassword), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	user := &models.User{
		Email:        email,
		PasswordHash: string(hash),
		DisplayName:  strings.Split(email, "@")[0],
		Role:         role,
		Status:       status,
	}
	if err := e.db.Create(user).Error; err != nil {
		t.Fatalf("create principal failed: %v", err)
	}
	return user
}

func (e *serviceTestEnv) saveStats(t *testing.T, stats *models.SellerStats) {
	t.Helper()
	if err := e.stats.Save(context.Background(), stats); err != nil {
		t.Fatalf("save stats failed: %v", err)
	}
}

func (e *serviceTestEnv) countAudit(t *testing.T, action string) int64 {
	t.Helper()
	var count int64
	if err := e.db.Model(&models.AuditLog{}).Where("action = ?", action).Count(&count).Error; err != nil {
		t.Fatalf("count audit logs failed: %v", err)
	}
	return count
}

// loginIdentity 登录并解析出标准身份
func (e *serviceTestEnv) loginIdentity(t *testing.T, email string) (*SessionResult, *Identity) {
	t.Helper()
	ctx := context.Background()
	result, err := e.authService().Login(ctx, LoginInput{Email: email, Password: testPassword})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, err := e.tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("verify failed: %v", err)
	}
	identity, err := e.resolver().Resolve(ctx, claims, result.Token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}
	return result, identity
}
