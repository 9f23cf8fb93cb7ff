package service

import (
	"context"
	"errors"
	"testing"

	"github.com/techphorix/w-store-sub004/internal/constants"
	"github.com/techphorix/w-store-sub004/internal/models"
	"github.com/techphorix/w-store-sub004/internal/queue"

	"github.com/hibiken/asynq"
)

func TestAuthServiceLogin(t *testing.T) {
	env := setupServiceTest(t)
	user := env.createPrincipal(t, "buyer@example.com", constants.RoleUser, constants.UserStatusActive)
	auth := env.authService()
	ctx := context.Background()

	result, err := auth.Login(ctx, LoginInput{Email: "  Buyer@Example.com ", Password: testPassword, RememberMe: true, ClientIP: "10.0.0.1"})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if result.User.ID != user.ID || !result.RememberMe {
		t.Fatalf("unexpected login result: %+v", result)
	}

	record, err := env.sessions.GetByID(ctx, result.SessionID)
	if err != nil || record == nil {
		t.Fatalf("session record should be created: %v", err)
	}
	if !record.IsActive || !record.RememberMe || record.TokenHash != HashToken(result.Token) {
		t.Fatalf("unexpected session record: %+v", record)
	}
	if record.ClientIP != "10.0.0.1" {
		t.Fatalf("client ip should be stored")
	}

	reloaded, _ := env.users.GetByID(ctx, user.ID)
	if reloaded.LastLoginAt == nil {
		t.Fatalf("last login should be recorded")
	}
}

func TestAuthServiceLoginFailures(t *testing.T) {
	env := setupServiceTest(t)
	env.createPrincipal(t, "buyer@example.com", constants.RoleUser, constants.UserStatusActive)
	env.createPrincipal(t, "pending@example.com", constants.RoleSeller, constants.UserStatusPending)
	auth := env.authService()
	ctx := context.Background()

	cases := []struct {
		name  string
		input LoginInput
		want  error
	}{
		{"wrong password", LoginInput{Email: "buyer@example.com", Password: "nope"}, ErrInvalidLogin},
		{"unknown email", LoginInput{Email: "ghost@example.com", Password: testPassword}, ErrInvalidLogin},
		{"empty input", LoginInput{}, ErrInvalidLogin},
		{"pending principal", LoginInput{Email: "pending@example.com", Password: testPassword}, ErrPrincipalInactive},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := auth.Login(ctx, tc.input); !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}

	var count int64
	env.db.Model(&models.SessionRecord{}).Count(&count)
	if count != 0 {
		t.Fatalf("failed logins must not create sessions, got %d", count)
	}
}

func TestAuthServiceRefreshRotatesSession(t *testing.T) {
	env := setupServiceTest(t)
	env.createPrincipal(t, "seller@example.com", constants.RoleSeller, constants.UserStatusActive)
	auth := env.authService()
	ctx := context.Background()

	first, err := auth.Login(ctx, LoginInput{Email: "seller@example.com", Password: testPassword, RememberMe: true})
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	claims, _ := env.tokens.Verify(first.Token)
	identity, err := env.resolver().Resolve(ctx, claims, first.Token)
	if err != nil {
		t.Fatalf("resolve failed: %v", err)
	}

	renewed, err := auth.Refresh(ctx, identity, "10.0.0.2", "test-agent")
	if err != nil {
		t.Fatalf("refresh failed: %v", err)
	}
	if renewed.SessionID == first.SessionID || renewed.Token == first.Token {
		t.Fatalf("refresh should issue a new session")
	}
	if !renewed.RememberMe {
		t.Fatalf("remember me should carry over to the renewed session")
	}

	if _, err := env.resolver().Resolve(ctx, claims, first.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("old session should be invalid after refresh, got %v", err)
	}
	newClaims, _ := env.tokens.Verify(renewed.Token)
	if _, err := env.resolver().Resolve(ctx, newClaims, renewed.Token); err != nil {
		t.Fatalf("new session should resolve: %v", err)
	}
}

func TestAuthServiceRefreshRejectsImpersonation(t *testing.T) {
	env := setupServiceTest(t)
	seller := env.createPrincipal(t, "seller@example.com", constants.RoleSeller, constants.UserStatusActive)
	identity := &Identity{Effective: seller, Authorizing: &models.User{ID: 99, Role: constants.RoleAdmin}, Impersonating: true}
	if _, err := env.authService().Refresh(context.Background(), identity, "", ""); !errors.Is(err, ErrInvalidCredential) {
		t.Fatalf("impersonation refresh want ErrInvalidCredential got %v", err)
	}
}

func TestAuthServiceLogout(t *testing.T) {
	env := setupServiceTest(t)
	env.createPrincipal(t, "seller@example.com", constants.RoleSeller, constants.UserStatusActive)
	result, identity := env.loginIdentity(t, "seller@example.com")
	ctx := context.Background()

	if err := env.authService().Logout(ctx, identity); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	claims, _ := env.tokens.Verify(result.Token)
	if _, err := env.resolver().Resolve(ctx, claims, result.Token); !errors.Is(err, ErrSessionInvalid) {
		t.Fatalf("logged out session want ErrSessionInvalid got %v", err)
	}
}

func TestAuthServiceImpersonate(t *testing.T) {
	env := setupServiceTest(t)
	env.createPrincipal(t, "admin@example.com", constants.RoleAdmin, constants.UserStatusActive)
	seller := env.createPrincipal(t, "seller@example.com", constants.RoleSeller, constants.UserStatusActive)
	_, adminIdentity := env.loginIdentity(t, "admin@example.com")
	ctx := WithRequestID(context.Background(), "req-impersonate")

	result, err := env.authService().Impersonate(ctx, adminIdentity, seller.ID)
	if err != nil {
		t.Fatalf("impersonate failed: %v", err)
	}
	if result.Token == "" || result.Target.ID != seller.ID {
		t.Fatalf("unexpected impersonation result: %+v", result)
	}

	claims, err := env.tokens.Verify(result.Token)
	if err != nil {
		t.Fatalf("verify impersonation token failed: %v", err)
	}
	if !claims.IsImpersonation || claims.OriginAdminID != adminIdentity.EffectiveID() {
		t.Fatalf("unexpected impersonation claims: %+v", claims)
	}

	var log models.AuditLog
	if err := env.db.Where("action = ?", constants.AuditActionImpersonationStart).First(&log).Error; err != nil {
		t.Fatalf("impersonation audit should be persisted: %v", err)
	}
	if log.ActorID != adminIdentity.EffectiveID() || log.SubjectID != seller.ID || log.RequestID != "req-impersonate" {
		t.Fatalf("unexpected audit log: %+v", log)
	}

	var sessions int64
	env.db.Model(&models.SessionRecord{}).Where("principal_id = ?", seller.ID).Count(&sessions)
	if sessions != 0 {
		t.Fatalf("impersonation must not create session records")
	}
}

func TestAuthServiceImpersonateGuards(t *testing.T) {
	env := setupServiceTest(t)
	admin := env.createPrincipal(t, "admin@example.com", constants.RoleAdmin, constants.UserStatusActive)
	otherAdmin := env.createPrincipal(t, "admin2@example.com", constants.RoleAdmin, constants.UserStatusActive)
	seller := env.createPrincipal(t, "seller@example.com", constants.RoleSeller, constants.UserStatusActive)
	suspended := env.createPrincipal(t, "suspended@example.com", constants.RoleSeller, constants.UserStatusSuspended)
	auth := env.authService()
	ctx := context.Background()

	adminIdentity := &Identity{Effective: admin, Authorizing: admin}
	sellerIdentity := &Identity{Effective: seller, Authorizing: seller}
	impersonating := &Identity{Effective: seller, Authorizing: admin, Impersonating: true}

	cases := []struct {
		name   string
		caller *Identity
		target uint
		want   error
	}{
		{"seller caller", sellerIdentity, suspended.ID, ErrInsufficientPermissions},
		{"nested impersonation", impersonating, seller.ID, ErrInsufficientPermissions},
		{"admin target", adminIdentity, otherAdmin.ID, ErrNotImpersonable},
		{"inactive target", adminIdentity, suspended.ID, ErrImpersonationTargetInvalid},
		{"missing target", adminIdentity, 9999, ErrNotFound},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if _, err := auth.Impersonate(ctx, tc.caller, tc.target); !errors.Is(err, tc.want) {
				t.Fatalf("want %v got %v", tc.want, err)
			}
		})
	}
	if env.countAudit(t, constants.AuditActionImpersonationStart) != 0 {
		t.Fatalf("rejected impersonation must not be audited")
	}
}

type stubAuditQueue struct {
	err      error
	payloads []queue.AuditRecordPayload
}

func (q *stubAuditQueue) EnqueueAuditRecord(payload queue.AuditRecordPayload, opts ...asynq.Option) error {
	if q.err != nil {
		return q.err
	}
	q.payloads = append(q.payloads, payload)
	return nil
}

func TestAuditServiceEnqueuesOrFallsBack(t *testing.T) {
	env := setupServiceTest(t)
	ctx := WithRequestID(context.Background(), "req-1")

	q := &stubAuditQueue{}
	queued := NewAuditService(env.audits, q)
	if err := queued.Record(ctx, AuditEntry{ActorID: 1, SubjectID: 2, Action: constants.AuditActionOverridePut}); err != nil {
		t.Fatalf("record failed: %v", err)
	}
	if len(q.payloads) != 1 || q.payloads[0].RequestID != "req-1" {
		t.Fatalf("payload should be enqueued with request id: %+v", q.payloads)
	}
	if env.countAudit(t, constants.AuditActionOverridePut) != 0 {
		t.Fatalf("enqueued audit should not be written synchronously")
	}

	broken := NewAuditService(env.audits, &stubAuditQueue{err: queue.ErrQueueDisabled})
	if err := broken.Record(ctx, AuditEntry{ActorID: 1, SubjectID: 2, Action: constants.AuditActionOverrideDelete}); err != nil {
		t.Fatalf("record fallback failed: %v", err)
	}
	if env.countAudit(t, constants.AuditActionOverrideDelete) != 1 {
		t.Fatalf("queue failure should fall back to a synchronous write")
	}
}
