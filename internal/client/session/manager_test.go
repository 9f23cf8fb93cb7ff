package session

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"sync"
	"testing"
	"time"

	"github.com/techphorix/w-store-sub004/internal/constants"

	"github.com/golang-jwt/jwt/v5"
)

type rateLimitedError struct {
	wait time.Duration
}

func (e *rateLimitedError) Error() string { return "rate limited" }

func (e *rateLimitedError) RetryAfterHint() (time.Duration, bool) { return e.wait, true }

type fakeBackend struct {
	mu           sync.Mutex
	refreshErrs  []error
	refreshCalls int
	logoutCalls  int
	impersonate  func(token string, targetID uint) (*Grant, error)
	nextToken    int
	expiresIn    time.Duration
	now          func() time.Time
}

func (b *fakeBackend) Login(_ context.Context, email, _ string, _ bool) (*Grant, error) {
	return &Grant{
		Token:     "standard-login",
		ExpiresAt: b.now().Add(b.expiresIn),
		User:      &Principal{ID: 1, Email: email, Role: constants.RoleAdmin, Status: constants.UserStatusActive},
	}, nil
}

func (b *fakeBackend) Refresh(_ context.Context, _ string) (*Grant, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.refreshCalls++
	if len(b.refreshErrs) > 0 {
		err := b.refreshErrs[0]
		b.refreshErrs = b.refreshErrs[1:]
		if err != nil {
			return nil, err
		}
	}
	b.nextToken++
	return &Grant{Token: "standard-renewed-" + strconv.Itoa(b.nextToken), ExpiresAt: b.now().Add(b.expiresIn)}, nil
}

func (b *fakeBackend) Logout(context.Context, string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.logoutCalls++
	return nil
}

func (b *fakeBackend) Impersonate(_ context.Context, token string, targetID uint) (*Grant, error) {
	if b.impersonate == nil {
		return nil, errors.New("not configured")
	}
	return b.impersonate(token, targetID)
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestManager(t *testing.T, store Store) (*Manager, *fakeBackend, *testClock, *[]time.Duration) {
	t.Helper()
	clock := &testClock{now: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)}
	backend := &fakeBackend{expiresIn: 24 * time.Hour, now: clock.Now}
	var sleeps []time.Duration
	m, err := NewManager(backend, store, Options{
		Now: clock.Now,
		Sleep: func(_ context.Context, d time.Duration) error {
			sleeps = append(sleeps, d)
			return nil
		},
	})
	if err != nil {
		t.Fatalf("new manager failed: %v", err)
	}
	t.Cleanup(m.Close)
	return m, backend, clock, &sleeps
}

func signImpersonationToken(t *testing.T, subject string, impersonation bool, expiresAt time.Time) string {
	t.Helper()
	claims := tokenClaims{
		Role:            constants.RoleSeller,
		IsImpersonation: impersonation,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   subject,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte("client-test"))
	if err != nil {
		t.Fatalf("sign token failed: %v", err)
	}
	return token
}

func TestSelectToken(t *testing.T) {
	state := State{StandardToken: "std", ImpersonationToken: "imp"}
	cases := []struct {
		path string
		want string
	}{
		{"/api/v1/admin/seller/7/overrides", "std"},
		{"/api/v1/admin", "std"},
		{"/api/v1/auth/refresh", "std"},
		{"/api/v1/auth/logout", "std"},
		{"/api/v1/seller/dashboard", "imp"},
		{"/api/v1/me", "imp"},
		{"/api/v1/seller/orders?page=2", "imp"},
		{"/api/v1/administrators", "imp"},
	}
	for _, tc := range cases {
		if got := SelectToken(tc.path, state); got != tc.want {
			t.Fatalf("path %s want %s got %s", tc.path, tc.want, got)
		}
	}
	if got := SelectToken("/api/v1/seller/dashboard", State{StandardToken: "std"}); got != "std" {
		t.Fatalf("without impersonation want std got %s", got)
	}
}

func TestLoginPersistsStateToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "session.json")
	m, _, _, _ := newTestManager(t, NewFileStore(path))

	principal, err := m.Login(context.Background(), " admin@example.com ", "secret", false)
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if principal.Email != "admin@example.com" {
		t.Fatalf("email should be trimmed, got %q", principal.Email)
	}
	info, err := os.Stat(path)
	if err != nil {
		t.Fatalf("session file missing: %v", err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("session file mode want 0600 got %o", info.Mode().Perm())
	}

	reloaded, err := NewManager(&fakeBackend{}, NewFileStore(path), Options{})
	if err != nil {
		t.Fatalf("reload manager failed: %v", err)
	}
	defer reloaded.Close()
	if token, err := reloaded.TokenFor("/api/v1/me"); err != nil || token != "standard-login" {
		t.Fatalf("reloaded token want standard-login got %q (%v)", token, err)
	}
}

func TestRenewIfNeededWindow(t *testing.T) {
	m, backend, clock, _ := newTestManager(t, nil)
	if _, err := m.Login(context.Background(), "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	if err := m.RenewIfNeeded(context.Background()); err != nil {
		t.Fatalf("fresh token should not renew: %v", err)
	}
	if backend.refreshCalls != 0 {
		t.Fatalf("fresh token should not call refresh")
	}

	clock.Advance(23*time.Hour + 30*time.Minute)
	if err := m.RenewIfNeeded(context.Background()); err != nil {
		t.Fatalf("renew failed: %v", err)
	}
	if backend.refreshCalls != 1 {
		t.Fatalf("token within threshold should renew once, got %d", backend.refreshCalls)
	}
	if token, _ := m.TokenFor("/api/v1/me"); token != "standard-renewed-1" {
		t.Fatalf("token should be replaced, got %s", token)
	}
}

func TestRenewIfNeededExpiredLogsOut(t *testing.T) {
	store := &MemoryStore{}
	m, backend, clock, _ := newTestManager(t, store)
	if _, err := m.Login(context.Background(), "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	clock.Advance(25 * time.Hour)

	if err := m.RenewIfNeeded(context.Background()); !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("expired token want ErrLoggedOut got %v", err)
	}
	if backend.refreshCalls != 0 {
		t.Fatalf("expired token must not be renewed")
	}
	if _, found, _ := store.Load(); found {
		t.Fatalf("stored state should be cleared")
	}
}

func TestRenewWaitsRetryAfterOnce(t *testing.T) {
	m, backend, _, sleeps := newTestManager(t, nil)
	if _, err := m.Login(context.Background(), "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	backend.refreshErrs = []error{&rateLimitedError{wait: 3 * time.Second}}

	if err := m.Renew(context.Background()); err != nil {
		t.Fatalf("renew after rate limit should succeed: %v", err)
	}
	if backend.refreshCalls != 2 {
		t.Fatalf("refresh calls want 2 got %d", backend.refreshCalls)
	}
	if len(*sleeps) != 1 || (*sleeps)[0] != 3*time.Second {
		t.Fatalf("should wait Retry-After once, got %v", *sleeps)
	}
}

func TestRenewFailureHardLogout(t *testing.T) {
	store := &MemoryStore{}
	m, backend, _, _ := newTestManager(t, store)
	if _, err := m.Login(context.Background(), "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	backend.refreshErrs = []error{&rateLimitedError{wait: time.Second}, &rateLimitedError{wait: time.Second}}

	err := m.Renew(context.Background())
	if !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("renew failure want ErrLoggedOut got %v", err)
	}
	if backend.refreshCalls != 2 {
		t.Fatalf("renewal should be retried at most once, got %d calls", backend.refreshCalls)
	}
	if m.State().LoggedIn() {
		t.Fatalf("state should be cleared after renewal failure")
	}
	if _, found, _ := store.Load(); found {
		t.Fatalf("stored state should be cleared")
	}
}

func TestHandleUnauthorized(t *testing.T) {
	m, backend, _, _ := newTestManager(t, nil)
	if _, err := m.Login(context.Background(), "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	retry, err := m.HandleUnauthorized(context.Background(), "standard-login")
	if err != nil || !retry {
		t.Fatalf("standard 401 should renew, got retry=%v err=%v", retry, err)
	}
	// 旧 Token 的并发 401 不再触发续期
	retry, err = m.HandleUnauthorized(context.Background(), "standard-login")
	if err != nil || !retry {
		t.Fatalf("stale token 401 should retry, got retry=%v err=%v", retry, err)
	}
	if backend.refreshCalls != 1 {
		t.Fatalf("refresh calls want 1 got %d", backend.refreshCalls)
	}
}

func TestImpersonationLifecycle(t *testing.T) {
	m, backend, clock, _ := newTestManager(t, nil)
	ctx := context.Background()
	if _, err := m.Login(ctx, "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	impToken := signImpersonationToken(t, "7", true, clock.Now().Add(30*time.Minute))
	backend.impersonate = func(token string, targetID uint) (*Grant, error) {
		if token != "standard-login" {
			t.Fatalf("impersonate must use standard token, got %s", token)
		}
		return &Grant{Token: impToken, User: &Principal{ID: targetID, Role: constants.RoleSeller}}, nil
	}

	target, err := m.StartImpersonation(ctx, 7)
	if err != nil {
		t.Fatalf("start impersonation failed: %v", err)
	}
	if target.ID != 7 || m.State().Effective().ID != 7 {
		t.Fatalf("effective principal should be the target")
	}
	if got := m.State().ImpersonationExpiresAt; !got.Equal(clock.Now().Add(30 * time.Minute).Truncate(time.Second)) {
		t.Fatalf("expiry should come from token, got %s", got)
	}
	if token, _ := m.TokenFor("/api/v1/seller/dashboard"); token != impToken {
		t.Fatalf("seller route should use impersonation token")
	}
	if token, _ := m.TokenFor("/api/v1/admin/users"); token != "standard-login" {
		t.Fatalf("admin route should use standard token")
	}
	if _, err := m.StartImpersonation(ctx, 8); !errors.Is(err, ErrAlreadyImpersonating) {
		t.Fatalf("nested impersonation want ErrAlreadyImpersonating got %v", err)
	}

	// 代登录 Token 的 401 只退出代登录，不续期
	retry, err := m.HandleUnauthorized(ctx, impToken)
	if retry || !errors.Is(err, ErrImpersonationEnded) {
		t.Fatalf("impersonation 401 want ErrImpersonationEnded got retry=%v err=%v", retry, err)
	}
	if backend.refreshCalls != 0 {
		t.Fatalf("impersonation 401 must not renew")
	}
	state := m.State()
	if state.Impersonating() || !state.LoggedIn() {
		t.Fatalf("admin session should remain without impersonation")
	}
	if err := m.StopImpersonation(); !errors.Is(err, ErrNotImpersonating) {
		t.Fatalf("stop without impersonation want ErrNotImpersonating got %v", err)
	}
}

func TestStartImpersonationRejectsBadToken(t *testing.T) {
	m, backend, clock, _ := newTestManager(t, nil)
	ctx := context.Background()
	if _, err := m.Login(ctx, "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}

	cases := map[string]string{
		"empty":            "",
		"garbage":          "not-a-jwt",
		"wrong subject":    signImpersonationToken(t, "8", true, clock.Now().Add(time.Hour)),
		"not impersonated": signImpersonationToken(t, "7", false, clock.Now().Add(time.Hour)),
	}
	for name, token := range cases {
		token := token
		backend.impersonate = func(string, uint) (*Grant, error) {
			return &Grant{Token: token}, nil
		}
		if _, err := m.StartImpersonation(ctx, 7); !errors.Is(err, ErrInvalidImpersonationToken) {
			t.Fatalf("%s: want ErrInvalidImpersonationToken got %v", name, err)
		}
		if m.State().Impersonating() {
			t.Fatalf("%s: state must not change on invalid token", name)
		}
	}
}

func TestStartImpersonationRequiresAdmin(t *testing.T) {
	store := &MemoryStore{}
	_ = store.Save(State{
		StandardToken: "seller-token",
		Principal:     &Principal{ID: 5, Role: constants.RoleSeller},
	})
	m, _, _, _ := newTestManager(t, store)
	if _, err := m.StartImpersonation(context.Background(), 7); !errors.Is(err, ErrNotAdmin) {
		t.Fatalf("seller impersonation want ErrNotAdmin got %v", err)
	}
}

func TestCloseDropsLateMutations(t *testing.T) {
	m, backend, clock, _ := newTestManager(t, nil)
	ctx := context.Background()
	if _, err := m.Login(ctx, "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	impToken := signImpersonationToken(t, "7", true, clock.Now().Add(time.Hour))
	backend.impersonate = func(string, uint) (*Grant, error) {
		m.Close()
		return &Grant{Token: impToken}, nil
	}

	if _, err := m.StartImpersonation(ctx, 7); !errors.Is(err, ErrClosed) {
		t.Fatalf("late impersonation want ErrClosed got %v", err)
	}
	if m.State().Impersonating() {
		t.Fatalf("closed manager must not record impersonation")
	}
	if _, err := m.TokenFor("/api/v1/me"); !errors.Is(err, ErrClosed) {
		t.Fatalf("closed manager want ErrClosed got %v", err)
	}
}

func TestLogoutClearsStateEvenOffline(t *testing.T) {
	m, backend, _, _ := newTestManager(t, nil)
	ctx := context.Background()
	if _, err := m.Login(ctx, "admin@example.com", "secret", false); err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if err := m.Logout(ctx); err != nil {
		t.Fatalf("logout failed: %v", err)
	}
	if backend.logoutCalls != 1 {
		t.Fatalf("logout should notify server once")
	}
	if _, err := m.TokenFor("/api/v1/me"); !errors.Is(err, ErrLoggedOut) {
		t.Fatalf("after logout want ErrLoggedOut got %v", err)
	}
}

func TestStartStopLoop(t *testing.T) {
	m, _, _, _ := newTestManager(t, nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	m.Start(ctx)
	m.Start(ctx)

	done := make(chan struct{})
	go func() {
		m.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatalf("close should stop the renew loop")
	}
}
