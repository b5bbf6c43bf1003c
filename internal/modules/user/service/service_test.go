package service

import (
	"context"
	"testing"
	"time"

	"github.com/Dnl30T/Avisos-FOA/internal/entity"
	"github.com/Dnl30T/Avisos-FOA/internal/modules/user/dto"
	"github.com/Dnl30T/Avisos-FOA/internal/testutil"
	"github.com/Dnl30T/Avisos-FOA/pkg/apperror"
	"github.com/Dnl30T/Avisos-FOA/pkg/ratelimiter"
	"github.com/stretchr/testify/assert"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

const (
	adminEmail   = "coordinator@school.edu"
	studentEmail = "student@school.edu"
	password     = "s3cret-pass"
)

func setup(t *testing.T) AuthService {
	t.Helper()
	return setupWithRedis(t, nil, AuthConfig{Secret: "test-secret", TokenTTL: time.Hour})
}

func setupWithRedis(t *testing.T, rdb *redis.Client, cfg AuthConfig) AuthService {
	t.Helper()
	ctx := context.Background()
	users := testutil.NewUserRepository(t)

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	require.NoError(t, err)
	for _, email := range []string{adminEmail, studentEmail} {
		require.NoError(t, users.Create(ctx, &entity.User{Email: email, PasswordHash: string(hash)}))
	}

	return NewAuthService(
		users,
		NewAllowList([]string{"Coordinator@School.edu"}),
		NewRevocationStore(rdb),
		rdb,
		cfg,
	)
}

func TestLogin(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	resp, err := svc.Login(ctx, dto.LoginInput{Email: " Coordinator@school.edu ", Password: password})
	require.NoError(t, err)
	assert.Equal(t, "Bearer", resp.TokenType)
	assert.NotEmpty(t, resp.AccessToken)
	assert.EqualValues(t, 3600, resp.ExpiresIn)
	assert.True(t, resp.IsAdmin)
	assert.Equal(t, adminEmail, resp.Principal.Email)

	principal, err := svc.Authenticate(ctx, resp.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, resp.Principal.UserID, principal.UserID)
	assert.Equal(t, adminEmail, principal.Email)
	assert.NotEmpty(t, principal.SessionID)
	assert.True(t, svc.IsAdmin(principal))
}

func TestLogin_NonAdmin(t *testing.T) {
	svc := setup(t)

	resp, err := svc.Login(context.Background(), dto.LoginInput{Email: studentEmail, Password: password})
	require.NoError(t, err)
	assert.False(t, resp.IsAdmin)
	assert.False(t, svc.IsAdmin(resp.Principal))
}

func TestLogin_Failures(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginInput{Email: adminEmail, Password: "wrong"})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, dto.LoginInput{Email: "nobody@school.edu", Password: password})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, dto.LoginInput{Email: "not-an-email", Password: password})
	assert.ErrorIs(t, err, apperror.ErrInvalidInput)
}

func TestAuthenticate_Rejects(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	_, err := svc.Authenticate(ctx, "garbage")
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	other := NewAuthService(testutil.NewUserRepository(t), NewAllowList(nil), NewRevocationStore(nil), nil,
		AuthConfig{Secret: "another-secret"})
	_, err = other.Authenticate(ctx, loginToken(t, svc))
	assert.ErrorIs(t, err, apperror.ErrUnauthorized, "token signed with a different secret")
}

func TestAuthenticate_Expired(t *testing.T) {
	svc := setup(t)
	token := loginToken(t, svc)

	svc.(*authService).now = func() time.Time { return time.Now().Add(2 * time.Hour) }
	_, err := svc.Authenticate(context.Background(), token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}

func TestLogout(t *testing.T) {
	svc := setup(t)
	ctx := context.Background()

	var changes []SessionChange
	svc.OnSessionChange(func(c SessionChange) { changes = append(changes, c) })

	token := loginToken(t, svc)
	principal, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, principal))

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized, "revoked token is rejected")

	require.Len(t, changes, 2)
	require.NotNil(t, changes[0].Current)
	assert.Nil(t, changes[0].Previous)
	assert.Equal(t, adminEmail, changes[0].Current.Email)
	assert.Nil(t, changes[1].Current)
	require.NotNil(t, changes[1].Previous)
	assert.Equal(t, principal.SessionID, changes[1].Previous.SessionID)

	assert.ErrorIs(t, svc.Logout(ctx, nil), apperror.ErrUnauthorized)
}

func TestAllowList(t *testing.T) {
	list := NewAllowList([]string{" Head@School.edu", "", "deputy@school.edu"})

	assert.True(t, list.IsAdmin(&entity.Principal{Email: "head@school.edu"}))
	assert.True(t, list.IsAdmin(&entity.Principal{Email: "DEPUTY@school.edu"}))
	assert.False(t, list.IsAdmin(&entity.Principal{Email: "student@school.edu"}))
	assert.False(t, list.IsAdmin(nil))
	assert.Equal(t, []string{"deputy@school.edu", "head@school.edu"}, list.Emails())
}

func TestMemoryRevocationStore(t *testing.T) {
	store := newMemoryRevocationStore()
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	store.now = func() time.Time { return now }
	ctx := context.Background()

	require.NoError(t, store.Revoke(ctx, "a", now.Add(time.Minute)))
	require.NoError(t, store.Revoke(ctx, "stale", now.Add(-time.Minute)))

	revoked, err := store.IsRevoked(ctx, "a")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, _ = store.IsRevoked(ctx, "stale")
	assert.False(t, revoked)

	now = now.Add(2 * time.Minute)
	revoked, _ = store.IsRevoked(ctx, "a")
	assert.False(t, revoked, "revocation lapses with the token")
}

func loginToken(t *testing.T, svc AuthService) string {
	t.Helper()
	resp, err := svc.Login(context.Background(), dto.LoginInput{Email: adminEmail, Password: password})
	require.NoError(t, err)
	return resp.AccessToken
}

func TestLogin_ThrottledAfterRepeatedFailures(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	svc := setupWithRedis(t, rdb, AuthConfig{
		Secret:           "test-secret",
		LoginThrottle:    time.Minute,
		MaxLoginFailures: 3,
	})
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginInput{Email: adminEmail, Password: "wrong"})
	require.ErrorIs(t, err, apperror.ErrUnauthorized)

	_, err = svc.Login(ctx, dto.LoginInput{Email: adminEmail, Password: password})
	require.NoError(t, err, "a single failure does not lock the account")

	for i := 0; i < 3; i++ {
		_, err = svc.Login(ctx, dto.LoginInput{Email: adminEmail, Password: "wrong"})
		require.ErrorIs(t, err, apperror.ErrUnauthorized)
	}

	_, err = svc.Login(ctx, dto.LoginInput{Email: adminEmail, Password: password})
	var rateErr *ratelimiter.RateLimitError
	require.ErrorAs(t, err, &rateErr)
	assert.ErrorIs(t, err, apperror.ErrRateLimitExceeded)
	assert.Equal(t, time.Minute, rateErr.RetryAfter)

	_, err = svc.Login(ctx, dto.LoginInput{Email: studentEmail, Password: password})
	assert.NoError(t, err, "other accounts are unaffected")

	mr.FastForward(time.Minute)
	_, err = svc.Login(ctx, dto.LoginInput{Email: adminEmail, Password: password})
	assert.NoError(t, err)
}

func TestLogout_RevokesThroughRedis(t *testing.T) {
	mr, rdb := testutil.NewRedis(t)
	svc := setupWithRedis(t, rdb, AuthConfig{Secret: "test-secret", TokenTTL: time.Hour})
	ctx := context.Background()

	token := loginToken(t, svc)
	principal, err := svc.Authenticate(ctx, token)
	require.NoError(t, err)

	require.NoError(t, svc.Logout(ctx, principal))

	key := "revoked_token:" + principal.SessionID
	require.True(t, mr.Exists(key))
	assert.Greater(t, mr.TTL(key), time.Duration(0), "revocation lapses with the token")

	_, err = svc.Authenticate(ctx, token)
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)

	other := loginToken(t, svc)
	_, err = svc.Authenticate(ctx, other)
	assert.NoError(t, err, "only the signed-out session is revoked")
}
