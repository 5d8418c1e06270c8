package usecases

import (
	"context"
	"errors"
	"testing"
	"time"

	"articles-server/services"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type authFixture struct {
	uc       *AuthUseCase
	users    *fakeUserRepo
	sessions *fakeSessionRepo
}

func newAuthFixture(t *testing.T) *authFixture {
	t.Helper()
	users := newFakeUserRepo()
	sessions := newFakeSessionRepo()
	uc := NewAuthUseCase(users, sessions,
		services.NewBcryptHasher(bcrypt.MinCost),
		services.NewTokenCodec("test-secret"),
		time.Hour, 30*24*time.Hour)
	return &authFixture{uc: uc, users: users, sessions: sessions}
}

func TestRegister_Success(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()

	user, err := f.uc.Register(ctx, " alice ", "Alice@Example.com", "pw123456")
	require.NoError(t, err)
	assert.Equal(t, "alice", user.Username)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.NotEqual(t, "pw123456", user.PasswordHash)
	assert.Zero(t, f.sessions.count(), "registration must not log the user in")

	grant, err := f.uc.Authenticate(ctx, "alice@example.com", "pw123456", false)
	require.NoError(t, err)
	assert.Equal(t, user.ID, grant.User.ID)
	assert.NotEmpty(t, grant.Token)
}

func TestRegister_ValidationErrors(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		email    string
		password string
		field    string
	}{
		{"duplicate email", "alice2", "alice@example.com", "pw", "email"},
		{"duplicate email case-insensitive", "alice3", "ALICE@example.com", "pw", "email"},
		{"duplicate username", "alice", "new@example.com", "pw", "username"},
		{"bad email", "carol", "not-an-email", "pw", "email"},
		{"short username", "c", "c@example.com", "pw", "username"},
		{"long username", "abcdefghijklmnopqrstuvwxyz", "c@example.com", "pw", "username"},
		{"missing password", "carol", "carol@example.com", "", "password"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.uc.Register(ctx, tt.username, tt.email, tt.password)
			var verr *ValidationError
			require.True(t, errors.As(err, &verr), "want ValidationError, got %v", err)
			assert.Contains(t, verr.Fields, tt.field)
		})
	}
}

func TestRegister_StoreFailure(t *testing.T) {
	f := newAuthFixture(t)
	f.users.failGet = errStoreDown

	_, err := f.uc.Register(context.Background(), "alice", "alice@example.com", "pw")
	assert.ErrorIs(t, err, errStoreDown)
	var verr *ValidationError
	assert.False(t, errors.As(err, &verr))
}

func TestAuthenticate_Failures(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	_, err := f.uc.Register(ctx, "alice", "alice@example.com", "right")
	require.NoError(t, err)

	_, err = f.uc.Authenticate(ctx, "alice@example.com", "wrong", false)
	assert.ErrorIs(t, err, ErrAuthentication)

	_, err = f.uc.Authenticate(ctx, "nobody@example.com", "right", false)
	assert.ErrorIs(t, err, ErrAuthentication)

	assert.Zero(t, f.sessions.count(), "failed logins must not create sessions")
}

func TestAuthenticate_RememberExtendsLifetime(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	now := time.Date(2024, 3, 1, 8, 0, 0, 0, time.UTC)
	f.uc.now = func() time.Time { return now }
	_, err := f.uc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)

	short, err := f.uc.Authenticate(ctx, "alice@example.com", "pw", false)
	require.NoError(t, err)
	assert.Equal(t, now.Add(time.Hour), short.ExpiresAt)
	assert.False(t, short.Remember)

	long, err := f.uc.Authenticate(ctx, "alice@example.com", "pw", true)
	require.NoError(t, err)
	assert.Equal(t, now.Add(30*24*time.Hour), long.ExpiresAt)
	assert.True(t, long.Remember)
}

func TestCurrentIdentityAndEndSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	user, err := f.uc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	grant, err := f.uc.Authenticate(ctx, "alice@example.com", "pw", false)
	require.NoError(t, err)

	got, err := f.uc.CurrentIdentity(ctx, grant.Token)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, user.ID, got.ID)

	require.NoError(t, f.uc.EndSession(ctx, grant.Token))
	require.NoError(t, f.uc.EndSession(ctx, grant.Token), "second EndSession is a no-op")

	got, err = f.uc.CurrentIdentity(ctx, grant.Token)
	require.NoError(t, err)
	assert.Nil(t, got, "revoked token must not resolve")

	for _, token := range []string{"", "garbage"} {
		got, err := f.uc.CurrentIdentity(ctx, token)
		assert.NoError(t, err)
		assert.Nil(t, got)
		assert.NoError(t, f.uc.EndSession(ctx, token))
	}
}

func TestCurrentIdentity_ExpiredSession(t *testing.T) {
	f := newAuthFixture(t)
	ctx := context.Background()
	now := time.Now()
	f.uc.now = func() time.Time { return now }
	_, err := f.uc.Register(ctx, "alice", "alice@example.com", "pw")
	require.NoError(t, err)
	grant, err := f.uc.Authenticate(ctx, "alice@example.com", "pw", false)
	require.NoError(t, err)

	f.uc.now = func() time.Time { return now.Add(2 * time.Hour) }
	got, err := f.uc.CurrentIdentity(ctx, grant.Token)
	require.NoError(t, err)
	assert.Nil(t, got)

	n, err := f.uc.PruneSessions(ctx)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)
}

func TestSafeRedirect(t *testing.T) {
	tests := []struct {
		next string
		want string
	}{
		{"", "/"},
		{"/my_articles", "/my_articles"},
		{"/my_articles?page=2", "/my_articles?page=2"},
		{"https://evil.example", "/"},
		{"//evil.example", "/"},
		{"/\\evil.example", "/"},
		{"javascript:alert(1)", "/"},
		{"my_articles", "/"},
		{"/ok\r\nSet-Cookie: x", "/"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, SafeRedirect(tt.next, "/"), "next=%q", tt.next)
	}
}
