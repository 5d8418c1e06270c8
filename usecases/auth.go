package usecases

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"articles-server/entities"
	"articles-server/repositories"

	"github.com/go-playground/validator/v10"
)

// PasswordHasher is a one-way hash with verify.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(hash, password string) (bool, error)
}

// TokenCodec turns a session into an opaque signed token and back.
type TokenCodec interface {
	Issue(sessionID, userID string, expiresAt time.Time) (string, error)
	Parse(token string) (sessionID, userID string, err error)
}

// SessionGrant is the result of a successful login.
type SessionGrant struct {
	Token     string
	User      *entities.User
	ExpiresAt time.Time
	Remember  bool
}

type AuthUseCase struct {
	users            repositories.UserRepository
	sessions         repositories.SessionRepository
	hasher           PasswordHasher
	tokens           TokenCodec
	validate         *validator.Validate
	lifetime         time.Duration
	rememberLifetime time.Duration
	now              func() time.Time
}

func NewAuthUseCase(
	users repositories.UserRepository,
	sessions repositories.SessionRepository,
	hasher PasswordHasher,
	tokens TokenCodec,
	lifetime, rememberLifetime time.Duration,
) *AuthUseCase {
	return &AuthUseCase{
		users:            users,
		sessions:         sessions,
		hasher:           hasher,
		tokens:           tokens,
		validate:         validator.New(validator.WithRequiredStructEnabled()),
		lifetime:         lifetime,
		rememberLifetime: rememberLifetime,
		now:              time.Now,
	}
}

type registration struct {
	Username string `validate:"required,min=2,max=20"`
	Email    string `validate:"required,email,max=120"`
	Password string `validate:"required"`
}

// Register creates a user. It does not log the user in.
func (uc *AuthUseCase) Register(ctx context.Context, username, email, password string) (*entities.User, error) {
	reg := registration{
		Username: strings.TrimSpace(username),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: password,
	}

	verr := &ValidationError{}
	if err := uc.validate.Struct(reg); err != nil {
		var fieldErrs validator.ValidationErrors
		if !errors.As(err, &fieldErrs) {
			return nil, err
		}
		for _, fe := range fieldErrs {
			verr.add(FieldName(fe), FieldMessage(fe))
		}
	}

	if _, ok := verr.Fields["username"]; !ok {
		taken, err := uc.exists(ctx, uc.users.GetByUsername, reg.Username)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.add("username", "That username is taken. Please choose a different one.")
		}
	}
	if _, ok := verr.Fields["email"]; !ok {
		taken, err := uc.exists(ctx, uc.users.GetByEmail, reg.Email)
		if err != nil {
			return nil, err
		}
		if taken {
			verr.add("email", "That email is taken. Please choose a different one.")
		}
	}
	if err := verr.orNil(); err != nil {
		return nil, err
	}

	hash, err := uc.hasher.Hash(reg.Password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &entities.User{Username: reg.Username, Email: reg.Email, PasswordHash: hash}
	if err := uc.users.Create(ctx, user); err != nil {
		if errors.Is(err, repositories.ErrDuplicate) {
			// lost a race with a concurrent registration
			return nil, &ValidationError{Fields: map[string]string{
				"email": "That username or email is taken. Please choose a different one.",
			}}
		}
		return nil, fmt.Errorf("create user: %w", err)
	}
	return user, nil
}

func (uc *AuthUseCase) exists(ctx context.Context, lookup func(context.Context, string) (*entities.User, error), key string) (bool, error) {
	_, err := lookup(ctx, key)
	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, repositories.ErrNotFound):
		return false, nil
	default:
		return false, fmt.Errorf("lookup user: %w", err)
	}
}

// Authenticate checks credentials and opens a session. Unknown email and
// wrong password produce the same ErrAuthentication.
func (uc *AuthUseCase) Authenticate(ctx context.Context, email, password string, remember bool) (*SessionGrant, error) {
	user, err := uc.users.GetByEmail(ctx, strings.ToLower(strings.TrimSpace(email)))
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrAuthentication
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}

	ok, err := uc.hasher.Verify(user.PasswordHash, password)
	if err != nil || !ok {
		return nil, ErrAuthentication
	}

	lifetime := uc.lifetime
	if remember {
		lifetime = uc.rememberLifetime
	}
	now := uc.now().UTC()
	session := &entities.Session{
		UserID:    user.ID,
		Remember:  remember,
		ExpiresAt: now.Add(lifetime),
		CreatedAt: now,
	}
	if err := uc.sessions.Create(ctx, session); err != nil {
		return nil, fmt.Errorf("create session: %w", err)
	}

	token, err := uc.tokens.Issue(session.ID, user.ID, session.ExpiresAt)
	if err != nil {
		_ = uc.sessions.Delete(ctx, session.ID)
		return nil, err
	}

	return &SessionGrant{Token: token, User: user, ExpiresAt: session.ExpiresAt, Remember: remember}, nil
}

// EndSession revokes the session behind token. Unknown or malformed
// tokens are ignored, so calling it twice is harmless.
func (uc *AuthUseCase) EndSession(ctx context.Context, token string) error {
	if token == "" {
		return nil
	}
	sessionID, _, err := uc.tokens.Parse(token)
	if err != nil {
		return nil
	}
	if err := uc.sessions.Delete(ctx, sessionID); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}

// CurrentIdentity resolves a token to its user. It returns a nil user
// when there is no live session; the error is reserved for store failures.
func (uc *AuthUseCase) CurrentIdentity(ctx context.Context, token string) (*entities.User, error) {
	if token == "" {
		return nil, nil
	}
	sessionID, userID, err := uc.tokens.Parse(token)
	if err != nil {
		return nil, nil
	}

	session, err := uc.sessions.GetByID(ctx, sessionID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup session: %w", err)
	}
	if session.UserID != userID || session.Expired(uc.now()) {
		return nil, nil
	}

	user, err := uc.users.GetByID(ctx, session.UserID)
	if err != nil {
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	return user, nil
}

// PruneSessions deletes expired session rows and reports how many went.
func (uc *AuthUseCase) PruneSessions(ctx context.Context) (int64, error) {
	return uc.sessions.DeleteExpired(ctx, uc.now().UTC())
}

// SafeRedirect returns next when it is a local absolute path, otherwise
// fallback. It rejects scheme-relative ("//host") and backslash tricks.
func SafeRedirect(next, fallback string) string {
	if next == "" || !strings.HasPrefix(next, "/") {
		return fallback
	}
	if strings.HasPrefix(next, "//") || strings.ContainsAny(next, "\\\r\n\t") {
		return fallback
	}
	u, err := url.Parse(next)
	if err != nil || u.Scheme != "" || u.Host != "" || u.User != nil {
		return fallback
	}
	return next
}
