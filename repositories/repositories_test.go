package repositories

import (
	"context"
	"testing"
	"time"

	"articles-server/confs"
	"articles-server/db"
	"articles-server/entities"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func newTestDB(t *testing.T) db.Database {
	t.Helper()
	database, err := db.Connect(confs.DatabaseConfig{
		Driver:      "sqlite",
		Path:        ":memory:",
		LogLevel:    "silent",
		AutoMigrate: true,
	}, zap.NewNop())
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.(*db.GormDatabase).Close() })
	return database
}

func createUser(t *testing.T, repo UserRepository, username, email string) *entities.User {
	t.Helper()
	u := &entities.User{Username: username, Email: email, PasswordHash: "hash"}
	require.NoError(t, repo.Create(context.Background(), u))
	require.NotEmpty(t, u.ID)
	return u
}

func TestUserRepository(t *testing.T) {
	ctx := context.Background()
	repo := NewUserPgRepository(newTestDB(t))

	alice := createUser(t, repo, "alice", "alice@example.com")

	got, err := repo.GetByEmail(ctx, "alice@example.com")
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.ID)

	got, err = repo.GetByUsername(ctx, "alice")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", got.Email)

	got, err = repo.GetByID(ctx, alice.ID)
	require.NoError(t, err)
	assert.Equal(t, "alice", got.Username)

	_, err = repo.GetByEmail(ctx, "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)

	t.Run("duplicate email", func(t *testing.T) {
		err := repo.Create(ctx, &entities.User{Username: "alice2", Email: "alice@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})

	t.Run("duplicate username", func(t *testing.T) {
		err := repo.Create(ctx, &entities.User{Username: "alice", Email: "other@example.com", PasswordHash: "x"})
		assert.ErrorIs(t, err, ErrDuplicate)
	})
}

func TestArticleRepository(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	users := NewUserPgRepository(database)
	repo := NewArticlePgRepository(database)

	alice := createUser(t, users, "alice", "alice@example.com")
	bob := createUser(t, users, "bob", "bob@example.com")

	base := time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC)
	first := &entities.Article{Title: "first", Content: "a", UserID: alice.ID, CreatedAt: base}
	second := &entities.Article{Title: "second", UserID: bob.ID, CreatedAt: base.Add(time.Minute)}
	third := &entities.Article{Title: "third", UserID: alice.ID, CreatedAt: base.Add(2 * time.Minute)}
	for _, a := range []*entities.Article{first, second, third} {
		require.NoError(t, repo.Create(ctx, a))
	}

	t.Run("get all newest first with author", func(t *testing.T) {
		all, err := repo.GetAll(ctx)
		require.NoError(t, err)
		require.Len(t, all, 3)
		assert.Equal(t, []string{"third", "second", "first"}, titles(all))
		assert.Equal(t, "alice", all[0].Author.Username)
	})

	t.Run("get by user", func(t *testing.T) {
		owned, err := repo.GetByUserID(ctx, alice.ID)
		require.NoError(t, err)
		assert.Equal(t, []string{"third", "first"}, titles(owned))
	})

	t.Run("update", func(t *testing.T) {
		first.Title = "first (edited)"
		first.Content = ""
		require.NoError(t, repo.Update(ctx, first))

		got, err := repo.GetByID(ctx, first.ID)
		require.NoError(t, err)
		assert.Equal(t, "first (edited)", got.Title)
		assert.Empty(t, got.Content)
	})

	t.Run("update missing", func(t *testing.T) {
		err := repo.Update(ctx, &entities.Article{ID: "missing", Title: "x"})
		assert.ErrorIs(t, err, ErrNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		require.NoError(t, repo.Delete(ctx, second.ID))
		_, err := repo.GetByID(ctx, second.ID)
		assert.ErrorIs(t, err, ErrNotFound)
		assert.ErrorIs(t, repo.Delete(ctx, second.ID), ErrNotFound)
	})
}

func TestSessionRepository(t *testing.T) {
	ctx := context.Background()
	database := newTestDB(t)
	users := NewUserPgRepository(database)
	repo := NewSessionPgRepository(database)

	alice := createUser(t, users, "alice", "alice@example.com")
	now := time.Now().UTC()

	live := &entities.Session{UserID: alice.ID, ExpiresAt: now.Add(time.Hour)}
	stale := &entities.Session{UserID: alice.ID, ExpiresAt: now.Add(-time.Hour)}
	require.NoError(t, repo.Create(ctx, live))
	require.NoError(t, repo.Create(ctx, stale))

	got, err := repo.GetByID(ctx, live.ID)
	require.NoError(t, err)
	assert.Equal(t, alice.ID, got.UserID)

	n, err := repo.DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.EqualValues(t, 1, n)

	require.NoError(t, repo.Delete(ctx, live.ID))
	require.NoError(t, repo.Delete(ctx, live.ID), "deleting twice is a no-op")

	_, err = repo.GetByID(ctx, live.ID)
	assert.ErrorIs(t, err, ErrNotFound)
}

func titles(articles []entities.Article) []string {
	out := make([]string, 0, len(articles))
	for _, a := range articles {
		out = append(out, a.Title)
	}
	return out
}
