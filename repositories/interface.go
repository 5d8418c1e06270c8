package repositories

import (
	"context"
	"errors"
	"time"

	"articles-server/entities"
)

var (
	ErrNotFound  = errors.New("record not found")
	ErrDuplicate = errors.New("duplicate record")
)

type UserRepository interface {
	Create(ctx context.Context, user *entities.User) error
	GetByID(ctx context.Context, id string) (*entities.User, error)
	GetByEmail(ctx context.Context, email string) (*entities.User, error)
	GetByUsername(ctx context.Context, username string) (*entities.User, error)
}

type ArticleRepository interface {
	Create(ctx context.Context, article *entities.Article) error
	GetByID(ctx context.Context, id string) (*entities.Article, error)
	GetAll(ctx context.Context) ([]entities.Article, error)
	GetByUserID(ctx context.Context, userID string) ([]entities.Article, error)
	Update(ctx context.Context, article *entities.Article) error
	Delete(ctx context.Context, id string) error
}

type SessionRepository interface {
	Create(ctx context.Context, session *entities.Session) error
	GetByID(ctx context.Context, id string) (*entities.Session, error)
	Delete(ctx context.Context, id string) error
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}
