package repositories

import (
	"context"

	"articles-server/db"
	"articles-server/entities"
)

type userPgRepository struct {
	db db.Database
}

func NewUserPgRepository(database db.Database) UserRepository {
	return &userPgRepository{db: database}
}

func (r *userPgRepository) Create(ctx context.Context, user *entities.User) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(user).Error)
}

func (r *userPgRepository) GetByID(ctx context.Context, id string) (*entities.User, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *userPgRepository) GetByEmail(ctx context.Context, email string) (*entities.User, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *userPgRepository) GetByUsername(ctx context.Context, username string) (*entities.User, error) {
	return r.first(ctx, "username = ?", username)
}

func (r *userPgRepository) first(ctx context.Context, query string, arg string) (*entities.User, error) {
	var user entities.User
	err := r.db.GetDB().WithContext(ctx).Where(query, arg).First(&user).Error
	if err != nil {
		return nil, translate(err)
	}
	return &user, nil
}
