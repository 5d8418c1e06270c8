package repositories

import (
	"context"
	"time"

	"articles-server/db"
	"articles-server/entities"
)

type sessionPgRepository struct {
	db db.Database
}

func NewSessionPgRepository(database db.Database) SessionRepository {
	return &sessionPgRepository{db: database}
}

func (r *sessionPgRepository) Create(ctx context.Context, session *entities.Session) error {
	return translate(r.db.GetDB().WithContext(ctx).Create(session).Error)
}

func (r *sessionPgRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	var session entities.Session
	err := r.db.GetDB().WithContext(ctx).Where("id = ?", id).First(&session).Error
	if err != nil {
		return nil, translate(err)
	}
	return &session, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *sessionPgRepository) Delete(ctx context.Context, id string) error {
	return translate(r.db.GetDB().WithContext(ctx).Where("id = ?", id).Delete(&entities.Session{}).Error)
}

func (r *sessionPgRepository) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.GetDB().WithContext(ctx).Where("expires_at <= ?", now).Delete(&entities.Session{})
	return res.RowsAffected, translate(res.Error)
}
