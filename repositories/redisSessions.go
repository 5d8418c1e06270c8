package repositories

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"articles-server/entities"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

const sessionKeyPrefix = "articles:session:"

type sessionRedisRepository struct {
	client *redis.Client
	now    func() time.Time
}

// NewSessionRedisRepository stores sessions as JSON values whose TTL
// matches the session expiry, so redis evicts them on its own.
func NewSessionRedisRepository(client *redis.Client) SessionRepository {
	return &sessionRedisRepository{client: client, now: time.Now}
}

func sessionKey(id string) string {
	return sessionKeyPrefix + id
}

func (r *sessionRedisRepository) Create(ctx context.Context, session *entities.Session) error {
	if session.ID == "" {
		session.ID = uuid.New().String()
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = r.now().UTC()
	}

	ttl := session.ExpiresAt.Sub(r.now())
	if ttl <= 0 {
		// already expired; nothing a lookup could ever accept
		return nil
	}

	payload, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("encode session: %w", err)
	}
	ok, err := r.client.SetNX(ctx, sessionKey(session.ID), payload, ttl).Result()
	if err != nil {
		return err
	}
	if !ok {
		return ErrDuplicate
	}
	return nil
}

func (r *sessionRedisRepository) GetByID(ctx context.Context, id string) (*entities.Session, error) {
	payload, err := r.client.Get(ctx, sessionKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	var session entities.Session
	if err := json.Unmarshal(payload, &session); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", id, err)
	}
	return &session, nil
}

// Delete removes a session. Deleting a missing session is not an error.
func (r *sessionRedisRepository) Delete(ctx context.Context, id string) error {
	return r.client.Del(ctx, sessionKey(id)).Err()
}

// DeleteExpired is a no-op: keys carry their own TTL.
func (r *sessionRedisRepository) DeleteExpired(context.Context, time.Time) (int64, error) {
	return 0, nil
}
