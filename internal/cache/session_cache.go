package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"surveyassist/internal/model"
)

// SessionStore persists answer sessions between requests
type SessionStore interface {
	// Create stores a new session and reports false if the id is already taken
	Create(ctx context.Context, session *model.AnswerSession) (bool, error)
	Save(ctx context.Context, session *model.AnswerSession) error
	// Get returns nil, nil when the session does not exist or has expired
	Get(ctx context.Context, id string) (*model.AnswerSession, error)
}

type sessionCache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewSessionCache creates a redis-backed session store
func NewSessionCache(client *redis.Client, ttl time.Duration) SessionStore {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &sessionCache{
		client: client,
		ttl:    ttl,
	}
}

func (c *sessionCache) sessionKey(id string) string {
	return fmt.Sprintf("survey:session:%s", id)
}

func (c *sessionCache) Create(ctx context.Context, session *model.AnswerSession) (bool, error) {
	data, err := json.Marshal(session)
	if err != nil {
		return false, fmt.Errorf("failed to marshal session: %w", err)
	}
	ok, err := c.client.SetNX(ctx, c.sessionKey(session.ID), data, c.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("failed to create session: %w", err)
	}
	return ok, nil
}

func (c *sessionCache) Save(ctx context.Context, session *model.AnswerSession) error {
	data, err := json.Marshal(session)
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}
	if err := c.client.Set(ctx, c.sessionKey(session.ID), data, c.ttl).Err(); err != nil {
		return fmt.Errorf("failed to save session: %w", err)
	}
	return nil
}

func (c *sessionCache) Get(ctx context.Context, id string) (*model.AnswerSession, error) {
	data, err := c.client.Get(ctx, c.sessionKey(id)).Bytes()
	if err == redis.Nil {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get session: %w", err)
	}
	var session model.AnswerSession
	if err := json.Unmarshal(data, &session); err != nil {
		return nil, fmt.Errorf("failed to unmarshal session: %w", err)
	}
	return &session, nil
}
