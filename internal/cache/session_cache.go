package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	redisv9 "github.com/redis/go-redis/v9"

	"gopherai-docchat/internal/model"
)

// generation counters outlive any snapshot by a wide margin
const generationTTL = 24 * time.Hour

var errStaleSnapshot = errors.New("stale session snapshot")

// SessionCache holds session snapshots (with their messages) in redis.
// Writers call Invalidate, which bumps the session generation, drops the
// snapshot and leaves a short-lived dirty marker. Readers take the generation
// before loading from the database and Set only stores the snapshot if that
// generation is still current and no marker is present.
type SessionCache struct {
	client         *redisv9.Client
	sessionTTL     time.Duration
	dirtyMarkerTTL time.Duration
}

func NewSessionCache(client *redisv9.Client, sessionTTL, dirtyMarkerTTL time.Duration) *SessionCache {
	if sessionTTL <= 0 {
		sessionTTL = 60 * time.Second
	}
	if dirtyMarkerTTL <= 0 {
		dirtyMarkerTTL = 5 * time.Second
	}
	return &SessionCache{
		client:         client,
		sessionTTL:     sessionTTL,
		dirtyMarkerTTL: dirtyMarkerTTL,
	}
}

func (c *SessionCache) Get(ctx context.Context, sessionID uint) (*model.ChatSession, bool, error) {
	raw, err := c.client.Get(ctx, c.sessionKey(sessionID)).Bytes()
	if err == redisv9.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get session failed: %w", err)
	}

	var session model.ChatSession
	if err := json.Unmarshal(raw, &session); err != nil {
		return nil, false, fmt.Errorf("unmarshal cached session failed: %w", err)
	}
	for i := range session.Messages {
		session.Messages[i].SessionID = session.ID
	}
	return &session, true, nil
}

// Generation returns the session's write counter. Read it before loading the
// session from the database and hand it to Set.
func (c *SessionCache) Generation(ctx context.Context, sessionID uint) (int64, error) {
	gen, err := c.client.Get(ctx, c.generationKey(sessionID)).Int64()
	if err == redisv9.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("redis get session generation failed: %w", err)
	}
	return gen, nil
}

// Set stores the snapshot only when generation is still current and the
// session is not marked dirty, checked and written in one WATCH transaction.
// It reports whether the snapshot was stored.
func (c *SessionCache) Set(ctx context.Context, session *model.ChatSession, generation int64) (bool, error) {
	payload, err := json.Marshal(session)
	if err != nil {
		return false, fmt.Errorf("marshal session cache failed: %w", err)
	}

	genKey, dirtyKey := c.generationKey(session.ID), c.dirtyKey(session.ID)
	err = c.client.Watch(ctx, func(tx *redisv9.Tx) error {
		current, err := tx.Get(ctx, genKey).Int64()
		if err != nil && err != redisv9.Nil {
			return err
		}
		if current != generation {
			return errStaleSnapshot
		}
		dirty, err := tx.Exists(ctx, dirtyKey).Result()
		if err != nil {
			return err
		}
		if dirty > 0 {
			return errStaleSnapshot
		}
		_, err = tx.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
			pipe.Set(ctx, c.sessionKey(session.ID), payload, c.sessionTTL)
			return nil
		})
		return err
	}, genKey, dirtyKey)

	switch {
	case err == nil:
		return true, nil
	case errors.Is(err, errStaleSnapshot), errors.Is(err, redisv9.TxFailedErr):
		return false, nil
	default:
		return false, fmt.Errorf("redis set session failed: %w", err)
	}
}

func (c *SessionCache) Invalidate(ctx context.Context, sessionID uint) error {
	_, err := c.client.TxPipelined(ctx, func(pipe redisv9.Pipeliner) error {
		pipe.Incr(ctx, c.generationKey(sessionID))
		pipe.Expire(ctx, c.generationKey(sessionID), generationTTL)
		pipe.Set(ctx, c.dirtyKey(sessionID), "1", c.dirtyMarkerTTL)
		pipe.Del(ctx, c.sessionKey(sessionID))
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis invalidate session failed: %w", err)
	}
	return nil
}

func (c *SessionCache) IsDirty(ctx context.Context, sessionID uint) (bool, error) {
	exists, err := c.client.Exists(ctx, c.dirtyKey(sessionID)).Result()
	if err != nil {
		return false, fmt.Errorf("redis check dirty marker failed: %w", err)
	}
	return exists > 0, nil
}

func (c *SessionCache) Ping(ctx context.Context) error {
	return c.client.Ping(ctx).Err()
}

func (c *SessionCache) sessionKey(sessionID uint) string {
	return fmt.Sprintf("docchat:session:%d", sessionID)
}

func (c *SessionCache) dirtyKey(sessionID uint) string {
	return fmt.Sprintf("docchat:session:dirty:%d", sessionID)
}

func (c *SessionCache) generationKey(sessionID uint) string {
	return fmt.Sprintf("docchat:session:gen:%d", sessionID)
}
