package services

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	// RememberSessionDuration is used when the user ticks "remember me"
	RememberSessionDuration = 14 * 24 * time.Hour
	// DefaultBrowserSessionDuration bounds sessions whose cookie dies with the browser
	DefaultBrowserSessionDuration = 24 * time.Hour
	// SessionKeyPrefix is the Redis key prefix for sessions
	SessionKeyPrefix = "session:"
	// UserSessionKeyPrefix is the Redis key prefix for user->session mapping
	UserSessionKeyPrefix = "user_session:"
)

type SessionService struct {
	rdb redis.Cmdable
}

func NewSessionService(rdb redis.Cmdable) *SessionService {
	return &SessionService{rdb: rdb}
}

// CreateSession creates a new session for a user and stores it in Redis.
// Any previous session of the same user is invalidated first.
func (s *SessionService) CreateSession(ctx context.Context, userID int64, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		ttl = DefaultBrowserSessionDuration
	}
	if err := s.InvalidateUserSessions(ctx, userID); err != nil {
		return "", err
	}

	tokenBytes := make([]byte, 32)
	if _, err := rand.Read(tokenBytes); err != nil {
		return "", err
	}
	sessionToken := base64.URLEncoding.EncodeToString(tokenBytes)

	id := strconv.FormatInt(userID, 10)
	pipe := s.rdb.TxPipeline()
	pipe.Set(ctx, SessionKeyPrefix+sessionToken, id, ttl)
	pipe.Set(ctx, UserSessionKeyPrefix+id, sessionToken, ttl)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("store session: %w", err)
	}

	return sessionToken, nil
}

// ValidateSession checks if a session token is valid and returns the user ID
func (s *SessionService) ValidateSession(ctx context.Context, sessionToken string) (int64, bool, error) {
	if sessionToken == "" {
		return 0, false, nil
	}

	userIDStr, err := s.rdb.Get(ctx, SessionKeyPrefix+sessionToken).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}

	userID, err := strconv.ParseInt(userIDStr, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return userID, true, nil
}

// InvalidateSession removes a session from Redis
func (s *SessionService) InvalidateSession(ctx context.Context, sessionToken string) error {
	if sessionToken == "" {
		return nil
	}

	sessionKey := SessionKeyPrefix + sessionToken

	userIDStr, err := s.rdb.Get(ctx, sessionKey).Result()
	if err == nil && userIDStr != "" {
		userSessionKey := UserSessionKeyPrefix + userIDStr
		// Only drop the mapping if it still points at this session.
		if current, _ := s.rdb.Get(ctx, userSessionKey).Result(); current == sessionToken {
			s.rdb.Del(ctx, userSessionKey)
		}
	}

	return s.rdb.Del(ctx, sessionKey).Err()
}

// InvalidateUserSessions invalidates all sessions for a user (used when the password changes)
func (s *SessionService) InvalidateUserSessions(ctx context.Context, userID int64) error {
	userSessionKey := UserSessionKeyPrefix + strconv.FormatInt(userID, 10)

	sessionToken, err := s.rdb.Get(ctx, userSessionKey).Result()
	if err == nil && sessionToken != "" {
		s.rdb.Del(ctx, SessionKeyPrefix+sessionToken)
	}

	return s.rdb.Del(ctx, userSessionKey).Err()
}
