package session

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/go-redis/redis/v8"

	"notify-gateway/config"
	"notify-gateway/models"
)

const (
	keyToken    = "session:token"
	keyUser     = "session:user"
	keyVendorID = "session:vendorId"
)

// RedisStore keeps session state in Redis so it survives gateway restarts
// and can be written by the dashboard's login flow.
type RedisStore struct {
	client *redis.Client
	ctx    context.Context
	logger *slog.Logger
}

func NewRedisStore(cfg *config.Config, logger *slog.Logger) (*RedisStore, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     fmt.Sprintf("%s:%s", cfg.RedisHost, cfg.RedisPort),
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})

	ctx := context.Background()

	if _, err := rdb.Ping(ctx).Result(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisStore{
		client: rdb,
		ctx:    ctx,
		logger: logger.With("component", "session_store"),
	}, nil
}

func (s *RedisStore) Identity() (models.Identity, bool) {
	raw, err := s.client.Get(s.ctx, keyUser).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("Failed to read session identity", slog.Any("error", err))
		}
		return models.Identity{}, false
	}

	var identity models.Identity
	if err := json.Unmarshal([]byte(raw), &identity); err != nil {
		s.logger.Error("Failed to decode session identity", slog.Any("error", err))
		return models.Identity{}, false
	}
	if identity.UserID == "" || identity.Role == "" {
		return models.Identity{}, false
	}
	return identity, true
}

func (s *RedisStore) Credential() (string, bool) {
	token, err := s.client.Get(s.ctx, keyToken).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("Failed to read session token", slog.Any("error", err))
		}
		return "", false
	}
	return token, token != ""
}

func (s *RedisStore) VendorID() (string, bool) {
	vendorID, err := s.client.Get(s.ctx, keyVendorID).Result()
	if err != nil {
		if err != redis.Nil {
			s.logger.Error("Failed to read vendor ID", slog.Any("error", err))
		}
		return "", false
	}
	return vendorID, vendorID != ""
}

func (s *RedisStore) SaveSession(identity models.Identity, token string) error {
	raw, err := json.Marshal(identity)
	if err != nil {
		return fmt.Errorf("failed to encode session identity: %w", err)
	}
	if err := s.client.Set(s.ctx, keyUser, raw, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session identity: %w", err)
	}
	if err := s.client.Set(s.ctx, keyToken, token, 0).Err(); err != nil {
		return fmt.Errorf("failed to save session token: %w", err)
	}
	return nil
}

func (s *RedisStore) SaveVendorID(vendorID string) error {
	if err := s.client.Set(s.ctx, keyVendorID, vendorID, 0).Err(); err != nil {
		return fmt.Errorf("failed to save vendor ID: %w", err)
	}
	return nil
}

func (s *RedisStore) Clear() {
	if err := s.client.Del(s.ctx, keyToken, keyUser, keyVendorID).Err(); err != nil {
		s.logger.Error("Failed to clear session state", slog.Any("error", err))
	}
}

func (s *RedisStore) Close() error {
	return s.client.Close()
}
