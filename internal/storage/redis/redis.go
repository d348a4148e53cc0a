package redis

import (
	"Brokerage/internal/config"
	"Brokerage/internal/domain/models"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"time"

	"github.com/go-redis/redis/v8"
)

const prefix = "brokerage:quotes"

var ErrQuoteNotCached = errors.New("quote not cached")

// Redis caches provider quotes under a per-symbol key with a TTL, so an
// expired entry is simply a miss.
type Redis struct {
	client *redis.Client
}

func New(redisConfig config.RedisConfig) *Redis {
	redisClient := redis.NewClient(&redis.Options{
		Addr:     redisConfig.Host + ":" + strconv.Itoa(redisConfig.Port),
		Password: redisConfig.Password,
		DB:       redisConfig.Db,
	})

	return &Redis{
		client: redisClient,
	}
}

func (s *Redis) GetQuote(ctx context.Context, symbol string) (models.Quote, error) {
	log := slog.With("method", "GetQuote")

	data, err := s.client.Get(ctx, prefix+":"+symbol).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return models.Quote{}, ErrQuoteNotCached
		}
		log.Error("failed to get quote", "symbol", symbol, "err", err)
		return models.Quote{}, fmt.Errorf("failed to get quote: %w", err)
	}

	var quote models.Quote
	if err := json.Unmarshal([]byte(data), &quote); err != nil {
		log.Error("failed to unmarshal quote", "data", data, "err", err)
		return models.Quote{}, fmt.Errorf("failed to unmarshal quote: %w", err)
	}

	return quote, nil
}

func (s *Redis) SaveQuote(ctx context.Context, quote models.Quote, ttl time.Duration) error {
	log := slog.With("method", "SaveQuote")

	value, err := json.Marshal(quote)
	if err != nil {
		return fmt.Errorf("failed to marshal quote: %w", err)
	}

	key := fmt.Sprintf("%s:%s", prefix, quote.Symbol)
	if err := s.client.Set(ctx, key, value, ttl).Err(); err != nil {
		log.Error("failed to save quote", "symbol", quote.Symbol, "err", err)
		return fmt.Errorf("failed to save quote: %w", err)
	}

	return nil
}

func (s *Redis) SaveQuotes(ctx context.Context, quotes []models.Quote, ttl time.Duration) error {
	log := slog.With("method", "SaveQuotes")
	pipe := s.client.Pipeline()

	for _, quote := range quotes {
		key := fmt.Sprintf("%s:%s", prefix, quote.Symbol)
		value, _ := json.Marshal(quote)
		pipe.Set(ctx, key, value, ttl)
	}
	_, err := pipe.Exec(ctx)
	if err != nil {
		log.Error("failed to save quotes", "err", err)
		return fmt.Errorf("failed to save quotes: %w", err)
	}

	return nil
}
