package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/alejandrodnm/dexsniper/internal/domain"
	"github.com/alejandrodnm/dexsniper/internal/ports"
)

const (
	DefaultCacheTTL = 30 * time.Second
	goodTradesKey   = "dexsniper:good_trades"
)

// CachedStore envuelve un store primario con una caché read-through en Redis.
// Las escrituras van al primario e invalidan la caché; las lecturas prueban
// Redis primero. Un fallo de Redis nunca es fatal: se lee del primario.
type CachedStore struct {
	primary ports.TokenStore
	rdb     *redis.Client
	ttl     time.Duration
}

// NewRedisClient parsea la URL y verifica la conexión.
func NewRedisClient(ctx context.Context, url string) (*redis.Client, error) {
	opts, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("storage.NewRedisClient: parse url: %w", err)
	}
	rdb := redis.NewClient(opts)
	if err := rdb.Ping(ctx).Err(); err != nil {
		rdb.Close()
		return nil, fmt.Errorf("storage.NewRedisClient: ping: %w", err)
	}
	return rdb, nil
}

// NewCachedStore crea el wrapper. ttl <= 0 usa DefaultCacheTTL.
func NewCachedStore(primary ports.TokenStore, rdb *redis.Client, ttl time.Duration) *CachedStore {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &CachedStore{primary: primary, rdb: rdb, ttl: ttl}
}

// --- escrituras: primario + invalidación ---

func (s *CachedStore) SaveToken(ctx context.Context, doc domain.TokenDocument) error {
	if err := s.primary.SaveToken(ctx, doc); err != nil {
		return err
	}
	s.invalidate(ctx, tokenKey(doc.TokenAddress), goodTradesKey)
	return nil
}

func (s *CachedStore) AppendTrade(ctx context.Context, tokenAddress string, trade domain.TradeRecord) error {
	if err := s.primary.AppendTrade(ctx, tokenAddress, trade); err != nil {
		return err
	}
	s.invalidate(ctx, tokenKey(tokenAddress), goodTradesKey)
	return nil
}

// --- lecturas: caché primero ---

func (s *CachedStore) GetToken(ctx context.Context, tokenAddress string) (domain.TokenDocument, error) {
	if data, err := s.rdb.Get(ctx, tokenKey(tokenAddress)).Bytes(); err == nil {
		var doc domain.TokenDocument
		if json.Unmarshal(data, &doc) == nil {
			return doc, nil
		}
	}

	doc, err := s.primary.GetToken(ctx, tokenAddress)
	if err != nil {
		return domain.TokenDocument{}, err
	}
	s.set(ctx, tokenKey(tokenAddress), doc)
	return doc, nil
}

func (s *CachedStore) FindGoodTrades(ctx context.Context) ([]domain.TokenDocument, error) {
	if data, err := s.rdb.Get(ctx, goodTradesKey).Bytes(); err == nil {
		var docs []domain.TokenDocument
		if json.Unmarshal(data, &docs) == nil {
			return docs, nil
		}
	}

	docs, err := s.primary.FindGoodTrades(ctx)
	if err != nil {
		return nil, err
	}
	s.set(ctx, goodTradesKey, docs)
	return docs, nil
}

// Close cierra el primario y el cliente Redis.
func (s *CachedStore) Close() error {
	err := s.primary.Close()
	if cerr := s.rdb.Close(); err == nil {
		err = cerr
	}
	return err
}

// --- helpers ---

func (s *CachedStore) set(ctx context.Context, key string, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		return
	}
	if err := s.rdb.Set(ctx, key, data, s.ttl).Err(); err != nil {
		slog.Debug("cache: set failed", "key", key, "err", err)
	}
}

func (s *CachedStore) invalidate(ctx context.Context, keys ...string) {
	if err := s.rdb.Del(ctx, keys...).Err(); err != nil {
		slog.Warn("cache: invalidate failed", "keys", keys, "err", err)
	}
}

func tokenKey(addr string) string { return fmt.Sprintf("dexsniper:token:%s", addr) }
