package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"

	"flightbook/config"
)

const appDir = "flightbook"

var ErrCacheMiss = errors.New("cache miss")

// Cache stores opaque payloads by key. Freshness is decided by the envelope, not the backend.
type Cache interface {
	Get(ctx context.Context, key string) ([]byte, error)
	Set(ctx context.Context, key string, payload []byte) error
}

type cacheEnvelope[T any] struct {
	UpdatedAt time.Time `json:"updated_at"`
	Data      T         `json:"data"`
}

// Load returns the cached value, whether it is younger than ttl, and any backend error.
// A miss is not an error.
func Load[T any](ctx context.Context, c Cache, key string, ttl time.Duration) (T, bool, error) {
	var zero T
	payload, err := c.Get(ctx, key)
	if err != nil {
		if errors.Is(err, ErrCacheMiss) {
			return zero, false, nil
		}
		return zero, false, err
	}
	var cache cacheEnvelope[T]
	if err := json.Unmarshal(payload, &cache); err != nil {
		return zero, false, err
	}
	return cache.Data, time.Since(cache.UpdatedAt) <= ttl, nil
}

func Save[T any](ctx context.Context, c Cache, key string, data T) error {
	payload, err := json.Marshal(cacheEnvelope[T]{
		UpdatedAt: time.Now(),
		Data:      data,
	})
	if err != nil {
		return err
	}
	return c.Set(ctx, key, payload)
}

// Open builds the cache backend selected in the config. The closer releases backend connections.
func Open(cfg config.Cache) (Cache, io.Closer, error) {
	switch cfg.Backend {
	case config.CacheNone:
		return NopCache{}, io.NopCloser(nil), nil
	case config.CacheRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		return NewRedisCache(client, appDir, cfg.AirportTTL), client, nil
	case config.CacheFile, "":
		c, err := DefaultFileCache()
		if err != nil {
			return nil, nil, err
		}
		return c, io.NopCloser(nil), nil
	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Backend)
	}
}

// FileCache keeps one JSON file per key under a directory.
type FileCache struct {
	dir string
}

func NewFileCache(dir string) *FileCache {
	return &FileCache{dir: dir}
}

func DefaultFileCache() (*FileCache, error) {
	dir, err := os.UserCacheDir()
	if err != nil {
		return nil, err
	}
	return NewFileCache(filepath.Join(dir, appDir)), nil
}

func (f *FileCache) Get(_ context.Context, key string) ([]byte, error) {
	data, err := os.ReadFile(f.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrCacheMiss
		}
		return nil, err
	}
	return data, nil
}

func (f *FileCache) Set(_ context.Context, key string, payload []byte) error {
	path := f.path(key)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	return os.WriteFile(path, payload, 0o644)
}

func (f *FileCache) path(key string) string {
	return filepath.Join(f.dir, sanitizeKey(key)+".json")
}

type NopCache struct{}

func (NopCache) Get(context.Context, string) ([]byte, error) { return nil, ErrCacheMiss }
func (NopCache) Set(context.Context, string, []byte) error   { return nil }

func sanitizeKey(key string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		default:
			return '_'
		}
	}, key)
}
