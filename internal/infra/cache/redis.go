package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math/rand"
	"strconv"
	"time"

	"refurbmarket/internal/domain/model"
	"refurbmarket/internal/logger"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

var ErrCacheMiss = errors.New("cache miss")

var errStaleLoad = errors.New("stale load")

// ヒット率を数える先（metrics.Metrics）
type LookupRecorder interface {
	CacheLookup(hit bool)
}

type noRecorder struct{}

func (noRecorder) CacheLookup(bool) {}

// 商品詳細のcache-aside。同じidの同時ミスはsingleflightで1回のDB読みにまとめる
type RedisProductCache struct {
	client  *redis.Client
	baseTTL time.Duration
	group   singleflight.Group
	rec     LookupRecorder
}

func NewRedisProductCache(client *redis.Client, ttl time.Duration, rec LookupRecorder) *RedisProductCache {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	if rec == nil {
		rec = noRecorder{}
	}
	return &RedisProductCache{client: client, baseTTL: ttl, rec: rec}
}

// 接続確認まで済ませたクライアント
func NewRedisClient(ctx context.Context, addr, password string) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{Addr: addr, Password: password})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	return client, nil
}

func (c *RedisProductCache) Get(ctx context.Context, id int64) (model.Product, error) {
	data, err := c.client.Get(ctx, cacheKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return model.Product{}, ErrCacheMiss
	}
	if err != nil {
		return model.Product{}, fmt.Errorf("redis get failed: %w", err)
	}

	var p model.Product
	if err := json.Unmarshal(data, &p); err != nil {
		return model.Product{}, fmt.Errorf("unmarshal product failed: %w", err)
	}
	return p, nil
}

func (c *RedisProductCache) Set(ctx context.Context, p model.Product) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	if err := c.client.Set(ctx, cacheKey(p.ID), b, c.ttl()).Err(); err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

// 読み込み開始時のversionのままなら書く。途中でInvalidateされていたら書かない
func (c *RedisProductCache) setIfVersion(ctx context.Context, p model.Product, ver string) error {
	b, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal product failed: %w", err)
	}

	vk := versionKey(p.ID)
	err = c.client.Watch(ctx, func(tx *redis.Tx) error {
		cur, err := tx.Get(ctx, vk).Result()
		if err != nil && !errors.Is(err, redis.Nil) {
			return err
		}
		if cur != ver {
			return errStaleLoad
		}
		_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
			pipe.Set(ctx, cacheKey(p.ID), b, c.ttl())
			return nil
		})
		return err
	}, vk)
	if errors.Is(err, errStaleLoad) || errors.Is(err, redis.TxFailedErr) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("redis set failed: %w", err)
	}
	return nil
}

func (c *RedisProductCache) version(ctx context.Context, id int64) (string, error) {
	v, err := c.client.Get(ctx, versionKey(id)).Result()
	if errors.Is(err, redis.Nil) {
		return "", nil
	}
	return v, err
}

// 一斉に切れないよう最大10%ずらす
func (c *RedisProductCache) ttl() time.Duration {
	return c.baseTTL + time.Duration(rand.Int63n(int64(c.baseTTL)/10+1))
}

// Redisが落ちていてもloadで返す（キャッシュは無いものとして動く）
func (c *RedisProductCache) GetOrLoad(ctx context.Context, id int64, load func(ctx context.Context) (model.Product, error)) (model.Product, error) {
	p, err := c.Get(ctx, id)
	if err == nil {
		c.rec.CacheLookup(true)
		return p, nil
	}
	if !errors.Is(err, ErrCacheMiss) {
		logger.WithCtx(ctx).Warn("product cache read failed", "product_id", id, "error", err)
	}
	c.rec.CacheLookup(false)

	v, err, _ := c.group.Do(cacheKey(id), func() (interface{}, error) {
		ver, verErr := c.version(ctx, id)
		loaded, err := load(ctx)
		if err != nil {
			return model.Product{}, err
		}
		if verErr != nil {
			logger.WithCtx(ctx).Warn("product cache write skipped", "product_id", id, "error", verErr)
			return loaded, nil
		}
		if err := c.setIfVersion(ctx, loaded, ver); err != nil {
			logger.WithCtx(ctx).Warn("product cache write failed", "product_id", id, "error", err)
		}
		return loaded, nil
	})
	if err != nil {
		return model.Product{}, err
	}
	return v.(model.Product), nil
}

func (c *RedisProductCache) Invalidate(ctx context.Context, ids ...int64) error {
	if len(ids) == 0 {
		return nil
	}
	// versionを上げてから消す。読み込み中のGetOrLoadは古い値を書かなくなる
	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		keys := make([]string, 0, len(ids))
		for _, id := range ids {
			pipe.Incr(ctx, versionKey(id))
			pipe.Expire(ctx, versionKey(id), 2*c.baseTTL)
			keys = append(keys, cacheKey(id))
		}
		pipe.Del(ctx, keys...)
		return nil
	})
	if err != nil {
		return fmt.Errorf("redis delete failed: %w", err)
	}
	return nil
}

func cacheKey(id int64) string {
	return "product:" + strconv.FormatInt(id, 10)
}

func versionKey(id int64) string {
	return "product:ver:" + strconv.FormatInt(id, 10)
}
