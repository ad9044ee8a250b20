package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"storefront/internal/domain/model"
	"storefront/internal/usecase"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	//Invalidateのたびに+1する。値はこの世代をキーに含めて保存する。
	topSellingGenerationKey = "products:top-selling:gen"
	topSellingKeyPrefix     = "products:top-selling:v"
)

func topSellingKey(generation int64) string {
	return topSellingKeyPrefix + strconv.FormatInt(generation, 10)
}

func InitRedis(addr, password string, logger *zap.Logger) (*redis.Client, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := rdb.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	logger.Info("Redis connection established", zap.String("addr", addr))
	return rdb, nil
}

// 売れ筋ランキングをJSONで丸ごと保存する。
// 古い世代のキーは読まれなくなり、TTLで消える。
type TopSellingRedisCache struct {
	rdb redis.Cmdable
	ttl time.Duration
}

func NewTopSellingRedisCache(rdb redis.Cmdable, ttl time.Duration) *TopSellingRedisCache {
	return &TopSellingRedisCache{rdb: rdb, ttl: ttl}
}

func (c *TopSellingRedisCache) Get(ctx context.Context) (usecase.CachedTopSelling, error) {
	gen, err := c.rdb.Get(ctx, topSellingGenerationKey).Int64()
	if errors.Is(err, redis.Nil) {
		gen = 0
	} else if err != nil {
		return usecase.CachedTopSelling{}, err
	}

	out := usecase.CachedTopSelling{Generation: gen}
	data, err := c.rdb.Get(ctx, topSellingKey(gen)).Bytes()
	if errors.Is(err, redis.Nil) {
		return out, nil
	}
	if err != nil {
		return usecase.CachedTopSelling{}, err
	}

	var products []model.Product
	if err := json.Unmarshal(data, &products); err != nil {
		//壊れた値はミス扱い。呼び出し側で計算し直す
		return usecase.CachedTopSelling{}, fmt.Errorf("decode top selling cache: %w", err)
	}
	out.Products = products
	out.Hit = true
	return out, nil
}

func (c *TopSellingRedisCache) Set(ctx context.Context, generation int64, products []model.Product) error {
	data, err := json.Marshal(products)
	if err != nil {
		return err
	}
	return c.rdb.Set(ctx, topSellingKey(generation), data, c.ttl).Err()
}

func (c *TopSellingRedisCache) Invalidate(ctx context.Context) error {
	return c.rdb.Incr(ctx, topSellingGenerationKey).Err()
}
