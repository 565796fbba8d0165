package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const (
	PostsCntTTL       = 24 * time.Hour
	PostsCntKeyPrefix = "posts:cnt:community" // 社区帖子计数缓存
)

var ErrPostsCntMiss = errors.New("posts count cache miss")

// CommunityCacheRepository 社区帖子计数缓存。写路径先落 MySQL 再进这里，
// 读不到回源数据库，计数允许短暂落后。
type CommunityCacheRepository struct {
	postsCntTTL time.Duration
}

func NewCommunityCacheRepository() *CommunityCacheRepository {
	return &CommunityCacheRepository{postsCntTTL: PostsCntTTL}
}

func (r *CommunityCacheRepository) postsCntKey(communityID uint64) string {
	return fmt.Sprintf("%s:%d", PostsCntKeyPrefix, communityID)
}

func (r *CommunityCacheRepository) GetPostsCount(ctx context.Context, communityID uint64) (int64, error) {
	if Client == nil {
		return 0, ErrPostsCntMiss
	}
	val, err := Client.Get(ctx, r.postsCntKey(communityID)).Int64()
	if errors.Is(err, redis.Nil) {
		return 0, ErrPostsCntMiss
	}
	if err != nil {
		return 0, err
	}
	return val, nil
}

func (r *CommunityCacheRepository) SetPostsCount(ctx context.Context, communityID uint64, count int64) error {
	if Client == nil {
		return nil
	}
	return Client.Set(ctx, r.postsCntKey(communityID), count, r.postsCntTTL).Err()
}

func (r *CommunityCacheRepository) IncrPostsCount(ctx context.Context, communityID uint64, delta int64) error {
	if Client == nil {
		return nil
	}
	k := r.postsCntKey(communityID)
	if err := Client.IncrBy(ctx, k, delta).Err(); err != nil {
		return err
	}
	return Client.Expire(ctx, k, r.postsCntTTL).Err()
}

// InvalidatePostsCount 删除缓存键（幂等）
func (r *CommunityCacheRepository) InvalidatePostsCount(ctx context.Context, communityID uint64) error {
	if Client == nil {
		return nil
	}
	return Client.Del(ctx, r.postsCntKey(communityID)).Err()
}
