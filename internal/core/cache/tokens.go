package cache

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

const resetPrefix = "pwreset:"

// IssueResetToken 记录一次性密码重置 token → userID，带 TTL
func (c *Cache) IssueResetToken(ctx context.Context, token, userID string, ttl time.Duration) error {
	return c.RDB.Set(ctx, resetPrefix+token, userID, ttl).Err()
}

// ConsumeResetToken 取出并删除（单次有效）。token 不存在或过期返回空串。
func (c *Cache) ConsumeResetToken(ctx context.Context, token string) (string, error) {
	uid, err := c.RDB.GetDel(ctx, resetPrefix+token).Result()
	if err == redis.Nil {
		return "", nil
	}
	return uid, err
}
