package storage

import (
	"context"
	"time"

	redisx "SProject/service/storage/redis"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
)

// Cross-gateway presence mirror. The in-process ConnManager is the source of
// truth for this node; redis only answers "which gateways can currently reach
// this user" so a remote node knows whether relaying is worth it. Advisory
// only: TTL-expired entries just mean the user looks offline remotely.

var ctx = context.Background()

// presence key: im:presence:<user>
// Value: set of gateway ids; TTL renewed on every touch.
func presenceKey(user string) string { return "im:presence:" + user }

// PresenceOnline 标记 user 可经 gatewayID 到达，并续期 TTL
func PresenceOnline(user, gatewayID string, ttl time.Duration) error {
	if !redisx.Ready() {
		return nil
	}
	rdb := redisx.GetRedis()
	pipe := rdb.TxPipeline()
	pipe.SAdd(ctx, presenceKey(user), gatewayID)
	pipe.Expire(ctx, presenceKey(user), ttl)
	_, err := pipe.Exec(ctx)
	return err
}

// PresenceOffline 该网关不再持有 user 的任何连接时调用
func PresenceOffline(user, gatewayID string) error {
	if !redisx.Ready() {
		return nil
	}
	return redisx.GetRedis().SRem(ctx, presenceKey(user), gatewayID).Err()
}

// PresenceLookup 返回当前可达 user 的网关列表
func PresenceLookup(user string) (gateways []string, online bool, err error) {
	if !redisx.Ready() {
		return nil, false, nil
	}
	vals, err := redisx.GetRedis().SMembers(ctx, presenceKey(user)).Result()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return vals, len(vals) > 0, nil
}
