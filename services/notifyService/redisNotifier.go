package notifyService

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"perfectTipsBot/models"
)

type redisPublisher interface {
	Publish(ctx context.Context, channel string, message interface{}) *redis.IntCmd
}

// RedisNotifier publishes every report, quiet or not, as JSON on a pub/sub channel.
type RedisNotifier struct {
	client  redisPublisher
	channel string
	closer  func() error
}

func NewRedisNotifier(addr, channel string) *RedisNotifier {
	client := redis.NewClient(&redis.Options{Addr: addr})
	return &RedisNotifier{client: client, channel: channel, closer: client.Close}
}

func (r *RedisNotifier) Name() string { return "redis" }

func (r *RedisNotifier) NotifySettlement(ctx context.Context, report models.SettlementReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return err
	}
	return r.client.Publish(ctx, r.channel, payload).Err()
}

func (r *RedisNotifier) Close() error {
	if r.closer == nil {
		return nil
	}
	return r.closer()
}
