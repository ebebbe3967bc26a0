package events

import (
	"context"
	"fmt"
	"strconv"

	jsoniter "github.com/json-iterator/go"
	"github.com/redis/go-redis/v9"

	"campus_auction/internal/domain/entity"
)

// RedisChannel возвращает канал pub/sub событий лота.
func RedisChannel(prefix string, itemID int64) string {
	return prefix + ":" + strconv.FormatInt(itemID, 10)
}

// RedisPublisher рассылает события подписчикам лота через Redis pub/sub.
// Доставка без гарантий: подписчик, которого нет онлайн, событие не получит.
type RedisPublisher struct {
	client *redis.Client
	prefix string
}

func NewRedisPublisher(client *redis.Client, prefix string) *RedisPublisher {
	if prefix == "" {
		prefix = "auction_events"
	}
	return &RedisPublisher{client: client, prefix: prefix}
}

func (p *RedisPublisher) Publish(ctx context.Context, event entity.AuctionEvent) error {
	payload, err := jsoniter.Marshal(event)
	if err != nil {
		return fmt.Errorf("jsoniter.Marshal: %w", err)
	}

	if err := p.client.Publish(ctx, RedisChannel(p.prefix, event.ItemID), payload).Err(); err != nil {
		return fmt.Errorf("redis.Publish: %w", err)
	}

	return nil
}
