package data

import (
	"context"
	"encoding/json"
	"strconv"

	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog/log"

	"github.com/atulbakery/ishan-assistant/src/session"
)

const streamOrders = "ishan.orders"

func MustRedis(url string) *redis.Client {
	opt, err := redis.ParseURL(url)
	if err != nil {
		log.Fatal().Err(err).Msg("redis")
	}
	return redis.NewClient(opt)
}

func PublishOrder(ctx context.Context, rdb *redis.Client, payload map[string]interface{}) error {
	_, err := rdb.XAdd(ctx, &redis.XAddArgs{
		Stream: streamOrders,
		Values: payload,
	}).Result()
	return errors.Wrap(err, "publish order")
}

// OrderStream publishes confirmed orders to the shop's Redis stream.
type OrderStream struct {
	rdb *redis.Client
}

func NewOrderStream(rdb *redis.Client) *OrderStream {
	return &OrderStream{rdb: rdb}
}

func (s *OrderStream) Name() string { return "redis-stream" }

func (s *OrderStream) OrderConfirmed(ctx context.Context, c session.Confirmation) error {
	items, err := json.Marshal(c.Order.Items())
	if err != nil {
		return errors.Wrap(err, "encode order items")
	}
	return PublishOrder(ctx, s.rdb, map[string]interface{}{
		"session":   c.SessionID,
		"persona":   c.PersonaID,
		"items":     string(items),
		"total":     strconv.FormatInt(c.Order.TotalAmount(), 10),
		"message":   c.Handoff.Message,
		"url":       c.Handoff.URL,
		"confirmed": c.ConfirmedAt.UTC().Unix(),
	})
}
