package realtime

import (
	"context"
	"encoding/json"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// eventsChannel is the single redis channel all processes share; the
// group name inside the envelope does the routing.
const eventsChannel = "plank.events"

type envelope struct {
	Group   string  `json:"group"`
	Close   bool    `json:"close,omitempty"`
	Message Message `json:"message"`
}

// Bridge fans group messages out across processes through redis
// pub/sub. Every publish goes to redis; Run delivers everything
// received from redis (including this process's own messages) into the
// local hub, so local subscribers are served exactly once.
type Bridge struct {
	rdb    *redis.Client
	hub    *Hub
	logger *zap.Logger
}

func NewBridge(rdb *redis.Client, hub *Hub, logger *zap.Logger) *Bridge {
	return &Bridge{
		rdb:    rdb,
		hub:    hub,
		logger: logger,
	}
}

// Publish sends the message to every process's hub via redis. If redis
// is unreachable the message is delivered to the local hub only; losing
// remote fan-out must not fail the mutation that triggered it.
func (b *Bridge) Publish(group string, msg Message) {
	b.send(envelope{Group: group, Message: msg}, func() {
		b.hub.Publish(group, msg)
	})
}

// CloseGroup disconnects the group's subscribers on every process.
func (b *Bridge) CloseGroup(group string) {
	b.send(envelope{Group: group, Close: true}, func() {
		b.hub.CloseGroup(group)
	})
}

func (b *Bridge) send(env envelope, local func()) {
	payload, err := json.Marshal(env)
	if err != nil {
		b.logger.Error("failed to encode push envelope", zap.Error(err))
		return
	}
	if err := b.rdb.Publish(context.Background(), eventsChannel, payload).Err(); err != nil {
		b.logger.Warn("redis publish failed, delivering locally only",
			zap.String("group", env.Group),
			zap.Error(err),
		)
		local()
	}
}

// Start subscribes to the events channel and, once redis confirms the
// subscription, consumes it in a background goroutine until ctx is
// cancelled. Returning only after confirmation closes the window where
// this process publishes to redis before its own subscriber exists, which
// would lose the message for local hub subscribers.
func (b *Bridge) Start(ctx context.Context) error {
	pubsub := b.rdb.Subscribe(ctx, eventsChannel)
	if _, err := pubsub.Receive(ctx); err != nil {
		pubsub.Close()
		return err
	}
	go b.consume(ctx, pubsub)
	return nil
}

func (b *Bridge) consume(ctx context.Context, pubsub *redis.PubSub) {
	defer pubsub.Close()

	ch := pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			var env envelope
			if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
				b.logger.Warn("discarding malformed push envelope", zap.Error(err))
				continue
			}
			if env.Close {
				b.hub.CloseGroup(env.Group)
				continue
			}
			b.hub.Publish(env.Group, env.Message)
		}
	}
}
