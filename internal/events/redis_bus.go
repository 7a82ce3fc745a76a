package events

import (
	"context"
	"encoding/json"
	"fmt"

	"uniform-studio/pkg/logger"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// RedisEventBus implements Bus using Redis Pub/Sub
type RedisEventBus struct {
	client   *redis.Client
	resolver ChannelResolver
	log      *logger.Logger
}

func NewRedisEventBus(client *redis.Client, resolver ChannelResolver, log *logger.Logger) *RedisEventBus {
	if log == nil {
		log = logger.GetGlobalLogger()
	}
	return &RedisEventBus{
		client:   client,
		resolver: resolver,
		log:      log,
	}
}

func (b *RedisEventBus) Publish(ctx context.Context, env Envelope) error {
	channels := b.resolver.ResolveChannels(env)
	if len(channels) == 0 {
		return nil
	}

	data, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	for _, channel := range channels {
		if err := b.client.Publish(ctx, channel, data).Err(); err != nil {
			return fmt.Errorf("failed to publish to %s: %w", channel, err)
		}
	}
	return nil
}

func (b *RedisEventBus) Subscribe(ctx context.Context, channel string) (<-chan Envelope, error) {
	pubsub := b.client.Subscribe(ctx, channel)
	// Wait for the subscription confirmation so nothing published after return is missed.
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, fmt.Errorf("failed to subscribe to %s: %w", channel, err)
	}

	out := make(chan Envelope, subscriberBuffer)
	go func() {
		defer close(out)
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
				var env Envelope
				if err := json.Unmarshal([]byte(msg.Payload), &env); err != nil {
					b.log.Logger.Warn("dropping malformed event", zap.String("channel", msg.Channel), zap.Error(err))
					continue
				}
				select {
				case out <- env:
				default:
					// Subscriber is behind; it already has envelopes queued.
				}
			}
		}
	}()
	return out, nil
}

func (b *RedisEventBus) Close() error {
	return nil
}
