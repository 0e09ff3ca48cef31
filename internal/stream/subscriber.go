package stream

import (
	"context"
	"fmt"
	"strings"

	"github.com/arcadelab/high-score-processor/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Handler consumes one raw message body.
type Handler func(ctx context.Context, payload string)

// Subscriber pulls messages off a Redis pub/sub channel one at a time and
// hands each to the handler synchronously. The next message is not read
// until the handler returns.
type Subscriber struct {
	rdb     *redis.Client
	channel string
}

func NewSubscriber(rdb *redis.Client, channel string) (*Subscriber, error) {
	if strings.TrimSpace(channel) == "" {
		return nil, fmt.Errorf("subscribe channel required")
	}
	return &Subscriber{rdb: rdb, channel: channel}, nil
}

// Run blocks until ctx is canceled. A handler panic is contained and
// logged so one poison message cannot take the loop down.
func (s *Subscriber) Run(ctx context.Context, handle Handler) error {
	sub := s.rdb.Subscribe(ctx, s.channel)
	defer sub.Close()

	// Force the SUBSCRIBE round trip so a bad connection fails fast.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("subscribe %s: %w", s.channel, err)
	}
	obslog.L().Info("subscribed", zap.String("channel", s.channel))

	ch := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case msg, ok := <-ch:
			if !ok {
				return fmt.Errorf("subscription to %s closed", s.channel)
			}
			s.dispatch(ctx, handle, msg.Payload)
		}
	}
}

func (s *Subscriber) dispatch(ctx context.Context, handle Handler, payload string) {
	defer func() {
		if rec := recover(); rec != nil {
			obslog.L().Error("handler panic, message dropped",
				zap.Any("panic", rec),
				zap.String("channel", s.channel),
			)
		}
	}()
	handle(ctx, payload)
}
