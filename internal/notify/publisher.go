package notify

import (
	"context"
	"fmt"
	"strings"

	"github.com/arcadelab/high-score-processor/internal/obslog"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Publisher broadcasts messages over Redis pub/sub. Fire and forget: a
// publish with zero subscribers is still a success.
type Publisher struct {
	rdb *redis.Client
}

func NewPublisher(rdb *redis.Client) *Publisher { return &Publisher{rdb: rdb} }

func (p *Publisher) Publish(ctx context.Context, channel, message string) error {
	if strings.TrimSpace(channel) == "" {
		return fmt.Errorf("publish channel required")
	}
	if err := p.rdb.Publish(ctx, channel, message).Err(); err != nil {
		return fmt.Errorf("publish to %s: %w", channel, err)
	}
	obslog.L().Debug("published notification",
		zap.String("channel", channel),
		zap.Int("bytes", len(message)),
	)
	return nil
}
