package notify

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
)

func newTestRedis(t *testing.T) *redis.Client {
	t.Helper()
	mr, err := miniredis.Run()
	if err != nil {
		t.Fatalf("miniredis: %v", err)
	}
	t.Cleanup(mr.Close)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { rdb.Close() })
	return rdb
}

func TestPublishReachesSubscriber(t *testing.T) {
	rdb := newTestRedis(t)
	ctx := context.Background()

	sub := rdb.Subscribe(ctx, "community-message")
	defer sub.Close()
	if _, err := sub.Receive(ctx); err != nil {
		t.Fatalf("subscribe: %v", err)
	}

	p := NewPublisher(rdb)
	if err := p.Publish(ctx, "community-message", "hello arcade"); err != nil {
		t.Fatalf("Publish: %v", err)
	}

	select {
	case msg := <-sub.Channel():
		if msg.Payload != "hello arcade" {
			t.Fatalf("payload %q", msg.Payload)
		}
	case <-time.After(2 * time.Second):
		t.Fatalf("message never arrived")
	}
}

func TestPublishWithoutSubscribersSucceeds(t *testing.T) {
	rdb := newTestRedis(t)
	p := NewPublisher(rdb)
	if err := p.Publish(context.Background(), "community-message", "into the void"); err != nil {
		t.Fatalf("Publish: %v", err)
	}
}

func TestPublishRequiresChannel(t *testing.T) {
	rdb := newTestRedis(t)
	p := NewPublisher(rdb)
	if err := p.Publish(context.Background(), "  ", "x"); err == nil {
		t.Fatalf("expected error for empty channel")
	}
}
