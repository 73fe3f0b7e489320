package notify

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/redis/go-redis/v9"
)

type Deliverer interface {
	Deliver(ctx context.Context, to Player, text string) error
}

type ConsumerConfig struct {
	Stream      string
	Group       string
	Name        string
	FrontendURL string
	// Block is how long one read waits for new events; negative means do not wait.
	Block time.Duration
	Batch int64
	// RetryAfter is how long a failed event stays pending before it is
	// claimed again. Zero means DefaultRetryAfter, negative means at once.
	RetryAfter time.Duration
}

const DefaultRetryAfter = 30 * time.Second

type Consumer struct {
	client    redis.Cmdable
	cfg       ConsumerConfig
	deliverer Deliverer
	logger    *slog.Logger
}

func NewConsumer(client redis.Cmdable, cfg ConsumerConfig, deliverer Deliverer, logger *slog.Logger) *Consumer {
	if cfg.Stream == "" {
		cfg.Stream = DefaultStream
	}
	if cfg.Group == "" {
		cfg.Group = "notifier"
	}
	if cfg.Name == "" {
		cfg.Name = "notifier-1"
	}
	if cfg.Batch <= 0 {
		cfg.Batch = 16
	}
	if cfg.RetryAfter == 0 {
		cfg.RetryAfter = DefaultRetryAfter
	}
	if cfg.RetryAfter < 0 {
		cfg.RetryAfter = 0
	}
	cfg.FrontendURL = strings.TrimRight(cfg.FrontendURL, "/")

	return &Consumer{client: client, cfg: cfg, deliverer: deliverer, logger: logger}
}

func (c *Consumer) EnsureGroup(ctx context.Context) error {
	err := c.client.XGroupCreateMkStream(ctx, c.cfg.Stream, c.cfg.Group, "0").Err()
	if err != nil && !strings.HasPrefix(err.Error(), "BUSYGROUP") {
		return fmt.Errorf("create consumer group: %w", err)
	}
	return nil
}

// Run polls until ctx is cancelled.
func (c *Consumer) Run(ctx context.Context) error {
	if err := c.EnsureGroup(ctx); err != nil {
		return err
	}

	c.logger.Info("notification consumer started", "stream", c.cfg.Stream, "group", c.cfg.Group)
	for ctx.Err() == nil {
		if _, err := c.Poll(ctx); err != nil {
			if ctx.Err() != nil {
				break
			}
			c.logger.Error("notification poll failed", "error", err)
			select {
			case <-ctx.Done():
			case <-time.After(time.Second):
			}
		}
	}
	return nil
}

// Poll first retries pending events idle for at least RetryAfter, then reads
// one batch of new events. It returns how many were delivered. Events whose
// delivery fails stay pending until a later Poll claims them.
func (c *Consumer) Poll(ctx context.Context) (int, error) {
	retried, err := c.retryPending(ctx)
	if err != nil {
		return 0, err
	}

	streams, err := c.client.XReadGroup(ctx, &redis.XReadGroupArgs{
		Group:    c.cfg.Group,
		Consumer: c.cfg.Name,
		Streams:  []string{c.cfg.Stream, ">"},
		Count:    c.cfg.Batch,
		Block:    c.cfg.Block,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return retried, nil
	}
	if err != nil {
		return retried, fmt.Errorf("read stream: %w", err)
	}

	delivered := retried
	for _, stream := range streams {
		delivered += c.handle(ctx, stream.Messages)
	}
	return delivered, nil
}

// retryPending claims pending events from any consumer of the group, so
// events left behind by a dead consumer are delivered too.
func (c *Consumer) retryPending(ctx context.Context) (int, error) {
	msgs, _, err := c.client.XAutoClaim(ctx, &redis.XAutoClaimArgs{
		Stream:   c.cfg.Stream,
		Group:    c.cfg.Group,
		Consumer: c.cfg.Name,
		MinIdle:  c.cfg.RetryAfter,
		Start:    "0-0",
		Count:    c.cfg.Batch,
	}).Result()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("claim pending: %w", err)
	}
	return c.handle(ctx, msgs), nil
}

func (c *Consumer) handle(ctx context.Context, msgs []redis.XMessage) int {
	delivered := 0
	for _, msg := range msgs {
		ev, err := decodeEvent(msg)
		if err != nil {
			// undecodable messages would never succeed; drop them
			c.logger.Error("dropping notification", "id", msg.ID, "error", err)
			c.ack(ctx, msg.ID)
			continue
		}

		if err := c.deliverer.Deliver(ctx, ev.Player, c.Message(ev)); err != nil {
			c.logger.Error("notification delivery failed", "event", ev.ID, "game", ev.Game, "error", err)
			continue
		}
		c.ack(ctx, msg.ID)
		delivered++
	}
	return delivered
}

func (c *Consumer) ack(ctx context.Context, id string) {
	if err := c.client.XAck(ctx, c.cfg.Stream, c.cfg.Group, id).Err(); err != nil {
		c.logger.Error("notification ack failed", "id", id, "error", err)
	}
}

func (c *Consumer) Message(ev Event) string {
	link := fmt.Sprintf("%s/chess/%s", c.cfg.FrontendURL, ev.Game)
	if ev.Finished {
		return fmt.Sprintf("Game %s is over\n%s", ev.Game, link)
	}
	return fmt.Sprintf("Hi %s\nIt's your turn to move\n%s?token=%s", ev.Player.Email, link, ev.Token)
}
