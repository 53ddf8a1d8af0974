package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/medcare/backend/internal/domain/billing"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// InvalidationMessage announces a plan change to other instances.
// An empty Plan means every entry is stale.
type InvalidationMessage struct {
	Plan      billing.PlanCode `json:"plan,omitempty"`
	Origin    string           `json:"origin"`
	Timestamp int64            `json:"timestamp"`
}

// PlanInvalidator broadcasts plan cache invalidations over Redis Pub/Sub
type PlanInvalidator struct {
	client  *redis.Client
	channel string
	origin  string
	logger  *zap.Logger

	mu      sync.Mutex
	running bool
	cancel  context.CancelFunc
	done    chan struct{}
}

// NewPlanInvalidator creates an invalidator on a shared client. origin
// identifies this instance so it can skip its own messages.
func NewPlanInvalidator(client *redis.Client, channel, origin string, logger *zap.Logger) *PlanInvalidator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &PlanInvalidator{client: client, channel: channel, origin: origin, logger: logger}
}

// Publish announces that code changed
func (i *PlanInvalidator) Publish(ctx context.Context, code billing.PlanCode) error {
	data, err := json.Marshal(InvalidationMessage{Plan: code, Origin: i.origin, Timestamp: time.Now().UnixNano()})
	if err != nil {
		return fmt.Errorf("failed to marshal message: %w", err)
	}
	if err := i.client.Publish(ctx, i.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish message: %w", err)
	}
	return nil
}

// Subscribe blocks delivering messages from other instances to fn until ctx
// is cancelled or Close is called.
func (i *PlanInvalidator) Subscribe(ctx context.Context, fn func(InvalidationMessage)) error {
	i.mu.Lock()
	if i.running {
		i.mu.Unlock()
		return fmt.Errorf("subscription already running")
	}
	subCtx, cancel := context.WithCancel(ctx)
	i.running = true
	i.cancel = cancel
	i.done = make(chan struct{})
	done := i.done
	i.mu.Unlock()

	defer func() {
		i.mu.Lock()
		i.running = false
		i.mu.Unlock()
		close(done)
	}()

	pubsub := i.client.Subscribe(subCtx, i.channel)
	defer pubsub.Close()

	if _, err := pubsub.Receive(subCtx); err != nil {
		return fmt.Errorf("failed to subscribe to channel: %w", err)
	}
	i.logger.Info("Subscribed to plan cache invalidation channel", zap.String("channel", i.channel))

	ch := pubsub.Channel()
	for {
		select {
		case <-subCtx.Done():
			return subCtx.Err()
		case msg, ok := <-ch:
			if !ok {
				return nil
			}
			var m InvalidationMessage
			if err := json.Unmarshal([]byte(msg.Payload), &m); err != nil {
				i.logger.Warn("Ignoring malformed invalidation message", zap.String("payload", msg.Payload))
				continue
			}
			if m.Origin == i.origin {
				continue
			}
			fn(m)
		}
	}
}

// Close stops a running subscription and waits for it to exit
func (i *PlanInvalidator) Close() error {
	i.mu.Lock()
	cancel, done, running := i.cancel, i.done, i.running
	i.mu.Unlock()
	if !running {
		return nil
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		return fmt.Errorf("timed out waiting for subscription to stop")
	}
	return nil
}
