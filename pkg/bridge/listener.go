package bridge

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/rs/zerolog"
)

// Revalidator is the cache-side contract the listener drives. *swr.Cache
// satisfies it.
type Revalidator interface {
	Revalidate(ctx context.Context, key string) error
}

// ListenerConfig holds configuration for the invalidation listener.
type ListenerConfig struct {
	SubscriptionID string
	// SkipOrigin drops events stamped with this origin, typically the
	// local Publisher's Origin(). Empty means process every event.
	SkipOrigin             string
	MaxOutstandingMessages int
	NumGoroutines          int
}

// NewListenerDefaults provides a config with sensible defaults.
func NewListenerDefaults(subID string) *ListenerConfig {
	return &ListenerConfig{
		SubscriptionID:         subID,
		MaxOutstandingMessages: 100,
		NumGoroutines:          2,
	}
}

// Listener consumes InvalidationEvents and revalidates the named keys on
// the local cache. Events are acknowledged regardless of revalidation
// outcome; invalidation is best effort and the periodic triggers pick up
// anything missed.
type Listener struct {
	subscription *pubsub.Subscription
	target       Revalidator
	skipOrigin   string
	logger       zerolog.Logger

	stopOnce      sync.Once
	cancelReceive context.CancelFunc
	doneChan      chan struct{}
}

// NewListener creates a Listener. It validates the subscription's
// existence before returning.
func NewListener(ctx context.Context, cfg *ListenerConfig, client *pubsub.Client, target Revalidator, logger zerolog.Logger) (*Listener, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil")
	}
	if target == nil {
		return nil, fmt.Errorf("revalidator cannot be nil")
	}

	sub := client.Subscription(cfg.SubscriptionID)
	existsCtx, cancel := context.WithTimeout(ctx, 20*time.Second)
	defer cancel()
	exists, err := sub.Exists(existsCtx)
	if err != nil || !exists {
		return nil, fmt.Errorf("subscription %s does not exist: %w", cfg.SubscriptionID, err)
	}

	sub.ReceiveSettings.MaxOutstandingMessages = cfg.MaxOutstandingMessages
	sub.ReceiveSettings.NumGoroutines = cfg.NumGoroutines

	return &Listener{
		subscription: sub,
		target:       target,
		skipOrigin:   cfg.SkipOrigin,
		logger:       logger.With().Str("component", "bridge.Listener").Str("subscription_id", cfg.SubscriptionID).Logger(),
		doneChan:     make(chan struct{}),
	}, nil
}

// Start begins consuming invalidation events until ctx is cancelled or
// Stop is called.
func (l *Listener) Start(ctx context.Context) error {
	receiveCtx, cancel := context.WithCancel(ctx)
	l.cancelReceive = cancel

	go func() {
		defer close(l.doneChan)
		l.logger.Info().Msg("Invalidation listener started.")

		err := l.subscription.Receive(receiveCtx, func(msgCtx context.Context, msg *pubsub.Message) {
			l.handle(msgCtx, msg)
		})
		if err != nil && !errors.Is(err, context.Canceled) {
			l.logger.Error().Err(err).Msg("Pub/Sub Receive call exited with error.")
		}
		l.logger.Info().Msg("Invalidation listener stopped.")
	}()
	return nil
}

func (l *Listener) handle(ctx context.Context, msg *pubsub.Message) {
	// Always ack: a malformed or failed event must not be redelivered
	// forever, and the revalidation triggers recover anything missed.
	defer msg.Ack()

	var event InvalidationEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		l.logger.Warn().Err(err).Str("msg_id", msg.ID).Msg("Dropping malformed invalidation event.")
		return
	}
	if event.Key == "" {
		l.logger.Warn().Str("msg_id", msg.ID).Msg("Dropping invalidation event with empty key.")
		return
	}
	if l.skipOrigin != "" && event.Origin == l.skipOrigin {
		l.logger.Debug().Str("key", event.Key).Msg("Skipping own invalidation event.")
		return
	}

	if err := l.target.Revalidate(ctx, event.Key); err != nil {
		l.logger.Debug().Err(err).Str("key", event.Key).Msg("Revalidation for foreign invalidation failed.")
		return
	}
	l.logger.Debug().Str("key", event.Key).Str("origin", event.Origin).Msg("Revalidated key from foreign invalidation.")
}

// Stop cancels consumption and waits for the receive loop to exit.
func (l *Listener) Stop() {
	l.stopOnce.Do(func() {
		if l.cancelReceive != nil {
			l.cancelReceive()
		}
		select {
		case <-l.doneChan:
		case <-time.After(30 * time.Second):
			l.logger.Error().Msg("Timeout waiting for receive loop to stop.")
		}
	})
}

// Done is closed when the receive loop has exited.
func (l *Listener) Done() <-chan struct{} {
	return l.doneChan
}
