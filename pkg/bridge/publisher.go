package bridge

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

// PublisherConfig holds configuration for the invalidation publisher.
type PublisherConfig struct {
	TopicID string
	// TopicExistsTimeout bounds the existence check at construction.
	TopicExistsTimeout time.Duration
	// PublishTimeout bounds waiting for publish confirmation.
	PublishTimeout time.Duration
}

// NewPublisherDefaults provides a config with sensible defaults.
func NewPublisherDefaults(topicID string) *PublisherConfig {
	return &PublisherConfig{
		TopicID:            topicID,
		TopicExistsTimeout: 15 * time.Second,
		PublishTimeout:     20 * time.Second,
	}
}

// Publisher emits InvalidationEvents for locally mutated keys. Each
// publisher carries a unique origin ID so listeners in the same process
// can recognize and skip their own events.
type Publisher struct {
	topic          *pubsub.Topic
	origin         string
	publishTimeout time.Duration
	logger         zerolog.Logger
}

// NewPublisher creates a Publisher. It validates the topic's existence
// before returning.
func NewPublisher(ctx context.Context, cfg *PublisherConfig, client *pubsub.Client, logger zerolog.Logger) (*Publisher, error) {
	if client == nil {
		return nil, fmt.Errorf("pubsub client cannot be nil")
	}

	topic := client.Topic(cfg.TopicID)
	existsCtx, cancel := context.WithTimeout(ctx, cfg.TopicExistsTimeout)
	defer cancel()
	exists, err := topic.Exists(existsCtx)
	if err != nil {
		return nil, fmt.Errorf("failed to check for topic %s: %w", cfg.TopicID, err)
	}
	if !exists {
		return nil, fmt.Errorf("pubsub topic %s does not exist", cfg.TopicID)
	}

	origin := uuid.NewString()
	logger.Info().Str("topic_id", cfg.TopicID).Str("origin", origin).Msg("Invalidation publisher initialized.")

	return &Publisher{
		topic:          topic,
		origin:         origin,
		publishTimeout: cfg.PublishTimeout,
		logger:         logger.With().Str("component", "bridge.Publisher").Str("topic_id", cfg.TopicID).Logger(),
	}, nil
}

// Origin returns the unique ID stamped on every event this publisher
// emits. Hand it to the local Listener so it can skip these events.
func (p *Publisher) Origin() string {
	return p.origin
}

// Publish announces that a key was mutated or invalidated and waits for
// broker confirmation.
func (p *Publisher) Publish(ctx context.Context, key string) error {
	event := InvalidationEvent{
		Key:        key,
		Origin:     p.origin,
		OccurredAt: time.Now().UTC(),
	}
	payload, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("marshal invalidation event for '%s': %w", key, err)
	}

	publishCtx := ctx
	if p.publishTimeout > 0 {
		var cancel context.CancelFunc
		publishCtx, cancel = context.WithTimeout(ctx, p.publishTimeout)
		defer cancel()
	}

	result := p.topic.Publish(publishCtx, &pubsub.Message{Data: payload})
	if _, err := result.Get(publishCtx); err != nil {
		p.logger.Error().Err(err).Str("key", key).Msg("Failed to publish invalidation event.")
		return fmt.Errorf("publish invalidation for '%s': %w", key, err)
	}
	p.logger.Debug().Str("key", key).Msg("Published invalidation event.")
	return nil
}

// Stop flushes pending publishes and releases the topic's resources.
func (p *Publisher) Stop() {
	p.topic.Stop()
}
