package notify

import (
	"context"
	"fmt"

	"cloud.google.com/go/pubsub"

	"helloasso-export/internal/domain"
	"helloasso-export/internal/logger"
)

// PubSubNotifier publishes run outcomes to a Pub/Sub topic so downstream
// consumers (alerting, archival) can react to exports.
type PubSubNotifier struct {
	topic    *pubsub.Topic
	composer *Composer
}

// NewPubSubNotifier wraps an existing Pub/Sub client. The caller keeps
// ownership of the client; Stop only releases the topic's publish goroutines.
func NewPubSubNotifier(client *pubsub.Client, topicID string, composer *Composer) *PubSubNotifier {
	return &PubSubNotifier{
		topic:    client.Topic(topicID),
		composer: composer,
	}
}

// Send publishes the outcome message and waits for the server ack.
func (n *PubSubNotifier) Send(ctx context.Context, o Outcome) error {
	log := logger.FromContext(ctx)

	attrs := Attributes(o)
	attrs["subject"] = n.composer.Subject(o)

	result := n.topic.Publish(ctx, &pubsub.Message{
		Data:       []byte(n.composer.Body(o)),
		Attributes: attrs,
	})
	id, err := result.Get(ctx)
	if err != nil {
		return domain.E(domain.KindNotification, fmt.Errorf("publish outcome to %s: %w", n.topic.String(), err))
	}

	log.Info().
		Str("topic", n.topic.String()).
		Str("message_id", id).
		Msg("Outcome published")
	return nil
}

// Stop flushes pending publishes and releases the topic's resources.
func (n *PubSubNotifier) Stop() {
	n.topic.Stop()
}
