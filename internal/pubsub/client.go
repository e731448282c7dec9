package pubsub

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/pubsub"
	"github.com/charmbracelet/log"
	"github.com/vmihailenco/msgpack/v5"
)

const publishTimeout = 10 * time.Second

// New connects to Google Pub/Sub for projectID.
func New(ctx context.Context, projectID string) (PubSubClient, error) {
	pubSubC, err := pubsub.NewClient(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("failed to create pubsub client: %w", err)
	}
	teardown := func() {
		if err := pubSubC.Close(); err != nil {
			log.Error("Failed to close pubsub client", "error", err)
		}
	}

	return &client{
		client:   pubSubC,
		teardown: teardown,
	}, nil
}

func (c *client) SendMessage(topic EventType, data any) error {
	ctx, cancel := context.WithTimeout(context.Background(), publishTimeout)
	defer cancel()

	msgpackData, err := Encode(data)
	if err != nil {
		return err
	}
	result := c.client.Topic(string(topic)).Publish(ctx, &pubsub.Message{
		Data:       msgpackData,
		Attributes: map[string]string{"event": string(topic)},
	})
	serverID, err := result.Get(ctx)
	if err != nil {
		log.Error("Failed to publish message", "error", err, "topic", topic)
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	log.Info("Published message", "topic", topic, "serverID", serverID)
	return nil
}

func (c *client) ProcessMessage(data []byte, returnValue any) error {
	return Decode(data, returnValue)
}

func (c *client) Close() {
	c.teardown()
}

// Encode marshals a payload the way SendMessage publishes it.
func Encode(data any) ([]byte, error) {
	b, err := msgpack.Marshal(data)
	if err != nil {
		log.Error("MessagePack marshal error", "error", err)
		return nil, fmt.Errorf("failed to encode message: %w", err)
	}
	return b, nil
}

// Decode unmarshals a MessagePack payload into the provided pointer.
func Decode(data []byte, returnValue any) error {
	if err := msgpack.Unmarshal(data, returnValue); err != nil {
		log.Error("MessagePack unmarshal error", "error", err)
		return fmt.Errorf("failed to decode message: %w", err)
	}
	return nil
}
