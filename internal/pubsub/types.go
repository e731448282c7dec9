package pubsub

import "cloud.google.com/go/pubsub"

type client struct {
	client   *pubsub.Client
	teardown func()
}

// EventType represents the type of event/message sent via pubsub. Each event
// type is published to the topic of the same name.
type EventType string

const (
	EventUpdateMemberStats EventType = "update-member-stats"
	EventNotifyResult      EventType = "notify-result"
)
