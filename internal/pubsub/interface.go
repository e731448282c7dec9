package pubsub

type PubSubClient interface {
	// SendMessage publishes data, msgpack encoded, to the topic named after the event.
	SendMessage(topic EventType, data any) error
	// ProcessMessage decodes a msgpack payload into returnValue.
	ProcessMessage(data []byte, returnValue any) error
	Close()
}
