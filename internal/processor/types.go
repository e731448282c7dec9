package processor

import (
	"time"

	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/mauv0809/sabo-club/internal/pubsub"
)

// Processor advances challenges through their notification lifecycle.
type Processor struct {
	store    Store
	stats    StatsStore
	pubsub   pubsub.PubSubClient
	notifier Notifier
	metrics  metrics.Metrics
	now      func() time.Time
}
