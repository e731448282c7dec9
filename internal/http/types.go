package http

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/config"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/matchmaking"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/mauv0809/sabo-club/internal/notifier"
	"github.com/mauv0809/sabo-club/internal/processor"
	"github.com/mauv0809/sabo-club/internal/pubsub"
)

type Server struct {
	Store          club.ClubStore
	Challenges     challenge.ChallengeStore
	Resolver       *handicap.Resolver
	Matchmaking    matchmaking.MatchmakingService
	Metrics        metrics.Metrics
	MetricsHandler http.Handler
	Cfg            config.Config
	Notifier       notifier.Notifier
	Processor      *processor.Processor
	Router         chi.Router

	pubsub  pubsub.PubSubClient
	limiter *IPRateLimiter
	loc     *time.Location
}
