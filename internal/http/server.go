package http

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/config"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/http/handlers"
	"github.com/mauv0809/sabo-club/internal/matchmaking"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/mauv0809/sabo-club/internal/notifier"
	"github.com/mauv0809/sabo-club/internal/processor"
	"github.com/mauv0809/sabo-club/internal/pubsub"
	"golang.org/x/time/rate"
)

func NewServer(store club.ClubStore, challenges challenge.ChallengeStore, resolver *handicap.Resolver, metricsSvc metrics.Metrics, metricsHandler http.Handler, cfg config.Config, notifier notifier.Notifier, processor *processor.Processor, pubsub pubsub.PubSubClient) *Server {
	server := &Server{
		Store:          store,
		Challenges:     challenges,
		Resolver:       resolver,
		Matchmaking:    matchmaking.NewService(store, challenges, resolver),
		Metrics:        metricsSvc,
		MetricsHandler: metricsHandler,
		Cfg:            cfg,
		Notifier:       notifier,
		Processor:      processor,
		Router:         chi.NewRouter(),
		pubsub:         pubsub,
		limiter:        NewIPRateLimiter(rate.Limit(cfg.RateLimit.PerSecond), cfg.RateLimit.Burst),
		loc:            cfg.Location(),
	}

	server.routes()
	return server
}

func (s *Server) routes() {
	// Every route goes through paramsMiddleware. Writes are also rate limited
	// per client IP and slash commands must carry a valid Slack signature.
	r := s.Router
	r.Use(paramsMiddleware)
	limited := rateLimitMiddleware(s.limiter)
	fromSlack := slackVerificationMiddleware(s.Cfg.Slack.SigningSecret)

	r.Handle("/metrics", s.MetricsHandler)
	r.Get("/health", handlers.HealthCheckHandler())

	r.Route("/members", func(r chi.Router) {
		r.Get("/", handlers.ListMembersHandler(s.Store))
		r.With(limited).Post("/", handlers.AddMemberHandler(s.Store))
		r.Get("/{id}", handlers.GetMemberHandler(s.Store))
		r.Get("/{id}/opponents", handlers.OpponentsHandler(s.Matchmaking, s.Resolver.Stakes()))
		r.With(limited).Post("/{id}/rank-requests", handlers.RequestRankHandler(s.Store))
	})
	r.Route("/rank-requests", func(r chi.Router) {
		r.Get("/", handlers.ListRankRequestsHandler(s.Store))
		r.With(limited).Post("/{id}/approve", handlers.ApproveRankRequestHandler(s.Store))
		r.With(limited).Post("/{id}/reject", handlers.RejectRankRequestHandler(s.Store))
	})

	r.Get("/handicap", handlers.HandicapHandler(s.Resolver, s.Metrics))
	r.Get("/stakes", handlers.StakesHandler(s.Resolver.Stakes()))

	r.Route("/challenges", func(r chi.Router) {
		r.Get("/", handlers.ListChallengesHandler(s.Challenges))
		r.With(limited).Post("/", handlers.CreateChallengeHandler(s.Challenges, s.loc))
		r.Get("/{id}", handlers.GetChallengeHandler(s.Challenges))
		r.Group(func(r chi.Router) {
			r.Use(limited)
			r.Post("/{id}/accept", handlers.ChallengeActionHandler("accept", s.Challenges.AcceptChallenge))
			r.Post("/{id}/decline", handlers.ChallengeActionHandler("decline", s.Challenges.DeclineChallenge))
			r.Post("/{id}/cancel", handlers.ChallengeActionHandler("cancel", s.Challenges.CancelChallenge))
			r.Post("/{id}/score", handlers.SubmitScoreHandler(s.Challenges))
		})
	})

	r.Post("/process", handlers.ProcessChallengesHandler(s.Processor))
	r.Get("/leaderboard", handlers.LeaderboardHandler(s.Store))
	r.Get("/leaderboard.xlsx", handlers.LeaderboardExportHandler(s.Store))

	r.Post("/pubsub/"+string(pubsub.EventUpdateMemberStats), handlers.UpdateMemberStatsHandler(s.Processor, s.pubsub))
	r.Post("/pubsub/"+string(pubsub.EventNotifyResult), handlers.NotifyResultHandler(s.Processor, s.pubsub))

	r.Route("/slack/command", func(r chi.Router) {
		r.Use(fromSlack)
		r.Post("/leaderboard", handlers.LeaderboardCommandHandler(s.Store, s.Notifier))
		r.Post("/ranks", handlers.RankLeaderboardCommandHandler(s.Store, s.Notifier))
		r.Post("/member-stats", handlers.MemberStatsCommandHandler(s.Store, s.Notifier))
		r.Post("/handicap", handlers.HandicapCommandHandler(s.Resolver, s.Notifier, s.Metrics))
		r.With(limited).Post("/challenge", handlers.ChallengeCommandHandler(s.Store, s.Challenges, s.Notifier, s.loc))
	})
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.Router.ServeHTTP(w, r)
}
