package metrics

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var _ Metrics = (*Service)(nil)

// NewMetricsHandler returns an http.Handler for the given Gatherer.
// If no gatherer is provided, it uses the default one.
func NewMetricsHandler(gatherer ...prometheus.Gatherer) http.Handler {
	gath := prometheus.DefaultGatherer
	if len(gatherer) > 0 {
		gath = gatherer[0]
	}
	return promhttp.HandlerFor(gath, promhttp.HandlerOpts{})
}

// NewService creates and registers the Prometheus metrics.
// If no registerer is provided, it uses the default Prometheus registerer.
func NewService(registerer ...prometheus.Registerer) *Service {
	reg := prometheus.DefaultRegisterer
	if len(registerer) > 0 {
		reg = registerer[0]
	}

	s := &Service{
		ProcessorRuns: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sabo_processor_runs_total",
			Help: "The total number of times the challenge processor has run.",
		}),
		ChallengesProcessed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sabo_challenges_processed_total",
			Help: "The total number of challenges advanced by the processor.",
		}),
		ProcessingDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Name:    "sabo_challenge_processing_duration_seconds",
			Help:    "The duration of individual challenge processing.",
			Buckets: []float64{0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
		}),
		SlackNotifSent: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sabo_slack_notifications_sent_total",
			Help: "The total number of Slack notifications successfully sent.",
		}),
		SlackNotifFailed: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "sabo_slack_notifications_failed_total",
			Help: "The total number of Slack notifications that failed to send.",
		}),
		StartupTimeSeconds: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "sabo_startup_duration_seconds",
			Help: "The duration of the application startup in seconds.",
		}),
		HandicapResolutions: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "sabo_handicap_resolutions_total",
			Help: "Handicap resolutions by outcome.",
		}, []string{"outcome"}),
	}

	reg.MustRegister(
		s.ProcessorRuns,
		s.ChallengesProcessed,
		s.ProcessingDuration,
		s.SlackNotifSent,
		s.SlackNotifFailed,
		s.StartupTimeSeconds,
		s.HandicapResolutions,
	)

	return s
}

func (s *Service) IncProcessorRuns() {
	s.ProcessorRuns.Inc()
}

func (s *Service) IncChallengesProcessed() {
	s.ChallengesProcessed.Inc()
}

func (s *Service) ObserveProcessingDuration(duration float64) {
	s.ProcessingDuration.Observe(duration)
}

func (s *Service) IncSlackNotifSent() {
	s.SlackNotifSent.Inc()
}

func (s *Service) IncSlackNotifFailed() {
	s.SlackNotifFailed.Inc()
}

func (s *Service) SetStartupTime(duration float64) {
	s.StartupTimeSeconds.Set(duration)
}

func (s *Service) IncHandicapResolution(outcome string) {
	s.HandicapResolutions.WithLabelValues(outcome).Inc()
}
