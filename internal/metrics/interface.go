package metrics

// Metrics defines the interface for collecting application metrics.
// This decouples the application from the specific metrics implementation (e.g., Prometheus).
type Metrics interface {
	IncProcessorRuns()
	IncChallengesProcessed()
	ObserveProcessingDuration(duration float64)
	IncSlackNotifSent()
	IncSlackNotifFailed()
	SetStartupTime(duration float64)
	IncHandicapResolution(outcome string)
}

// Handicap resolution outcomes used as the "outcome" label.
const (
	OutcomeOK              = "ok"
	OutcomeUnknownRank     = "unknown_rank"
	OutcomeInvalidStake    = "invalid_stake"
	OutcomeRankGapTooLarge = "rank_gap_too_large"
	OutcomeError           = "error"
)
