package processor

import (
	"time"

	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/notifier"
)

// Store defines the challenge operations required by the processor.
type Store interface {
	GetChallenge(id string) (*challenge.Challenge, error)
	GetChallengesForProcessing() ([]*challenge.Challenge, error)
	UpdateProcessingStatus(id string, status challenge.ProcessingStatus) error
	ExpireStale(now time.Time) (int, error)
}

// StatsStore records finished challenges on the leaderboard.
type StatsStore interface {
	UpdateMemberStats(update club.StatsUpdate) error
}

// Notifier defines the notification operations required by the processor.
type Notifier interface {
	notifier.Notifier
}
