package notifier

import (
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/handicap"
)

// Notifier defines a high-level interface for sending notifications about business events.
// This decouples the rest of the application from the specific notification provider (e.g., Slack).
type Notifier interface {
	// Challenge lifecycle
	SendChallengeCreated(c *challenge.Challenge, dryRun bool) error
	SendChallengeAccepted(c *challenge.Challenge, dryRun bool) error
	SendChallengeResult(c *challenge.Challenge, dryRun bool) error

	// For formatting responses for slash commands
	FormatLeaderboardResponse(stats []club.MemberStats) (any, error)
	FormatRankLeaderboardResponse(members []club.Member) (any, error)
	FormatMemberStatsResponse(stats *club.MemberStats, query string) (any, error)
	FormatMemberNotFoundResponse(query string) (any, error)
	FormatHandicapResponse(p handicap.Proposal, res handicap.Result) (any, error)
	FormatChallengeResponse(c *challenge.Challenge) (any, error)
	FormatErrorResponse(message string) (any, error)
}
