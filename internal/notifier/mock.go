package notifier

import (
	"sync"

	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/handicap"
)

// Mock is a mock implementation of the Notifier interface for testing.
// It is safe for concurrent use.
type Mock struct {
	mu sync.Mutex

	// Spies for send functions
	SendChallengeCreatedFunc  func(c *challenge.Challenge, dryRun bool) error
	SendChallengeAcceptedFunc func(c *challenge.Challenge, dryRun bool) error
	SendChallengeResultFunc   func(c *challenge.Challenge, dryRun bool) error

	// Call records
	SendChallengeCreatedCalls  []*challenge.Challenge
	SendChallengeAcceptedCalls []*challenge.Challenge
	SendChallengeResultCalls   []*challenge.Challenge

	// Spies for format functions
	FormatLeaderboardResponseFunc     func(stats []club.MemberStats) (any, error)
	FormatRankLeaderboardResponseFunc func(members []club.Member) (any, error)
	FormatMemberStatsResponseFunc     func(stats *club.MemberStats, query string) (any, error)
	FormatMemberNotFoundResponseFunc  func(query string) (any, error)
	FormatHandicapResponseFunc        func(p handicap.Proposal, res handicap.Result) (any, error)
	FormatChallengeResponseFunc       func(c *challenge.Challenge) (any, error)
	FormatErrorResponseFunc           func(message string) (any, error)

	// Call records for format functions
	LastLeaderboardResponse     any
	LastRankLeaderboardResponse any
	LastMemberStatsResponse     any
	LastMemberNotFoundResponse  any
	FormatHandicapCalls         []handicap.Proposal
	FormatChallengeCalls        []*challenge.Challenge
	FormatErrorCalls            []string
}

// NewMock creates a new mock instance.
func NewMock() *Mock {
	return &Mock{}
}

// Reset clears all call records.
func (m *Mock) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendChallengeCreatedCalls = nil
	m.SendChallengeAcceptedCalls = nil
	m.SendChallengeResultCalls = nil
	m.LastLeaderboardResponse = nil
	m.LastRankLeaderboardResponse = nil
	m.LastMemberStatsResponse = nil
	m.LastMemberNotFoundResponse = nil
	m.FormatHandicapCalls = nil
	m.FormatChallengeCalls = nil
	m.FormatErrorCalls = nil
}

func (m *Mock) SendChallengeCreated(c *challenge.Challenge, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendChallengeCreatedCalls = append(m.SendChallengeCreatedCalls, c)
	if m.SendChallengeCreatedFunc != nil {
		return m.SendChallengeCreatedFunc(c, dryRun)
	}
	return nil
}

func (m *Mock) SendChallengeAccepted(c *challenge.Challenge, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendChallengeAcceptedCalls = append(m.SendChallengeAcceptedCalls, c)
	if m.SendChallengeAcceptedFunc != nil {
		return m.SendChallengeAcceptedFunc(c, dryRun)
	}
	return nil
}

func (m *Mock) SendChallengeResult(c *challenge.Challenge, dryRun bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SendChallengeResultCalls = append(m.SendChallengeResultCalls, c)
	if m.SendChallengeResultFunc != nil {
		return m.SendChallengeResultFunc(c, dryRun)
	}
	return nil
}

func (m *Mock) FormatLeaderboardResponse(stats []club.MemberStats) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatLeaderboardResponseFunc != nil {
		resp, err := m.FormatLeaderboardResponseFunc(stats)
		m.LastLeaderboardResponse = resp
		return resp, err
	}
	return "formatted_leaderboard", nil
}

func (m *Mock) FormatRankLeaderboardResponse(members []club.Member) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatRankLeaderboardResponseFunc != nil {
		resp, err := m.FormatRankLeaderboardResponseFunc(members)
		m.LastRankLeaderboardResponse = resp
		return resp, err
	}
	return "formatted_rank_leaderboard", nil
}

func (m *Mock) FormatMemberStatsResponse(stats *club.MemberStats, query string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatMemberStatsResponseFunc != nil {
		resp, err := m.FormatMemberStatsResponseFunc(stats, query)
		m.LastMemberStatsResponse = resp
		return resp, err
	}
	return "formatted_member_stats", nil
}

func (m *Mock) FormatMemberNotFoundResponse(query string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.FormatMemberNotFoundResponseFunc != nil {
		resp, err := m.FormatMemberNotFoundResponseFunc(query)
		m.LastMemberNotFoundResponse = resp
		return resp, err
	}
	return "formatted_member_not_found", nil
}

func (m *Mock) FormatHandicapResponse(p handicap.Proposal, res handicap.Result) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FormatHandicapCalls = append(m.FormatHandicapCalls, p)
	if m.FormatHandicapResponseFunc != nil {
		return m.FormatHandicapResponseFunc(p, res)
	}
	return "formatted_handicap", nil
}

func (m *Mock) FormatChallengeResponse(c *challenge.Challenge) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FormatChallengeCalls = append(m.FormatChallengeCalls, c)
	if m.FormatChallengeResponseFunc != nil {
		return m.FormatChallengeResponseFunc(c)
	}
	return "formatted_challenge", nil
}

func (m *Mock) FormatErrorResponse(message string) (any, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.FormatErrorCalls = append(m.FormatErrorCalls, message)
	if m.FormatErrorResponseFunc != nil {
		return m.FormatErrorResponseFunc(message)
	}
	return "formatted_error", nil
}
