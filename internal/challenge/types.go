package challenge

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/metrics"
)

var (
	ErrNotFound          = errors.New("challenge not found")
	ErrInvalidTransition = errors.New("invalid challenge transition")
	ErrInvalidScore      = errors.New("invalid score")
	ErrNotParticipant    = errors.New("member is not allowed to act on this challenge")
	ErrInvalidChallenge  = errors.New("invalid challenge")
)

// Status is the lifecycle state of a challenge.
type Status string

const (
	StatusPending   Status = "PENDING"
	StatusOpen      Status = "OPEN"
	StatusAccepted  Status = "ACCEPTED"
	StatusDeclined  Status = "DECLINED"
	StatusCancelled Status = "CANCELLED"
	StatusExpired   Status = "EXPIRED"
	StatusCompleted Status = "COMPLETED"
)

// ProcessingStatus tracks which notifications and side effects have been
// handled for a challenge.
type ProcessingStatus string

const (
	ProcessingNew              ProcessingStatus = "NEW"
	ProcessingCreatedNotified  ProcessingStatus = "CREATED_NOTIFIED"
	ProcessingAcceptedNotified ProcessingStatus = "ACCEPTED_NOTIFIED"
	ProcessingResultNotified   ProcessingStatus = "RESULT_NOTIFIED"
	ProcessingStatsUpdated     ProcessingStatus = "STATS_UPDATED"
	ProcessingDone             ProcessingStatus = "DONE"
)

// Challenge is a proposed or played race between two members.
type Challenge struct {
	ID                 string           `json:"id" msgpack:"id"`
	ChallengerID       string           `json:"challenger_id" msgpack:"challenger_id"`
	ChallengerName     string           `json:"challenger_name" msgpack:"challenger_name"`
	ChallengerRank     string           `json:"challenger_rank" msgpack:"challenger_rank"`
	OpponentID         string           `json:"opponent_id,omitempty" msgpack:"opponent_id"`
	OpponentName       string           `json:"opponent_name,omitempty" msgpack:"opponent_name"`
	OpponentRank       string           `json:"opponent_rank,omitempty" msgpack:"opponent_rank"`
	Stake              int              `json:"stake" msgpack:"stake"`
	RaceTo             int              `json:"race_to" msgpack:"race_to"`
	ChallengerHandicap float64          `json:"challenger_handicap" msgpack:"challenger_handicap"`
	OpponentHandicap   float64          `json:"opponent_handicap" msgpack:"opponent_handicap"`
	Status             Status           `json:"status" msgpack:"status"`
	ProcessingStatus   ProcessingStatus `json:"processing_status" msgpack:"processing_status"`
	ScheduledAt        *time.Time       `json:"scheduled_at,omitempty" msgpack:"scheduled_at"`
	ExpiresAt          time.Time        `json:"expires_at" msgpack:"expires_at"`
	ChallengerScore    *int             `json:"challenger_score,omitempty" msgpack:"challenger_score"`
	OpponentScore      *int             `json:"opponent_score,omitempty" msgpack:"opponent_score"`
	WinnerID           string           `json:"winner_id,omitempty" msgpack:"winner_id"`
	CreatedAt          time.Time        `json:"created_at" msgpack:"created_at"`
	UpdatedAt          time.Time        `json:"updated_at" msgpack:"updated_at"`
}

// Handicap returns the resolved race terms of the challenge.
func (c *Challenge) Handicap() handicap.Result {
	return handicap.Result{
		RaceTo:             c.RaceTo,
		ChallengerHandicap: c.ChallengerHandicap,
		OpponentHandicap:   c.OpponentHandicap,
	}
}

// LoserID returns the participant who did not win, or "" before completion.
func (c *Challenge) LoserID() string {
	switch c.WinnerID {
	case "":
		return ""
	case c.ChallengerID:
		return c.OpponentID
	}
	return c.ChallengerID
}

// NewChallenge is the input to CreateChallenge. An empty OpponentID creates an
// open challenge anyone may accept.
type NewChallenge struct {
	ChallengerID string     `json:"challenger_id"`
	OpponentID   string     `json:"opponent_id,omitempty"`
	Stake        int        `json:"stake"`
	ScheduledAt  *time.Time `json:"scheduled_at,omitempty"`
}

// Filter narrows ListChallenges. Zero values match everything.
type Filter struct {
	Status   Status
	MemberID string
}

// store handles database operations for challenges.
type store struct {
	db       *sql.DB
	mu       sync.RWMutex
	members  MemberLookup
	resolver *handicap.Resolver
	metrics  metrics.Metrics
	ttl      time.Duration
	now      func() time.Time
}
