package club

import (
	"database/sql"
	"errors"
	"sync"
	"time"

	"github.com/mauv0809/sabo-club/internal/handicap"
)

var (
	ErrMemberNotFound      = errors.New("member not found")
	ErrRankRequestNotFound = errors.New("rank request not found")
	ErrRankRequestDecided  = errors.New("rank request already decided")
)

// store handles all database operations for the club.
type store struct {
	db    *sql.DB
	mu    sync.RWMutex
	scale *handicap.RankScale
}

// Member is a club member and their verified rank.
type Member struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Rank        string    `json:"rank"`
	SlackUserID *string   `json:"slack_user_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// MemberStats represents a member's statistics for the leaderboard.
type MemberStats struct {
	MemberID      string  `json:"member_id"`
	MemberName    string  `json:"member_name"`
	Rank          string  `json:"rank"`
	MatchesPlayed int     `json:"matches_played"`
	MatchesWon    int     `json:"matches_won"`
	MatchesLost   int     `json:"matches_lost"`
	RacksWon      int     `json:"racks_won"`
	RacksLost     int     `json:"racks_lost"`
	WinPercentage float64 `json:"win_percentage"`
}

// StatsUpdate is the outcome of one finished challenge.
type StatsUpdate struct {
	ChallengeID string `json:"challenge_id" msgpack:"challenge_id"`
	WinnerID    string `json:"winner_id" msgpack:"winner_id"`
	LoserID     string `json:"loser_id" msgpack:"loser_id"`
	WinnerRacks int    `json:"winner_racks" msgpack:"winner_racks"`
	LoserRacks  int    `json:"loser_racks" msgpack:"loser_racks"`
}

// RankRequestStatus is the review state of a rank verification request.
type RankRequestStatus string

const (
	RankRequestPending  RankRequestStatus = "PENDING"
	RankRequestApproved RankRequestStatus = "APPROVED"
	RankRequestRejected RankRequestStatus = "REJECTED"
)

// RankRequest asks the club to verify a member at a new rank.
type RankRequest struct {
	ID            string            `json:"id"`
	MemberID      string            `json:"member_id"`
	MemberName    string            `json:"member_name"`
	CurrentRank   string            `json:"current_rank"`
	RequestedRank string            `json:"requested_rank"`
	Evidence      string            `json:"evidence,omitempty"`
	Status        RankRequestStatus `json:"status"`
	Reviewer      *string           `json:"reviewer,omitempty"`
	Reason        *string           `json:"reason,omitempty"`
	CreatedAt     time.Time         `json:"created_at"`
	DecidedAt     *time.Time        `json:"decided_at,omitempty"`
}
