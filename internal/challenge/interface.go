package challenge

import (
	"time"

	"github.com/mauv0809/sabo-club/internal/club"
)

// ChallengeStore persists challenges and enforces their lifecycle.
type ChallengeStore interface {
	// CreateChallenge resolves the handicap and stores a PENDING challenge, or
	// an OPEN one when no opponent is named.
	CreateChallenge(in NewChallenge) (*Challenge, error)
	GetChallenge(id string) (*Challenge, error)
	ListChallenges(filter Filter) ([]Challenge, error)
	// GetChallengesForProcessing returns challenges whose processing is not DONE.
	GetChallengesForProcessing() ([]*Challenge, error)
	AcceptChallenge(id, memberID string) (*Challenge, error)
	DeclineChallenge(id, memberID string) (*Challenge, error)
	CancelChallenge(id, memberID string) (*Challenge, error)
	// SubmitScore records the racks each side won and decides the winner.
	SubmitScore(id string, challengerRacks, opponentRacks int) (*Challenge, error)
	// ExpireStale marks unanswered challenges past their deadline as EXPIRED.
	ExpireStale(now time.Time) (int, error)
	UpdateProcessingStatus(id string, status ProcessingStatus) error
}

// MemberLookup is the part of the club store challenges depend on.
type MemberLookup interface {
	GetMember(memberID string) (*club.Member, error)
}
