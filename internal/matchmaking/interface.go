package matchmaking

import (
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
)

// MatchmakingService finds fair opponents for a member.
type MatchmakingService interface {
	// SuggestOpponents lists members the given member may challenge at the
	// stake, closest in strength first.
	SuggestOpponents(memberID string, stake int) ([]Suggestion, error)
}

// MemberSource is the part of the club store matchmaking reads.
type MemberSource interface {
	GetMember(memberID string) (*club.Member, error)
	GetAllMembers() ([]club.Member, error)
}

// ChallengeSource is used to skip members who already have a live
// challenge with the requester.
type ChallengeSource interface {
	ListChallenges(filter challenge.Filter) ([]challenge.Challenge, error)
}
