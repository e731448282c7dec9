package club

// ClubStore defines the interface for interacting with the club's data.
type ClubStore interface {
	AddMember(memberID, name, rank string) error
	UpsertMembers(members []Member) error
	GetMember(memberID string) (*Member, error)
	GetMembers(memberIDs []string) ([]Member, error)
	GetAllMembers() ([]Member, error)
	GetMembersSortedByRank() ([]Member, error)
	GetMemberBySlackUserID(slackUserID string) (*Member, error)
	LinkSlackUser(memberID, slackUserID string) error
	IsKnownMember(memberID string) bool
	UpdateRank(memberID, rank string) error
	GetMemberStats() ([]MemberStats, error)
	GetMemberStatsByName(name string) (*MemberStats, error)
	UpdateMemberStats(update StatsUpdate) error
	Clear()

	RequestRankVerification(memberID, requestedRank, evidence string) (*RankRequest, error)
	GetRankRequest(requestID string) (*RankRequest, error)
	GetPendingRankRequests() ([]RankRequest, error)
	ApproveRankRequest(requestID, reviewer string) (*RankRequest, error)
	RejectRankRequest(requestID, reviewer, reason string) (*RankRequest, error)
}
