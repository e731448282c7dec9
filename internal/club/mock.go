package club

import (
	"fmt"
	"sync"
)

// MockStore is a mock implementation of the ClubStore interface for testing.
// It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	// Spies for method calls
	AddMemberFunc               func(memberID, name, rank string) error
	UpsertMembersFunc           func(members []Member) error
	GetMemberFunc               func(memberID string) (*Member, error)
	GetMembersFunc              func(memberIDs []string) ([]Member, error)
	GetAllMembersFunc           func() ([]Member, error)
	GetMembersSortedByRankFunc  func() ([]Member, error)
	GetMemberBySlackUserIDFunc  func(slackUserID string) (*Member, error)
	LinkSlackUserFunc           func(memberID, slackUserID string) error
	IsKnownMemberFunc           func(memberID string) bool
	UpdateRankFunc              func(memberID, rank string) error
	GetMemberStatsFunc          func() ([]MemberStats, error)
	GetMemberStatsByNameFunc    func(name string) (*MemberStats, error)
	UpdateMemberStatsFunc       func(update StatsUpdate) error
	ClearFunc                   func()
	RequestRankVerificationFunc func(memberID, requestedRank, evidence string) (*RankRequest, error)
	GetRankRequestFunc          func(requestID string) (*RankRequest, error)
	GetPendingRankRequestsFunc  func() ([]RankRequest, error)
	ApproveRankRequestFunc      func(requestID, reviewer string) (*RankRequest, error)
	RejectRankRequestFunc       func(requestID, reviewer, reason string) (*RankRequest, error)

	// Call records
	AddMemberCalls []struct {
		MemberID, Name, Rank string
	}
	UpsertMembersCalls        [][]Member
	GetMemberCalls            []string
	GetMembersCalls           [][]string
	LinkSlackUserCalls        []struct{ MemberID, SlackUserID string }
	UpdateRankCalls           []struct{ MemberID, Rank string }
	GetMemberStatsByNameCalls []string
	UpdateMemberStatsCalls    []StatsUpdate
	ApproveRankRequestCalls   []struct{ RequestID, Reviewer string }
	RejectRankRequestCalls    []struct{ RequestID, Reviewer, Reason string }
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

// Reset clears all call records.
func (m *MockStore) Reset() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddMemberCalls = nil
	m.UpsertMembersCalls = nil
	m.GetMemberCalls = nil
	m.GetMembersCalls = nil
	m.LinkSlackUserCalls = nil
	m.UpdateRankCalls = nil
	m.GetMemberStatsByNameCalls = nil
	m.UpdateMemberStatsCalls = nil
	m.ApproveRankRequestCalls = nil
	m.RejectRankRequestCalls = nil
}

func (m *MockStore) AddMember(memberID, name, rank string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AddMemberCalls = append(m.AddMemberCalls, struct{ MemberID, Name, Rank string }{memberID, name, rank})
	if m.AddMemberFunc != nil {
		return m.AddMemberFunc(memberID, name, rank)
	}
	return nil
}

func (m *MockStore) UpsertMembers(members []Member) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpsertMembersCalls = append(m.UpsertMembersCalls, members)
	if m.UpsertMembersFunc != nil {
		return m.UpsertMembersFunc(members)
	}
	return nil
}

func (m *MockStore) GetMember(memberID string) (*Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetMemberCalls = append(m.GetMemberCalls, memberID)
	if m.GetMemberFunc != nil {
		return m.GetMemberFunc(memberID)
	}
	return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
}

func (m *MockStore) GetMembers(memberIDs []string) ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetMembersCalls = append(m.GetMembersCalls, memberIDs)
	if m.GetMembersFunc != nil {
		return m.GetMembersFunc(memberIDs)
	}
	return nil, nil
}

func (m *MockStore) GetAllMembers() ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetAllMembersFunc != nil {
		return m.GetAllMembersFunc()
	}
	return nil, nil
}

func (m *MockStore) GetMembersSortedByRank() ([]Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMembersSortedByRankFunc != nil {
		return m.GetMembersSortedByRankFunc()
	}
	return nil, nil
}

func (m *MockStore) GetMemberBySlackUserID(slackUserID string) (*Member, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMemberBySlackUserIDFunc != nil {
		return m.GetMemberBySlackUserIDFunc(slackUserID)
	}
	return nil, fmt.Errorf("%w: slack user %s", ErrMemberNotFound, slackUserID)
}

func (m *MockStore) LinkSlackUser(memberID, slackUserID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.LinkSlackUserCalls = append(m.LinkSlackUserCalls, struct{ MemberID, SlackUserID string }{memberID, slackUserID})
	if m.LinkSlackUserFunc != nil {
		return m.LinkSlackUserFunc(memberID, slackUserID)
	}
	return nil
}

func (m *MockStore) IsKnownMember(memberID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.IsKnownMemberFunc != nil {
		return m.IsKnownMemberFunc(memberID)
	}
	return false
}

func (m *MockStore) UpdateRank(memberID, rank string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateRankCalls = append(m.UpdateRankCalls, struct{ MemberID, Rank string }{memberID, rank})
	if m.UpdateRankFunc != nil {
		return m.UpdateRankFunc(memberID, rank)
	}
	return nil
}

func (m *MockStore) GetMemberStats() ([]MemberStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetMemberStatsFunc != nil {
		return m.GetMemberStatsFunc()
	}
	return nil, nil
}

func (m *MockStore) GetMemberStatsByName(name string) (*MemberStats, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.GetMemberStatsByNameCalls = append(m.GetMemberStatsByNameCalls, name)
	if m.GetMemberStatsByNameFunc != nil {
		return m.GetMemberStatsByNameFunc(name)
	}
	return nil, fmt.Errorf("%w: '%s'", ErrMemberNotFound, name)
}

func (m *MockStore) UpdateMemberStats(update StatsUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateMemberStatsCalls = append(m.UpdateMemberStatsCalls, update)
	if m.UpdateMemberStatsFunc != nil {
		return m.UpdateMemberStatsFunc(update)
	}
	return nil
}

func (m *MockStore) Clear() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ClearFunc != nil {
		m.ClearFunc()
	}
}

func (m *MockStore) RequestRankVerification(memberID, requestedRank, evidence string) (*RankRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.RequestRankVerificationFunc != nil {
		return m.RequestRankVerificationFunc(memberID, requestedRank, evidence)
	}
	return &RankRequest{MemberID: memberID, RequestedRank: requestedRank, Evidence: evidence, Status: RankRequestPending}, nil
}

func (m *MockStore) GetRankRequest(requestID string) (*RankRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetRankRequestFunc != nil {
		return m.GetRankRequestFunc(requestID)
	}
	return nil, fmt.Errorf("%w: %s", ErrRankRequestNotFound, requestID)
}

func (m *MockStore) GetPendingRankRequests() ([]RankRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetPendingRankRequestsFunc != nil {
		return m.GetPendingRankRequestsFunc()
	}
	return nil, nil
}

func (m *MockStore) ApproveRankRequest(requestID, reviewer string) (*RankRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ApproveRankRequestCalls = append(m.ApproveRankRequestCalls, struct{ RequestID, Reviewer string }{requestID, reviewer})
	if m.ApproveRankRequestFunc != nil {
		return m.ApproveRankRequestFunc(requestID, reviewer)
	}
	return &RankRequest{ID: requestID, Status: RankRequestApproved, Reviewer: &reviewer}, nil
}

func (m *MockStore) RejectRankRequest(requestID, reviewer, reason string) (*RankRequest, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.RejectRankRequestCalls = append(m.RejectRankRequestCalls, struct{ RequestID, Reviewer, Reason string }{requestID, reviewer, reason})
	if m.RejectRankRequestFunc != nil {
		return m.RejectRankRequestFunc(requestID, reviewer, reason)
	}
	return &RankRequest{ID: requestID, Status: RankRequestRejected, Reviewer: &reviewer, Reason: &reason}, nil
}
