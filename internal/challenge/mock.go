package challenge

import (
	"fmt"
	"sync"
	"time"
)

// MockStore is a mock implementation of the ChallengeStore interface for
// testing. It is safe for concurrent use.
type MockStore struct {
	mu sync.Mutex

	CreateChallengeFunc            func(in NewChallenge) (*Challenge, error)
	GetChallengeFunc               func(id string) (*Challenge, error)
	ListChallengesFunc             func(filter Filter) ([]Challenge, error)
	GetChallengesForProcessingFunc func() ([]*Challenge, error)
	AcceptChallengeFunc            func(id, memberID string) (*Challenge, error)
	DeclineChallengeFunc           func(id, memberID string) (*Challenge, error)
	CancelChallengeFunc            func(id, memberID string) (*Challenge, error)
	SubmitScoreFunc                func(id string, challengerRacks, opponentRacks int) (*Challenge, error)
	ExpireStaleFunc                func(now time.Time) (int, error)
	UpdateProcessingStatusFunc     func(id string, status ProcessingStatus) error

	CreateChallengeCalls  []NewChallenge
	AcceptChallengeCalls  []struct{ ID, MemberID string }
	DeclineChallengeCalls []struct{ ID, MemberID string }
	CancelChallengeCalls  []struct{ ID, MemberID string }
	SubmitScoreCalls      []struct {
		ID                             string
		ChallengerRacks, OpponentRacks int
	}
	ExpireStaleCalls            []time.Time
	UpdateProcessingStatusCalls []struct {
		ID     string
		Status ProcessingStatus
	}
}

// NewMock creates a new mock instance.
func NewMock() *MockStore {
	return &MockStore{}
}

func (m *MockStore) CreateChallenge(in NewChallenge) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CreateChallengeCalls = append(m.CreateChallengeCalls, in)
	if m.CreateChallengeFunc != nil {
		return m.CreateChallengeFunc(in)
	}
	return &Challenge{ChallengerID: in.ChallengerID, OpponentID: in.OpponentID, Stake: in.Stake, Status: StatusPending}, nil
}

func (m *MockStore) GetChallenge(id string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetChallengeFunc != nil {
		return m.GetChallengeFunc(id)
	}
	return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
}

func (m *MockStore) ListChallenges(filter Filter) ([]Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.ListChallengesFunc != nil {
		return m.ListChallengesFunc(filter)
	}
	return []Challenge{}, nil
}

func (m *MockStore) GetChallengesForProcessing() ([]*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.GetChallengesForProcessingFunc != nil {
		return m.GetChallengesForProcessingFunc()
	}
	return nil, nil
}

func (m *MockStore) AcceptChallenge(id, memberID string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.AcceptChallengeCalls = append(m.AcceptChallengeCalls, struct{ ID, MemberID string }{id, memberID})
	if m.AcceptChallengeFunc != nil {
		return m.AcceptChallengeFunc(id, memberID)
	}
	return &Challenge{ID: id, OpponentID: memberID, Status: StatusAccepted}, nil
}

func (m *MockStore) DeclineChallenge(id, memberID string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.DeclineChallengeCalls = append(m.DeclineChallengeCalls, struct{ ID, MemberID string }{id, memberID})
	if m.DeclineChallengeFunc != nil {
		return m.DeclineChallengeFunc(id, memberID)
	}
	return &Challenge{ID: id, OpponentID: memberID, Status: StatusDeclined}, nil
}

func (m *MockStore) CancelChallenge(id, memberID string) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.CancelChallengeCalls = append(m.CancelChallengeCalls, struct{ ID, MemberID string }{id, memberID})
	if m.CancelChallengeFunc != nil {
		return m.CancelChallengeFunc(id, memberID)
	}
	return &Challenge{ID: id, ChallengerID: memberID, Status: StatusCancelled}, nil
}

func (m *MockStore) SubmitScore(id string, challengerRacks, opponentRacks int) (*Challenge, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.SubmitScoreCalls = append(m.SubmitScoreCalls, struct {
		ID                             string
		ChallengerRacks, OpponentRacks int
	}{id, challengerRacks, opponentRacks})
	if m.SubmitScoreFunc != nil {
		return m.SubmitScoreFunc(id, challengerRacks, opponentRacks)
	}
	return &Challenge{ID: id, ChallengerScore: &challengerRacks, OpponentScore: &opponentRacks, Status: StatusCompleted}, nil
}

func (m *MockStore) ExpireStale(now time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.ExpireStaleCalls = append(m.ExpireStaleCalls, now)
	if m.ExpireStaleFunc != nil {
		return m.ExpireStaleFunc(now)
	}
	return 0, nil
}

func (m *MockStore) UpdateProcessingStatus(id string, status ProcessingStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.UpdateProcessingStatusCalls = append(m.UpdateProcessingStatusCalls, struct {
		ID     string
		Status ProcessingStatus
	}{id, status})
	if m.UpdateProcessingStatusFunc != nil {
		return m.UpdateProcessingStatusFunc(id, status)
	}
	return nil
}
