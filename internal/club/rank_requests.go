package club

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
)

const rankRequestQuery = `
	SELECT
		r.id, r.member_id, m.name, r.current_rank, r.requested_rank,
		COALESCE(r.evidence, ''), r.status, r.reviewer, r.reason,
		r.created_at, r.decided_at
	FROM rank_requests r
	JOIN members m ON m.id = r.member_id
`

// RequestRankVerification files a request to verify a member at a new rank.
func (s *store) RequestRankVerification(memberID, requestedRank, evidence string) (*RankRequest, error) {
	requestedRank, err := s.scale.Normalize(requestedRank)
	if err != nil {
		return nil, err
	}
	member, err := s.GetMember(memberID)
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req := &RankRequest{
		ID:            uuid.NewString(),
		MemberID:      member.ID,
		MemberName:    member.Name,
		CurrentRank:   member.Rank,
		RequestedRank: requestedRank,
		Evidence:      evidence,
		Status:        RankRequestPending,
		CreatedAt:     time.Unix(time.Now().Unix(), 0),
	}
	_, err = s.db.Exec(`
		INSERT INTO rank_requests (id, member_id, current_rank, requested_rank, evidence, status, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, req.ID, req.MemberID, req.CurrentRank, req.RequestedRank, req.Evidence, req.Status, req.CreatedAt.Unix())
	if err != nil {
		return nil, fmt.Errorf("failed to insert rank request: %w", err)
	}
	log.Info("Rank verification requested", "requestID", req.ID, "memberID", memberID, "from", req.CurrentRank, "to", requestedRank)
	return req, nil
}

func scanRankRequest(scanner interface{ Scan(...any) error }) (*RankRequest, error) {
	var r RankRequest
	var reviewer, reason sql.NullString
	var createdAt int64
	var decidedAt sql.NullInt64
	err := scanner.Scan(
		&r.ID, &r.MemberID, &r.MemberName, &r.CurrentRank, &r.RequestedRank,
		&r.Evidence, &r.Status, &reviewer, &reason, &createdAt, &decidedAt,
	)
	if err != nil {
		return nil, err
	}
	if reviewer.Valid {
		r.Reviewer = &reviewer.String
	}
	if reason.Valid {
		r.Reason = &reason.String
	}
	r.CreatedAt = time.Unix(createdAt, 0)
	if decidedAt.Valid {
		t := time.Unix(decidedAt.Int64, 0)
		r.DecidedAt = &t
	}
	return &r, nil
}

func (s *store) GetRankRequest(requestID string) (*RankRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getRankRequest(s.db, requestID)
}

type queryRower interface {
	QueryRow(query string, args ...any) *sql.Row
}

func (s *store) getRankRequest(q queryRower, requestID string) (*RankRequest, error) {
	r, err := scanRankRequest(q.QueryRow(rankRequestQuery+" WHERE r.id = ?", requestID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrRankRequestNotFound, requestID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get rank request %s: %w", requestID, err)
	}
	return r, nil
}

// GetPendingRankRequests returns undecided requests, oldest first.
func (s *store) GetPendingRankRequests() ([]RankRequest, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(rankRequestQuery+" WHERE r.status = ? ORDER BY r.created_at ASC, r.id ASC", RankRequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to query pending rank requests: %w", err)
	}
	defer rows.Close()

	requests := []RankRequest{}
	for rows.Next() {
		r, err := scanRankRequest(rows)
		if err != nil {
			return nil, err
		}
		requests = append(requests, *r)
	}
	return requests, rows.Err()
}

// ApproveRankRequest marks the request approved and moves the member to the
// requested rank.
func (s *store) ApproveRankRequest(requestID, reviewer string) (*RankRequest, error) {
	return s.decide(requestID, RankRequestApproved, reviewer, "")
}

func (s *store) RejectRankRequest(requestID, reviewer, reason string) (*RankRequest, error) {
	return s.decide(requestID, RankRequestRejected, reviewer, reason)
}

func (s *store) decide(requestID string, status RankRequestStatus, reviewer, reason string) (*RankRequest, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	req, err := s.getRankRequest(tx, requestID)
	if err != nil {
		return nil, err
	}
	if req.Status != RankRequestPending {
		return nil, fmt.Errorf("%w: %s is %s", ErrRankRequestDecided, requestID, req.Status)
	}

	var reasonArg any
	if reason != "" {
		reasonArg = reason
	}
	now := time.Now().Unix()
	_, err = tx.Exec(`
		UPDATE rank_requests SET status = ?, reviewer = ?, reason = ?, decided_at = ?
		WHERE id = ? AND status = ?
	`, status, reviewer, reasonArg, now, requestID, RankRequestPending)
	if err != nil {
		return nil, fmt.Errorf("failed to update rank request: %w", err)
	}

	if status == RankRequestApproved {
		if err := s.updateRankTx(tx, req.MemberID, req.RequestedRank); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit rank decision: %w", err)
	}

	req.Status = status
	req.Reviewer = &reviewer
	if reason != "" {
		req.Reason = &reason
	}
	decidedAt := time.Unix(now, 0)
	req.DecidedAt = &decidedAt
	log.Info("Rank request decided", "requestID", requestID, "status", status, "reviewer", reviewer)
	return req, nil
}
