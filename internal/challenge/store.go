package challenge

import (
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/metrics"
)

// DefaultTTL is how long a challenge may wait for an answer.
const DefaultTTL = 72 * time.Hour

// NewStore creates a challenge store. A non-positive ttl falls back to
// DefaultTTL.
func NewStore(db *sql.DB, members MemberLookup, resolver *handicap.Resolver, m metrics.Metrics, ttl time.Duration) ChallengeStore {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &store{
		db:       db,
		members:  members,
		resolver: resolver,
		metrics:  m,
		ttl:      ttl,
		now:      time.Now,
	}
}

const challengeColumns = `
	id, challenger_id, challenger_name, challenger_rank,
	opponent_id, opponent_name, opponent_rank,
	stake, race_to, challenger_handicap, opponent_handicap,
	status, processing_status, scheduled_at, expires_at,
	challenger_score, opponent_score, winner_id, created_at, updated_at
`

// resolve runs the handicap resolver and records the outcome.
func (s *store) resolve(p handicap.Proposal) (handicap.Result, error) {
	res, err := s.resolver.Resolve(p)
	s.metrics.IncHandicapResolution(metrics.OutcomeOf(err))
	return res, err
}

func (s *store) CreateChallenge(in NewChallenge) (*Challenge, error) {
	if in.ChallengerID == "" {
		return nil, fmt.Errorf("%w: challenger is required", ErrInvalidChallenge)
	}
	if in.OpponentID == in.ChallengerID {
		return nil, fmt.Errorf("%w: a member cannot challenge themselves", ErrInvalidChallenge)
	}

	challenger, err := s.members.GetMember(in.ChallengerID)
	if err != nil {
		return nil, fmt.Errorf("challenger: %w", err)
	}

	now := s.now()
	c := &Challenge{
		ID:               uuid.NewString(),
		ChallengerID:     challenger.ID,
		ChallengerName:   challenger.Name,
		ChallengerRank:   challenger.Rank,
		Stake:            in.Stake,
		ProcessingStatus: ProcessingNew,
		ScheduledAt:      in.ScheduledAt,
		ExpiresAt:        time.Unix(now.Add(s.ttl).Unix(), 0),
		CreatedAt:        time.Unix(now.Unix(), 0),
		UpdatedAt:        time.Unix(now.Unix(), 0),
	}

	if in.OpponentID == "" {
		raceTo, err := s.resolver.Stakes().RaceToFor(in.Stake)
		if err != nil {
			s.metrics.IncHandicapResolution(metrics.OutcomeOf(err))
			return nil, err
		}
		c.RaceTo = raceTo
		c.Status = StatusOpen
	} else {
		opponent, err := s.members.GetMember(in.OpponentID)
		if err != nil {
			return nil, fmt.Errorf("opponent: %w", err)
		}
		res, err := s.resolve(handicap.Proposal{
			ChallengerRank: challenger.Rank,
			OpponentRank:   opponent.Rank,
			Stake:          in.Stake,
		})
		if err != nil {
			return nil, err
		}
		c.OpponentID = opponent.ID
		c.OpponentName = opponent.Name
		c.OpponentRank = opponent.Rank
		c.applyResult(res)
		c.Status = StatusPending
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO challenges (
			id, challenger_id, challenger_name, challenger_rank,
			opponent_id, opponent_name, opponent_rank,
			stake, race_to, challenger_handicap, opponent_handicap,
			status, processing_status, scheduled_at, expires_at, created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`,
		c.ID, c.ChallengerID, c.ChallengerName, c.ChallengerRank,
		nullString(c.OpponentID), nullString(c.OpponentName), nullString(c.OpponentRank),
		c.Stake, c.RaceTo, c.ChallengerHandicap, c.OpponentHandicap,
		c.Status, c.ProcessingStatus, nullUnix(c.ScheduledAt), c.ExpiresAt.Unix(),
		c.CreatedAt.Unix(), c.UpdatedAt.Unix(),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create challenge: %w", err)
	}

	log.Info("Created challenge", "id", c.ID, "challenger", c.ChallengerName, "opponent", c.OpponentName, "stake", c.Stake, "race_to", c.RaceTo, "status", c.Status)
	return c, nil
}

func (c *Challenge) applyResult(res handicap.Result) {
	c.RaceTo = res.RaceTo
	c.ChallengerHandicap = res.ChallengerHandicap
	c.OpponentHandicap = res.OpponentHandicap
}

func (s *store) GetChallenge(id string) (*Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, err := scanChallenge(s.db.QueryRow("SELECT "+challengeColumns+" FROM challenges WHERE id = ?", id))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get challenge %s: %w", id, err)
	}
	return c, nil
}

// ListChallenges returns matching challenges, newest first.
func (s *store) ListChallenges(filter Filter) ([]Challenge, error) {
	var (
		where []string
		args  []any
	)
	if filter.Status != "" {
		where = append(where, "status = ?")
		args = append(args, filter.Status)
	}
	if filter.MemberID != "" {
		where = append(where, "(challenger_id = ? OR opponent_id = ?)")
		args = append(args, filter.MemberID, filter.MemberID)
	}
	query := "SELECT " + challengeColumns + " FROM challenges"
	if len(where) > 0 {
		query += " WHERE " + strings.Join(where, " AND ")
	}
	query += " ORDER BY created_at DESC, id ASC"

	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list challenges: %w", err)
	}
	defer rows.Close()

	challenges := []Challenge{}
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan challenge row: %w", err)
		}
		challenges = append(challenges, *c)
	}
	return challenges, rows.Err()
}

func (s *store) GetChallengesForProcessing() ([]*Challenge, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT "+challengeColumns+" FROM challenges WHERE processing_status != ? ORDER BY created_at ASC, id ASC", ProcessingDone)
	if err != nil {
		return nil, fmt.Errorf("failed to query challenges for processing: %w", err)
	}
	defer rows.Close()

	var challenges []*Challenge
	for rows.Next() {
		c, err := scanChallenge(rows)
		if err != nil {
			log.Error("Failed to scan challenge row", "error", err)
			continue
		}
		challenges = append(challenges, c)
	}
	return challenges, rows.Err()
}

// AcceptChallenge accepts a PENDING challenge as its opponent, or an OPEN one
// as any member other than the challenger. Accepting an open challenge
// resolves the handicap against the acceptor's rank.
func (s *store) AcceptChallenge(id, memberID string) (*Challenge, error) {
	c, err := s.GetChallenge(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotExpired(c); err != nil {
		return nil, err
	}

	from := c.Status
	switch c.Status {
	case StatusPending:
		if memberID != c.OpponentID {
			return nil, fmt.Errorf("%w: only %s can accept", ErrNotParticipant, c.OpponentName)
		}
	case StatusOpen:
		if memberID == c.ChallengerID {
			return nil, fmt.Errorf("%w: a member cannot accept their own challenge", ErrNotParticipant)
		}
		acceptor, err := s.members.GetMember(memberID)
		if err != nil {
			return nil, err
		}
		res, err := s.resolve(handicap.Proposal{
			ChallengerRank: c.ChallengerRank,
			OpponentRank:   acceptor.Rank,
			Stake:          c.Stake,
		})
		if err != nil {
			return nil, err
		}
		c.OpponentID = acceptor.ID
		c.OpponentName = acceptor.Name
		c.OpponentRank = acceptor.Rank
		c.applyResult(res)
	default:
		return nil, fmt.Errorf("%w: cannot accept a %s challenge", ErrInvalidTransition, c.Status)
	}

	c.Status = StatusAccepted
	if err := s.update(c, from); err != nil {
		return nil, err
	}
	log.Info("Challenge accepted", "id", id, "opponent", c.OpponentName)
	return c, nil
}

func (s *store) DeclineChallenge(id, memberID string) (*Challenge, error) {
	c, err := s.GetChallenge(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotExpired(c); err != nil {
		return nil, err
	}
	if c.Status != StatusPending {
		return nil, fmt.Errorf("%w: cannot decline a %s challenge", ErrInvalidTransition, c.Status)
	}
	if memberID != c.OpponentID {
		return nil, fmt.Errorf("%w: only %s can decline", ErrNotParticipant, c.OpponentName)
	}

	c.Status = StatusDeclined
	if err := s.update(c, StatusPending); err != nil {
		return nil, err
	}
	log.Info("Challenge declined", "id", id)
	return c, nil
}

func (s *store) CancelChallenge(id, memberID string) (*Challenge, error) {
	c, err := s.GetChallenge(id)
	if err != nil {
		return nil, err
	}
	if err := s.checkNotExpired(c); err != nil {
		return nil, err
	}
	from := c.Status
	if from != StatusPending && from != StatusOpen {
		return nil, fmt.Errorf("%w: cannot cancel a %s challenge", ErrInvalidTransition, c.Status)
	}
	if memberID != c.ChallengerID {
		return nil, fmt.Errorf("%w: only %s can cancel", ErrNotParticipant, c.ChallengerName)
	}

	c.Status = StatusCancelled
	if err := s.update(c, from); err != nil {
		return nil, err
	}
	log.Info("Challenge cancelled", "id", id)
	return c, nil
}

// SubmitScore completes an accepted challenge. Handicap racks are credited
// before the first rack, so exactly one side's racks plus handicap must reach
// the race length.
func (s *store) SubmitScore(id string, challengerRacks, opponentRacks int) (*Challenge, error) {
	c, err := s.GetChallenge(id)
	if err != nil {
		return nil, err
	}
	if c.Status != StatusAccepted {
		return nil, fmt.Errorf("%w: cannot score a %s challenge", ErrInvalidTransition, c.Status)
	}

	winner, err := decideWinner(c, challengerRacks, opponentRacks)
	if err != nil {
		return nil, err
	}

	c.ChallengerScore = &challengerRacks
	c.OpponentScore = &opponentRacks
	c.WinnerID = winner
	c.Status = StatusCompleted
	if err := s.update(c, StatusAccepted); err != nil {
		return nil, err
	}
	log.Info("Challenge completed", "id", id, "winner", winner, "score", fmt.Sprintf("%d-%d", challengerRacks, opponentRacks))
	return c, nil
}

func decideWinner(c *Challenge, challengerRacks, opponentRacks int) (string, error) {
	for _, r := range []int{challengerRacks, opponentRacks} {
		if r < 0 || r > c.RaceTo {
			return "", fmt.Errorf("%w: racks must be between 0 and %d, got %d", ErrInvalidScore, c.RaceTo, r)
		}
	}
	race := float64(c.RaceTo)
	challengerDone := float64(challengerRacks)+c.ChallengerHandicap >= race
	opponentDone := float64(opponentRacks)+c.OpponentHandicap >= race

	switch {
	case challengerDone && !opponentDone:
		return c.ChallengerID, nil
	case opponentDone && !challengerDone:
		return c.OpponentID, nil
	case challengerDone:
		return "", fmt.Errorf("%w: both sides reach race to %d", ErrInvalidScore, c.RaceTo)
	}
	return "", fmt.Errorf("%w: neither side reaches race to %d", ErrInvalidScore, c.RaceTo)
}

func (s *store) checkNotExpired(c *Challenge) error {
	if (c.Status == StatusPending || c.Status == StatusOpen) && !s.now().Before(c.ExpiresAt) {
		return fmt.Errorf("%w: challenge expired at %s", ErrInvalidTransition, c.ExpiresAt.Format(time.RFC3339))
	}
	return nil
}

// update writes the mutable fields of c, guarded on the status it was read
// with so concurrent transitions cannot both win.
func (s *store) update(c *Challenge, from Status) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c.UpdatedAt = time.Unix(s.now().Unix(), 0)
	res, err := s.db.Exec(`
		UPDATE challenges SET
			opponent_id = ?, opponent_name = ?, opponent_rank = ?,
			race_to = ?, challenger_handicap = ?, opponent_handicap = ?,
			status = ?, challenger_score = ?, opponent_score = ?, winner_id = ?,
			updated_at = ?
		WHERE id = ? AND status = ?
	`,
		nullString(c.OpponentID), nullString(c.OpponentName), nullString(c.OpponentRank),
		c.RaceTo, c.ChallengerHandicap, c.OpponentHandicap,
		c.Status, c.ChallengerScore, c.OpponentScore, nullString(c.WinnerID),
		c.UpdatedAt.Unix(), c.ID, from,
	)
	if err != nil {
		return fmt.Errorf("failed to update challenge %s: %w", c.ID, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: challenge %s is no longer %s", ErrInvalidTransition, c.ID, from)
	}
	return nil
}

func (s *store) ExpireStale(now time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec(`
		UPDATE challenges SET status = ?, updated_at = ?
		WHERE status IN (?, ?) AND expires_at <= ?
	`, StatusExpired, now.Unix(), StatusPending, StatusOpen, now.Unix())
	if err != nil {
		return 0, fmt.Errorf("failed to expire challenges: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info("Expired stale challenges", "count", n)
	}
	return int(n), nil
}

func (s *store) UpdateProcessingStatus(id string, status ProcessingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE challenges SET processing_status = ?, updated_at = ? WHERE id = ?", status, s.now().Unix(), id)
	if err != nil {
		log.Error("Failed to update processing status", "error", err, "id", id)
		return fmt.Errorf("failed to update processing status: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	log.Debug("Updated processing status", "id", id, "status", status)
	return nil
}

func scanChallenge(scanner interface{ Scan(...any) error }) (*Challenge, error) {
	var (
		c                                    Challenge
		opponentID, opponentName, opponentRk sql.NullString
		winnerID                             sql.NullString
		scheduledAt                          sql.NullInt64
		challengerScore, opponentScore       sql.NullInt64
		expiresAt, createdAt, updatedAt      int64
	)
	err := scanner.Scan(
		&c.ID, &c.ChallengerID, &c.ChallengerName, &c.ChallengerRank,
		&opponentID, &opponentName, &opponentRk,
		&c.Stake, &c.RaceTo, &c.ChallengerHandicap, &c.OpponentHandicap,
		&c.Status, &c.ProcessingStatus, &scheduledAt, &expiresAt,
		&challengerScore, &opponentScore, &winnerID, &createdAt, &updatedAt,
	)
	if err != nil {
		return nil, err
	}
	c.OpponentID = opponentID.String
	c.OpponentName = opponentName.String
	c.OpponentRank = opponentRk.String
	c.WinnerID = winnerID.String
	if scheduledAt.Valid {
		t := time.Unix(scheduledAt.Int64, 0)
		c.ScheduledAt = &t
	}
	if challengerScore.Valid {
		v := int(challengerScore.Int64)
		c.ChallengerScore = &v
	}
	if opponentScore.Valid {
		v := int(opponentScore.Int64)
		c.OpponentScore = &v
	}
	c.ExpiresAt = time.Unix(expiresAt, 0)
	c.CreatedAt = time.Unix(createdAt, 0)
	c.UpdatedAt = time.Unix(updatedAt, 0)
	return &c, nil
}

func nullString(s string) sql.NullString {
	return sql.NullString{String: s, Valid: s != ""}
}

func nullUnix(t *time.Time) sql.NullInt64 {
	if t == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: t.Unix(), Valid: true}
}
