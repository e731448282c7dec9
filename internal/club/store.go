package club

import (
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/handicap"
)

// New creates a new ClubStore. Ranks are validated against the default SABO
// scale.
func New(db *sql.DB) ClubStore {
	return &store{
		db:    db,
		scale: handicap.DefaultScale,
	}
}

const memberColumns = "id, name, rank, slack_user_id, created_at"

// AddMember inserts a member or updates the name and rank of an existing one.
func (s *store) AddMember(memberID, name, rank string) error {
	rank, err := s.scale.Normalize(rank)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	_, err = s.db.Exec(`
		INSERT INTO members (id, name, rank, created_at) VALUES (?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET name = excluded.name, rank = excluded.rank;
	`, memberID, name, rank, time.Now().Unix())
	if err != nil {
		log.Error("Failed to add member", "error", err, "memberID", memberID)
		return fmt.Errorf("failed to add member %s: %w", memberID, err)
	}
	log.Info("Added member to the store", "memberID", memberID, "name", name, "rank", rank)
	return nil
}

// UpsertMembers adds or updates a batch of members in one transaction.
func (s *store) UpsertMembers(in []Member) error {
	members := make([]Member, len(in))
	for i, m := range in {
		rank, err := s.scale.Normalize(m.Rank)
		if err != nil {
			return fmt.Errorf("member %s: %w", m.ID, err)
		}
		m.Rank = rank
		members[i] = m
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(`
		INSERT INTO members (id, name, rank, slack_user_id, created_at) VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			name = excluded.name,
			rank = excluded.rank,
			slack_user_id = COALESCE(excluded.slack_user_id, members.slack_user_id);
	`)
	if err != nil {
		return err
	}
	defer stmt.Close()

	now := time.Now().Unix()
	for _, m := range members {
		if _, err := stmt.Exec(m.ID, m.Name, m.Rank, m.SlackUserID, now); err != nil {
			return fmt.Errorf("failed to upsert member %s: %w", m.ID, err)
		}
	}
	if err := tx.Commit(); err != nil {
		return err
	}
	log.Info("Upserted members", "count", len(members))
	return nil
}

func scanMember(scanner interface{ Scan(...any) error }) (*Member, error) {
	var m Member
	var slackID sql.NullString
	var createdAt int64
	if err := scanner.Scan(&m.ID, &m.Name, &m.Rank, &slackID, &createdAt); err != nil {
		return nil, err
	}
	if slackID.Valid {
		m.SlackUserID = &slackID.String
	}
	m.CreatedAt = time.Unix(createdAt, 0)
	return &m, nil
}

func (s *store) GetMember(memberID string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMember(s.db.QueryRow("SELECT "+memberColumns+" FROM members WHERE id = ?", memberID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member %s: %w", memberID, err)
	}
	return m, nil
}

func (s *store) GetMemberBySlackUserID(slackUserID string) (*Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	m, err := scanMember(s.db.QueryRow("SELECT "+memberColumns+" FROM members WHERE slack_user_id = ?", slackUserID))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: slack user %s", ErrMemberNotFound, slackUserID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get member for slack user %s: %w", slackUserID, err)
	}
	return m, nil
}

func (s *store) LinkSlackUser(memberID, slackUserID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	res, err := s.db.Exec("UPDATE members SET slack_user_id = ? WHERE id = ?", slackUserID, memberID)
	if err != nil {
		return fmt.Errorf("failed to link slack user: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	log.Info("Linked slack user to member", "memberID", memberID, "slackUserID", slackUserID)
	return nil
}

// GetMembers returns the members with the given IDs. Unknown IDs are skipped.
func (s *store) GetMembers(memberIDs []string) ([]Member, error) {
	if len(memberIDs) == 0 {
		return []Member{}, nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()

	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(memberIDs)), ",")
	rows, err := s.db.Query("SELECT "+memberColumns+" FROM members WHERE id IN ("+placeholders+") ORDER BY name", ToAnySlice(memberIDs)...)
	if err != nil {
		return nil, fmt.Errorf("failed to query members: %w", err)
	}
	defer rows.Close()
	return collectMembers(rows)
}

func (s *store) GetAllMembers() ([]Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query("SELECT " + memberColumns + " FROM members ORDER BY name")
	if err != nil {
		log.Error("Failed to query all members", "error", err)
		return nil, err
	}
	defer rows.Close()
	return collectMembers(rows)
}

// GetMembersSortedByRank returns all members strongest first. A "+" grade
// sorts above its plain letter; ties are broken by name.
func (s *store) GetMembersSortedByRank() ([]Member, error) {
	members, err := s.GetAllMembers()
	if err != nil {
		return nil, err
	}
	sort.SliceStable(members, func(i, j int) bool {
		if c := s.scale.Compare(members[i].Rank, members[j].Rank); c != 0 {
			return c < 0
		}
		return members[i].Name < members[j].Name
	})
	return members, nil
}

func collectMembers(rows *sql.Rows) ([]Member, error) {
	members := []Member{}
	for rows.Next() {
		m, err := scanMember(rows)
		if err != nil {
			log.Error("Failed to scan member row", "error", err)
			continue
		}
		members = append(members, *m)
	}
	return members, rows.Err()
}

func (s *store) IsKnownMember(memberID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var exists bool
	err := s.db.QueryRow("SELECT EXISTS(SELECT 1 FROM members WHERE id = ?)", memberID).Scan(&exists)
	if err != nil {
		log.Error("Failed to check if member exists", "error", err, "memberID", memberID)
		return false
	}
	return exists
}

func (s *store) UpdateRank(memberID, rank string) error {
	rank, err := s.scale.Normalize(rank)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updateRankTx(s.db, memberID, rank)
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func (s *store) updateRankTx(e execer, memberID, rank string) error {
	res, err := e.Exec("UPDATE members SET rank = ? WHERE id = ?", rank, memberID)
	if err != nil {
		return fmt.Errorf("failed to update rank: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("%w: %s", ErrMemberNotFound, memberID)
	}
	log.Info("Updated member rank", "memberID", memberID, "rank", rank)
	return nil
}

// UpdateMemberStats records one finished challenge for both players. A
// challenge is counted at most once; repeats of an applied challenge are
// ignored.
func (s *store) UpdateMemberStats(update StatsUpdate) error {
	if update.ChallengeID == "" {
		return errors.New("invalid stats update: missing challenge id")
	}
	if update.WinnerID == "" || update.LoserID == "" || update.WinnerID == update.LoserID {
		return fmt.Errorf("invalid stats update: winner %q loser %q", update.WinnerID, update.LoserID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction for stats update: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.Exec(`
		INSERT INTO applied_results (challenge_id, applied_at) VALUES (?, ?)
		ON CONFLICT(challenge_id) DO NOTHING;
	`, update.ChallengeID, time.Now().Unix())
	if err != nil {
		return fmt.Errorf("failed to record applied result: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		log.Info("Stats already applied for challenge, skipping", "challengeID", update.ChallengeID)
		return nil
	}

	stmt, err := tx.Prepare(`
		INSERT INTO member_stats (member_id, matches_played, matches_won, matches_lost, racks_won, racks_lost)
		VALUES (?, 1, ?, ?, ?, ?)
		ON CONFLICT(member_id) DO UPDATE SET
			matches_played = matches_played + 1,
			matches_won = matches_won + excluded.matches_won,
			matches_lost = matches_lost + excluded.matches_lost,
			racks_won = racks_won + excluded.racks_won,
			racks_lost = racks_lost + excluded.racks_lost;
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare member_stats statement: %w", err)
	}
	defer stmt.Close()

	if _, err := stmt.Exec(update.WinnerID, 1, 0, update.WinnerRacks, update.LoserRacks); err != nil {
		return fmt.Errorf("failed to update winner stats: %w", err)
	}
	if _, err := stmt.Exec(update.LoserID, 0, 1, update.LoserRacks, update.WinnerRacks); err != nil {
		return fmt.Errorf("failed to update loser stats: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit member_stats transaction: %w", err)
	}
	log.Info("Updated member stats", "challengeID", update.ChallengeID, "winner", update.WinnerID, "loser", update.LoserID)
	return nil
}

const statsQuery = `
	SELECT
		m.id,
		m.name,
		m.rank,
		COALESCE(ms.matches_played, 0),
		COALESCE(ms.matches_won, 0),
		COALESCE(ms.matches_lost, 0),
		COALESCE(ms.racks_won, 0),
		COALESCE(ms.racks_lost, 0)
	FROM members m
	LEFT JOIN member_stats ms ON m.id = ms.member_id
`

func scanStats(scanner interface{ Scan(...any) error }) (*MemberStats, error) {
	var stat MemberStats
	err := scanner.Scan(
		&stat.MemberID,
		&stat.MemberName,
		&stat.Rank,
		&stat.MatchesPlayed,
		&stat.MatchesWon,
		&stat.MatchesLost,
		&stat.RacksWon,
		&stat.RacksLost,
	)
	if err != nil {
		return nil, err
	}
	if stat.MatchesPlayed > 0 {
		stat.WinPercentage = (float64(stat.MatchesWon) / float64(stat.MatchesPlayed)) * 100
	}
	return &stat, nil
}

// GetMemberStats returns the leaderboard of members who have played.
func (s *store) GetMemberStats() ([]MemberStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rows, err := s.db.Query(statsQuery + `
		WHERE ms.matches_played > 0
		ORDER BY ms.matches_won DESC, ms.racks_won DESC, m.name ASC;
	`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	stats := []MemberStats{}
	for rows.Next() {
		stat, err := scanStats(rows)
		if err != nil {
			return nil, err
		}
		stats = append(stats, *stat)
	}
	return stats, rows.Err()
}

// GetMemberStatsByName retrieves the statistics for a single member by name.
// It performs a case-insensitive, fuzzy search (e.g., "minh" will match "Nguyen Van Minh").
func (s *store) GetMemberStatsByName(name string) (*MemberStats, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	pattern := "%" + strings.TrimSpace(name) + "%"
	stat, err := scanStats(s.db.QueryRow(statsQuery+`
		WHERE m.name LIKE ? COLLATE NOCASE
		ORDER BY COALESCE(ms.matches_played, 0) DESC
		LIMIT 1
	`, pattern))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Info("No stats found for member matching pattern", "pattern", pattern)
			return nil, fmt.Errorf("%w: '%s'", ErrMemberNotFound, name)
		}
		log.Error("Failed to query member stats by name", "error", err, "pattern", pattern)
		return nil, fmt.Errorf("database error: %w", err)
	}

	log.Debug("Found member stats by name", "member", stat.MemberName)
	return stat, nil
}

func (s *store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()

	tx, err := s.db.Begin()
	if err != nil {
		log.Error("Failed to begin transaction for clearing store", "error", err)
		return
	}

	for _, table := range []string{"applied_results", "challenges", "rank_requests", "member_stats", "members"} {
		if _, err := tx.Exec("DELETE FROM " + table); err != nil {
			log.Error("Failed to clear table", "table", table, "error", err)
			tx.Rollback()
			return
		}
	}

	if err := tx.Commit(); err != nil {
		log.Error("Failed to commit transaction for clearing store", "error", err)
	}
}

func ToAnySlice[T any](s []T) []any {
	a := make([]any, len(s))
	for i, v := range s {
		a[i] = v
	}
	return a
}
