package slack

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/mauv0809/sabo-club/internal/notifier"
	"github.com/slack-go/slack"
)

const timeLayout = "Monday 02 Jan, 15:04"

// slackClient is an interface that contains the methods from the slack.Client that we use.
// This allows for easy mocking in tests.
type slackClient interface {
	PostMessageContext(ctx context.Context, channelID string, options ...slack.MsgOption) (string, string, error)
}

var _ notifier.Notifier = &Notifier{}

// Notifier handles sending notifications to Slack.
type Notifier struct {
	api       slackClient
	channelID string
	metrics   metrics.Metrics
	loc       *time.Location
}

// NewNotifier creates a new Notifier. Times are rendered in loc.
func NewNotifier(token, channelID string, metrics metrics.Metrics, loc *time.Location) *Notifier {
	return NewNotifierWithAPI(slack.New(token), channelID, metrics, loc)
}

// NewNotifierWithAPI creates a new Notifier with a specific slack.Client instance.
// Useful for tests that need to intercept API calls.
func NewNotifierWithAPI(api slackClient, channelID string, metrics metrics.Metrics, loc *time.Location) *Notifier {
	if loc == nil {
		loc = time.UTC
	}
	return &Notifier{
		api:       api,
		channelID: channelID,
		metrics:   metrics,
		loc:       loc,
	}
}

func (s *Notifier) sendMessage(message slack.Message, dryRun bool) (string, string, error) {
	if dryRun {
		jsonMsg, _ := json.MarshalIndent(message, "", "  ")
		log.Info("[Dry Run] Would send Slack message", "channel", s.channelID, "message", string(jsonMsg))
		return "dry-run-channel", "dry-run-ts", nil
	}

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	channelID, timestamp, err := s.api.PostMessageContext(
		ctx,
		s.channelID,
		slack.MsgOptionBlocks(message.Blocks.BlockSet...),
		slack.MsgOptionAsUser(true),
	)
	if err != nil {
		s.metrics.IncSlackNotifFailed()
		log.Error("Failed to send Slack message", "error", err, "channel", s.channelID)
		return "", "", fmt.Errorf("failed to post message: %w", err)
	}

	s.metrics.IncSlackNotifSent()
	log.Info("Successfully sent Slack message", "channel", channelID, "timestamp", timestamp)
	return channelID, timestamp, nil
}

func (s *Notifier) SendChallengeCreated(c *challenge.Challenge, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatChallengeCreated(c), dryRun)
	return err
}

func (s *Notifier) SendChallengeAccepted(c *challenge.Challenge, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatChallengeAccepted(c), dryRun)
	return err
}

func (s *Notifier) SendChallengeResult(c *challenge.Challenge, dryRun bool) error {
	_, _, err := s.sendMessage(s.formatChallengeResult(c), dryRun)
	return err
}

// FormatLeaderboardResponse formats the stats leaderboard for a slash command response.
func (s *Notifier) FormatLeaderboardResponse(stats []club.MemberStats) (any, error) {
	return s.formatLeaderboard(stats), nil
}

// FormatRankLeaderboardResponse formats members by rank for a slash command response.
func (s *Notifier) FormatRankLeaderboardResponse(members []club.Member) (any, error) {
	return s.formatRankLeaderboard(members), nil
}

func (s *Notifier) FormatMemberStatsResponse(stats *club.MemberStats, query string) (any, error) {
	return s.formatMemberStats(stats, query), nil
}

func (s *Notifier) FormatMemberNotFoundResponse(query string) (any, error) {
	return s.formatMemberNotFound(query), nil
}

func (s *Notifier) FormatHandicapResponse(p handicap.Proposal, res handicap.Result) (any, error) {
	return s.formatHandicap(p, res), nil
}

func (s *Notifier) FormatChallengeResponse(c *challenge.Challenge) (any, error) {
	return s.formatChallengeConfirmation(c), nil
}

func (s *Notifier) FormatErrorResponse(message string) (any, error) {
	text := fmt.Sprintf(":warning: %s", message)
	return slack.NewBlockMessage(
		slack.NewSectionBlock(slack.NewTextBlockObject("mrkdwn", text, false, false), nil, nil),
	), nil
}

func header(text string) slack.Block {
	return slack.NewHeaderBlock(slack.NewTextBlockObject("plain_text", text, true, false))
}

func section(kind, text string) slack.Block {
	return slack.NewSectionBlock(slack.NewTextBlockObject(kind, text, kind == "plain_text", false), nil, nil)
}

// racks renders a handicap without trailing zeros: 2 -> "2", 1.5 -> "1.5".
func racks(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func handicapLine(c *challenge.Challenge) string {
	switch c.Handicap().Favoured() {
	case handicap.SideChallenger:
		return fmt.Sprintf("%s starts with %s racks", c.ChallengerName, racks(c.ChallengerHandicap))
	case handicap.SideOpponent:
		return fmt.Sprintf("%s starts with %s racks", c.OpponentName, racks(c.OpponentHandicap))
	}
	return "No handicap"
}

func (s *Notifier) challengeFields(c *challenge.Challenge) []*slack.TextBlockObject {
	return []*slack.TextBlockObject{
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Stake*\n%d", c.Stake), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Race to*\n%d", c.RaceTo), false, false),
		slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Handicap*\n%s", handicapLine(c)), false, false),
	}
}

// formatChallengeCreated announces a new direct or open challenge.
func (s *Notifier) formatChallengeCreated(c *challenge.Challenge) slack.Message {
	blocks := []slack.Block{header(":8ball: New challenge! :8ball:")}

	var intro string
	if c.Status == challenge.StatusOpen {
		intro = fmt.Sprintf("%s (%s) is looking for an opponent. Anyone within one grade can accept.", c.ChallengerName, c.ChallengerRank)
		blocks = append(blocks, section("plain_text", intro))
		blocks = append(blocks, slack.NewSectionBlock(nil, []*slack.TextBlockObject{
			slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Stake*\n%d", c.Stake), false, false),
			slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("*Race to*\n%d", c.RaceTo), false, false),
		}, nil))
	} else {
		intro = fmt.Sprintf("%s (%s) challenges %s (%s)", c.ChallengerName, c.ChallengerRank, c.OpponentName, c.OpponentRank)
		blocks = append(blocks, section("plain_text", intro))
		blocks = append(blocks, slack.NewSectionBlock(nil, s.challengeFields(c), nil))
	}

	var contextElements []slack.MixedElement
	if c.ScheduledAt != nil {
		contextElements = append(contextElements, slack.NewTextBlockObject("plain_text",
			fmt.Sprintf(":calendar: %s", c.ScheduledAt.In(s.loc).Format(timeLayout)), true, false))
	}
	contextElements = append(contextElements, slack.NewTextBlockObject("plain_text",
		fmt.Sprintf(":hourglass: Answer before %s", c.ExpiresAt.In(s.loc).Format(timeLayout)), true, false))
	blocks = append(blocks, slack.NewContextBlock("", contextElements...))

	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatChallengeAccepted(c *challenge.Challenge) slack.Message {
	text := fmt.Sprintf("%s (%s) accepted the challenge from %s (%s)", c.OpponentName, c.OpponentRank, c.ChallengerName, c.ChallengerRank)
	return slack.NewBlockMessage(
		header(":handshake: Challenge accepted!"),
		section("plain_text", text),
		slack.NewSectionBlock(nil, s.challengeFields(c), nil),
	)
}

func (s *Notifier) formatChallengeResult(c *challenge.Challenge) slack.Message {
	blocks := []slack.Block{header(":trophy: Challenge finished! :trophy:")}

	if c.ChallengerScore == nil || c.OpponentScore == nil {
		blocks = append(blocks, section("plain_text", "Result: No score reported."))
		return slack.NewBlockMessage(blocks...)
	}

	winner := c.ChallengerName
	if c.WinnerID == c.OpponentID {
		winner = c.OpponentName
	}
	score := fmt.Sprintf("• %s: %d\n• %s: %d\nRace to %d (%s)",
		c.ChallengerName, *c.ChallengerScore,
		c.OpponentName, *c.OpponentScore,
		c.RaceTo, handicapLine(c),
	)
	blocks = append(blocks,
		section("plain_text", fmt.Sprintf("%s won! :tada:", winner)),
		section("plain_text", score),
	)
	return slack.NewBlockMessage(blocks...)
}

func medal(position int) string {
	switch position {
	case 1:
		return ":first_place_medal:"
	case 2:
		return ":second_place_medal:"
	case 3:
		return ":third_place_medal:"
	}
	return ""
}

// formatLeaderboard creates a Slack message to display the member leaderboard.
func (s *Notifier) formatLeaderboard(stats []club.MemberStats) slack.Message {
	blocks := []slack.Block{header(":trophy: Challenge Leaderboard :trophy:")}

	if len(stats) == 0 {
		blocks = append(blocks, section("plain_text", "No results yet. Go play some challenges!"))
		return slack.NewBlockMessage(blocks...)
	}

	for i, stat := range stats {
		text := fmt.Sprintf("%d. %s %s (%s)\n> Win %%: %.2f%% (%d/%d) | Racks: %d-%d",
			i+1,
			medal(i+1),
			stat.MemberName,
			stat.Rank,
			stat.WinPercentage,
			stat.MatchesWon,
			stat.MatchesPlayed,
			stat.RacksWon,
			stat.RacksLost,
		)
		blocks = append(blocks, section("plain_text", text))
	}
	return slack.NewBlockMessage(blocks...)
}

// formatRankLeaderboard lists members strongest first.
func (s *Notifier) formatRankLeaderboard(members []club.Member) slack.Message {
	blocks := []slack.Block{header(":trophy: Members by Rank :trophy:")}

	if len(members) == 0 {
		blocks = append(blocks, section("plain_text", "No members found."))
		return slack.NewBlockMessage(blocks...)
	}

	for i, m := range members {
		text := fmt.Sprintf("%d. %s %s\n> *Rank*: %s", i+1, medal(i+1), m.Name, m.Rank)
		blocks = append(blocks, section("mrkdwn", text))
	}
	return slack.NewBlockMessage(blocks...)
}

func (s *Notifier) formatMemberStats(stat *club.MemberStats, query string) slack.Message {
	text := fmt.Sprintf("> *Rank*: %s\n> *Win %%*: %.2f%% (%d/%d)\n> *Racks won*: %d\n> *Racks lost*: %d",
		stat.Rank,
		stat.WinPercentage,
		stat.MatchesWon,
		stat.MatchesPlayed,
		stat.RacksWon,
		stat.RacksLost,
	)
	return slack.NewBlockMessage(
		header(fmt.Sprintf(":8ball: Stats for %s", stat.MemberName)),
		section("mrkdwn", text),
	)
}

func (s *Notifier) formatMemberNotFound(query string) slack.Message {
	text := fmt.Sprintf("Sorry, I couldn't find a member matching *%s*. Try a different name.", query)
	return slack.NewBlockMessage(section("mrkdwn", text))
}

func (s *Notifier) formatHandicap(p handicap.Proposal, res handicap.Result) slack.Message {
	var line string
	switch res.Favoured() {
	case handicap.SideChallenger:
		line = fmt.Sprintf("Challenger (%s) starts with %s racks", p.ChallengerRank, racks(res.ChallengerHandicap))
	case handicap.SideOpponent:
		line = fmt.Sprintf("Opponent (%s) starts with %s racks", p.OpponentRank, racks(res.OpponentHandicap))
	default:
		line = "No handicap"
	}
	text := fmt.Sprintf("*%s vs %s* at stake %d\n> *Race to*: %d\n> %s", p.ChallengerRank, p.OpponentRank, p.Stake, res.RaceTo, line)
	return slack.NewBlockMessage(
		header(":abacus: Handicap"),
		section("mrkdwn", text),
	)
}

func (s *Notifier) formatChallengeConfirmation(c *challenge.Challenge) slack.Message {
	var text string
	if c.Status == challenge.StatusOpen {
		text = fmt.Sprintf("Open challenge posted at stake %d, race to %d.", c.Stake, c.RaceTo)
	} else {
		text = fmt.Sprintf("Challenge sent to %s at stake %d, race to %d. %s.", c.OpponentName, c.Stake, c.RaceTo, handicapLine(c))
	}
	return slack.NewBlockMessage(
		section("plain_text", text),
		slack.NewContextBlock("", slack.NewTextBlockObject("mrkdwn", fmt.Sprintf("ID: `%s`", c.ID), false, false)),
	)
}
