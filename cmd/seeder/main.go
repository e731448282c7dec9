package main

import (
	"fmt"
	"math"
	"os"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/charmbracelet/log"
	"github.com/mauv0809/sabo-club/internal/challenge"
	"github.com/mauv0809/sabo-club/internal/club"
	"github.com/mauv0809/sabo-club/internal/config"
	"github.com/mauv0809/sabo-club/internal/database"
	"github.com/mauv0809/sabo-club/internal/handicap"
	"github.com/mauv0809/sabo-club/internal/metrics"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"
)

var (
	numMembers    int
	numChallenges int
	seed          int64
	reset         bool
)

var rootCmd = &cobra.Command{
	Use:   "sabo-seeder",
	Short: "Fill the club database with fake members and played challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		return run()
	},
}

func init() {
	rootCmd.Flags().IntVar(&numMembers, "members", 24, "Number of members to create")
	rootCmd.Flags().IntVar(&numChallenges, "challenges", 60, "Number of completed challenges to play between them")
	rootCmd.Flags().Int64Var(&seed, "seed", 0, "Random seed, 0 picks one from the clock")
	rootCmd.Flags().BoolVar(&reset, "reset", false, "Delete all club data first")
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Seeding failed: %s\n", err)
		os.Exit(1)
	}
}

func run() error {
	log.Info("Starting database seeder...")
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	db, teardown, err := database.InitDB(cfg.DBName, cfg.Turso.PrimaryURL, cfg.Turso.AuthToken)
	if err != nil {
		return fmt.Errorf("failed to open database: %w", err)
	}
	defer teardown()

	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	faker := gofakeit.New(uint64(seed))
	resolver := handicap.Default()
	clubStore := club.New(db)
	challenges := challenge.NewStore(db, clubStore, resolver, metrics.NewService(prometheus.NewRegistry()), cfg.Challenge.TTL())

	if reset {
		log.Warn("Clearing all club data")
		clubStore.Clear()
	}

	members := fakeMembers(faker, resolver.Scale(), numMembers)
	if err := clubStore.UpsertMembers(members); err != nil {
		return err
	}
	log.Info("Seeded members", "count", len(members), "seed", seed)

	start := time.Now()
	played := 0
	for i := 0; i < numChallenges; i++ {
		if err := playChallenge(faker, resolver, clubStore, challenges, members); err != nil {
			log.Warn("Skipping challenge", "error", err)
			continue
		}
		played++
	}
	log.Info("Seeded challenges", "played", played, "duration", time.Since(start))
	return nil
}

func fakeMembers(faker *gofakeit.Faker, scale *handicap.RankScale, n int) []club.Member {
	labels := scale.Labels()
	members := make([]club.Member, 0, n)
	for i := 0; i < n; i++ {
		members = append(members, club.Member{
			ID:   fmt.Sprintf("seed-%03d", i+1),
			Name: faker.Name(),
			Rank: labels[faker.Number(0, len(labels)-1)],
		})
	}
	return members
}

// playChallenge picks a pairing the resolver accepts, then accepts, scores and
// settles it so the leaderboard has data.
func playChallenge(faker *gofakeit.Faker, resolver *handicap.Resolver, clubStore club.ClubStore, challenges challenge.ChallengeStore, members []club.Member) error {
	stakes := resolver.Stakes().Stakes()
	var (
		in  challenge.NewChallenge
		res handicap.Result
		err error
	)
	for attempt := 0; attempt < 20; attempt++ {
		a, b := members[faker.Number(0, len(members)-1)], members[faker.Number(0, len(members)-1)]
		if a.ID == b.ID {
			continue
		}
		in = challenge.NewChallenge{ChallengerID: a.ID, OpponentID: b.ID, Stake: stakes[faker.Number(0, len(stakes)-1)]}
		if res, err = resolver.Resolve(handicap.Proposal{ChallengerRank: a.Rank, OpponentRank: b.Rank, Stake: in.Stake}); err == nil {
			break
		}
	}
	if err != nil {
		return err
	}

	c, err := challenges.CreateChallenge(in)
	if err != nil {
		return err
	}
	if _, err := challenges.AcceptChallenge(c.ID, c.OpponentID); err != nil {
		return err
	}

	challengerWins := faker.Bool()
	winnerRacks := func(h float64) int { return int(math.Ceil(float64(res.RaceTo) - h)) }
	loserRacks := func(h float64) int { return faker.Number(0, winnerRacks(h)-1) }
	var cr, or int
	if challengerWins {
		cr, or = winnerRacks(res.ChallengerHandicap), loserRacks(res.OpponentHandicap)
	} else {
		cr, or = loserRacks(res.ChallengerHandicap), winnerRacks(res.OpponentHandicap)
	}
	c, err = challenges.SubmitScore(c.ID, cr, or)
	if err != nil {
		return err
	}

	update := club.StatsUpdate{ChallengeID: c.ID, WinnerID: c.WinnerID, LoserID: c.LoserID(), WinnerRacks: cr, LoserRacks: or}
	if c.WinnerID != c.ChallengerID {
		update.WinnerRacks, update.LoserRacks = or, cr
	}
	if err := clubStore.UpdateMemberStats(update); err != nil {
		return err
	}
	// Seeded results are history, not news.
	return challenges.UpdateProcessingStatus(c.ID, challenge.ProcessingDone)
}
