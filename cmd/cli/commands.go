package main

import (
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"

	"github.com/spf13/cobra"
)

var (
	challengerRank string
	opponentRank   string
	stake          int
	dryRun         bool
	verbose        bool
	statusFilter   string
	memberFilter   string
	sortByRank     bool
	opponentsStake int
)

func init() {
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "Ask the server to log this request at debug level")

	handicapCmd.Flags().StringVar(&challengerRank, "challenger", "", "Rank of the challenger, e.g. H")
	handicapCmd.Flags().StringVar(&opponentRank, "opponent", "", "Rank of the opponent, e.g. G+")
	handicapCmd.Flags().IntVar(&stake, "stake", 100, "Stake of the challenge")
	_ = handicapCmd.MarkFlagRequired("challenger")
	_ = handicapCmd.MarkFlagRequired("opponent")

	processCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Render notifications without sending or storing anything")

	challengesCmd.Flags().StringVar(&statusFilter, "status", "", "Only list challenges in this status, e.g. PENDING")
	challengesCmd.Flags().StringVar(&memberFilter, "member", "", "Only list challenges involving this member ID")

	membersCmd.Flags().BoolVar(&sortByRank, "by-rank", false, "Order members strongest first")
	opponentsCmd.Flags().IntVar(&opponentsStake, "stake", 0, "Stake to play for, defaults to the lowest")

	rootCmd.AddCommand(healthCmd)
	rootCmd.AddCommand(membersCmd)
	rootCmd.AddCommand(opponentsCmd)
	rootCmd.AddCommand(leaderboardCmd)
	rootCmd.AddCommand(stakesCmd)
	rootCmd.AddCommand(handicapCmd)
	rootCmd.AddCommand(challengesCmd)
	rootCmd.AddCommand(processCmd)
	rootCmd.AddCommand(metricsCmd)
}

var healthCmd = &cobra.Command{
	Use:   "health",
	Short: "Check the health of the server",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/health", nil)
	},
}

var membersCmd = &cobra.Command{
	Use:   "members",
	Short: "List the members of the club",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if sortByRank {
			q.Set("sort", "rank")
		}
		return performGetRequest("/members", q)
	},
}

var leaderboardCmd = &cobra.Command{
	Use:   "leaderboard",
	Short: "Show the results leaderboard",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/leaderboard", nil)
	},
}

var stakesCmd = &cobra.Command{
	Use:   "stakes",
	Short: "Show the stake table",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/stakes", nil)
	},
}

var opponentsCmd = &cobra.Command{
	Use:   "opponents <member-id>",
	Short: "List the members someone can fairly challenge",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if opponentsStake > 0 {
			q.Set("stake", strconv.Itoa(opponentsStake))
		}
		return performGetRequest("/members/"+url.PathEscape(args[0])+"/opponents", q)
	},
}

var handicapCmd = &cobra.Command{
	Use:   "handicap",
	Short: "Preview race length and handicap for a pairing",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		q.Set("challenger", challengerRank)
		q.Set("opponent", opponentRank)
		q.Set("stake", strconv.Itoa(stake))
		return performGetRequest("/handicap", q)
	},
}

var challengesCmd = &cobra.Command{
	Use:   "challenges",
	Short: "List challenges",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if statusFilter != "" {
			q.Set("status", statusFilter)
		}
		if memberFilter != "" {
			q.Set("member", memberFilter)
		}
		return performGetRequest("/challenges", q)
	},
}

var processCmd = &cobra.Command{
	Use:   "process",
	Short: "Run the challenge processor once",
	RunE: func(cmd *cobra.Command, args []string) error {
		q := url.Values{}
		if dryRun {
			q.Set("dry_run", "true")
		}
		return performRequest(http.MethodPost, "/process", q)
	},
}

var metricsCmd = &cobra.Command{
	Use:   "metrics",
	Short: "Get application metrics",
	RunE: func(cmd *cobra.Command, args []string) error {
		return performGetRequest("/metrics", nil)
	},
}

func performGetRequest(endpoint string, query url.Values) error {
	return performRequest(http.MethodGet, endpoint, query)
}

func performRequest(method, endpoint string, query url.Values) error {
	if query == nil {
		query = url.Values{}
	}
	if verbose {
		query.Set("verbose", "true")
	}
	target := host + endpoint
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	fmt.Printf("Making %s request to %s\n", method, target)

	req, err := http.NewRequest(method, target, nil)
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		return fmt.Errorf("failed to make request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("failed to read response body: %w", err)
	}

	fmt.Printf("Status Code: %d\n", resp.StatusCode)
	fmt.Println("Response Body:")
	fmt.Println(string(body))

	return nil
}
