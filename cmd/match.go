package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/matching"
	"github.com/sahilg28/skillsync-backend/internal/store"
)

var matchCmd = &cobra.Command{
	Use:   "match",
	Short: "Find job matches for a user and print them as JSON",
	Run: func(cmd *cobra.Command, _ []string) {
		match(cmd)
	},
}

func init() {
	rootCmd.AddCommand(matchCmd)

	matchCmd.Flags().StringP("user", "u", "", "user id whose profile is matched")
	matchCmd.Flags().BoolP("structured", "s", false, "ask for scored recommendations with reasoning")
	matchCmd.MarkFlagRequired("user")
}

type matchReport struct {
	UserID  string           `json:"userId"`
	Shape   matching.Shape   `json:"shape"`
	Matches []matching.Match `json:"matches"`
	Stages  []matchStage     `json:"stages"`
}

type matchStage struct {
	Name    string `json:"name"`
	Initial int    `json:"initial"`
	Dropped int    `json:"dropped"`
	Left    int    `json:"left"`
}

func match(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	userID, _ := cmd.Flags().GetString("user")
	userID = strings.TrimSpace(userID)
	if userID == "" {
		logger.Fatal("--user must not be empty")
	}

	shape := matching.ShapePlainList
	if structured, _ := cmd.Flags().GetBool("structured"); structured {
		shape = matching.ShapeStructured
	}

	st, err := store.Open(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer st.Close()

	generator, err := newGenerator(ctx, config.AI, logger)
	if err != nil {
		logger.Fatal("creating the ai gateway", zap.Error(err))
	}

	matcher := matching.NewMatcher(st, st, generator, matchingConfig(config), logger.Named("matching"))

	outcome, err := matcher.FindMatches(ctx, userID, shape)
	if err != nil {
		logger.Fatal("finding matches", zap.Error(err))
	}

	report := matchReport{UserID: userID, Shape: shape, Matches: outcome.Matches}
	if report.Matches == nil {
		report.Matches = []matching.Match{}
	}
	for _, s := range outcome.Stages {
		report.Stages = append(report.Stages, matchStage(s))
	}

	pretty, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		logger.Fatal("encoding matches", zap.Error(err))
	}
	fmt.Fprintln(os.Stdout, string(pretty))
}
