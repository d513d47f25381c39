package cmd

import (
	"context"
	"errors"
	"fmt"

	"github.com/manifoldco/promptui"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sahilg28/skillsync-backend/internal/seed"
	"github.com/sahilg28/skillsync-backend/internal/store"
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Replace every job posting with a seed set",
	Run: func(cmd *cobra.Command, _ []string) {
		seedJobs(cmd)
	},
}

func init() {
	rootCmd.AddCommand(seedCmd)

	seedCmd.Flags().StringP("file", "f", "", "yaml file with jobs to seed. Default is the built-in set.")
	seedCmd.Flags().BoolP("yes", "y", false, "do not ask for confirmation before replacing jobs")
}

func seedJobs(cmd *cobra.Command) {
	ctx := context.Background()

	logger := newLogger()
	defer logger.Sync()

	config, err := getConfig()
	if err != nil {
		logger.Fatal("getting a config", zap.Error(err))
	}

	if store.IsEphemeral(config.Store) {
		logger.Warn("the memory store does not outlive this command, use sqlite or postgres to keep seeded jobs")
	}

	file, _ := cmd.Flags().GetString("file")
	jobs, err := seed.Load(file)
	if err != nil {
		logger.Fatal("loading seed jobs", zap.Error(err))
	}

	for _, j := range jobs {
		logger.Debug("seed job", zap.String("title", j.Title), zap.String("company", j.Company))
	}

	if yes, _ := cmd.Flags().GetBool("yes"); !yes {
		prompt := promptui.Prompt{
			Label:     fmt.Sprintf("Replace all jobs in the %s store with %d seed jobs", config.Store.Driver, len(jobs)),
			IsConfirm: true,
		}
		if _, err := prompt.Run(); err != nil {
			if errors.Is(err, promptui.ErrAbort) || errors.Is(err, promptui.ErrInterrupt) {
				logger.Info("seeding cancelled")
				return
			}
			logger.Fatal("confirmation prompt", zap.Error(err))
		}
	}

	st, err := store.Open(ctx, config.Store)
	if err != nil {
		logger.Fatal("opening the store", zap.Error(err))
	}
	defer st.Close()

	if err := st.ReplaceJobs(ctx, jobs); err != nil {
		logger.Fatal("replacing jobs", zap.Error(err))
	}

	logger.Info("jobs seeded", zap.Int("count", len(jobs)), zap.String("store", config.Store.Driver))
}
