package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/apoorv/socratic/internal/config"
	"github.com/apoorv/socratic/internal/logger"
	"github.com/apoorv/socratic/internal/store"
)

var (
	seedEmail    string
	seedUsername string
	seedTopics   []string
)

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Create a user and root topics for a fresh database",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(configPath)
		if err != nil {
			return err
		}
		log, err := logger.New(cfg.Log.Mode)
		if err != nil {
			return err
		}
		defer log.Sync()

		st, err := store.Open(store.Config{Driver: cfg.Database.Driver, DSN: cfg.Database.DSN}, log)
		if err != nil {
			return fmt.Errorf("open store: %w", err)
		}
		defer st.Close()

		ctx := cmd.Context()

		user := &store.User{Email: seedEmail, Username: seedUsername}
		if err := st.Users().Create(ctx, user); err != nil {
			return fmt.Errorf("create user: %w", err)
		}
		fmt.Printf("user %s (%s)\n", user.Username, user.ID)

		for _, name := range seedTopics {
			topic := &store.Topic{Name: name, DifficultyMin: 1, DifficultyMax: 10}
			if err := st.Topics().Create(ctx, topic); err != nil {
				return fmt.Errorf("create topic %q: %w", name, err)
			}
			// Root topics start unlocked for the seeded user.
			if _, err := st.Mastery().GetOrCreate(ctx, user.ID, topic.ID, true); err != nil {
				return fmt.Errorf("unlock topic %q: %w", name, err)
			}
			fmt.Printf("topic %s (%s)\n", topic.Name, topic.ID)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().StringVar(&seedEmail, "email", "learner@example.com", "Email for the seeded user")
	seedCmd.Flags().StringVar(&seedUsername, "username", "learner", "Username for the seeded user")
	seedCmd.Flags().StringSliceVar(&seedTopics, "topics", []string{"Mathematics"}, "Root topic names to create")
}
