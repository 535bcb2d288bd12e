package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/queued/queued/internal/core"
	"github.com/queued/queued/internal/pkg/logger"
	"github.com/queued/queued/internal/store"
	"github.com/spf13/cobra"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

var (
	mongoURI string
	database string
	project  string
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "queuedctl",
		Short: "queuedctl - administer a queued document store",
		Long:  "A CLI for inspecting and managing queues in a queued deployment",
	}

	rootCmd.PersistentFlags().StringVar(&mongoURI, "mongo-uri", "mongodb://localhost:27017", "store connection URI")
	rootCmd.PersistentFlags().StringVar(&database, "database", "queued", "store database name")
	rootCmd.PersistentFlags().StringVar(&project, "project", "", "project to scope commands to (empty means the null project)")

	rootCmd.AddCommand(queueCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func projectPtr() *string {
	if project == "" {
		return nil
	}
	p := project
	return &p
}

func newQueueController(ctx context.Context) (*core.QueueController, func(), error) {
	client, err := mongo.Connect(ctx, options.Client().ApplyURI(mongoURI))
	if err != nil {
		return nil, nil, fmt.Errorf("connect: %w", err)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx, nil); err != nil {
		return nil, nil, fmt.Errorf("ping: %w", err)
	}

	st := store.New(client, database)
	if err := st.EnsureIndexes(ctx); err != nil {
		return nil, nil, fmt.Errorf("ensure indexes: %w", err)
	}

	log := logger.NewNop()
	controller := core.NewQueueController(st.NewQueueRepository(), st.NewMessageRepository(), log)

	cleanup := func() {
		_ = client.Disconnect(context.Background())
	}
	return controller, cleanup, nil
}
