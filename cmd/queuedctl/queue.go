package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/spf13/cobra"
)

func queueCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Manage queues",
	}

	cmd.AddCommand(
		queueListCmd(),
		queueGetCmd(),
		queueCreateCmd(),
		queueDeleteCmd(),
		queueStatsCmd(),
	)

	return cmd
}

func queueListCmd() *cobra.Command {
	var (
		marker   string
		limit    int64
		detailed bool
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List queues",
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			controller, cleanup, err := newQueueController(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			queues, err := controller.List(ctx, projectPtr(), marker, limit, detailed)
			if err != nil {
				return err
			}

			w := tabwriter.NewWriter(os.Stdout, 0, 2, 2, ' ', 0)
			fmt.Fprintln(w, "NAME")
			for _, q := range queues {
				fmt.Fprintf(w, "%s\n", q.Name)
			}
			return w.Flush()
		},
	}

	cmd.Flags().StringVar(&marker, "marker", "", "resume listing strictly after this queue name")
	cmd.Flags().Int64Var(&limit, "limit", 0, "maximum queues to list (0 means unbounded)")
	cmd.Flags().BoolVar(&detailed, "detailed", false, "include queue metadata")

	return cmd
}

func queueGetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "get <name>",
		Short: "Show a queue's metadata",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			controller, cleanup, err := newQueueController(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			queue, err := controller.Get(ctx, projectPtr(), args[0])
			if err != nil {
				return err
			}

			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(queue.Metadata)
		},
	}
}

func queueCreateCmd() *cobra.Command {
	var metadataJSON string

	cmd := &cobra.Command{
		Use:   "create <name>",
		Short: "Create or update a queue",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			metadata := map[string]interface{}{}
			if metadataJSON != "" {
				if err := json.Unmarshal([]byte(metadataJSON), &metadata); err != nil {
					return fmt.Errorf("invalid --metadata JSON: %w", err)
				}
			}

			ctx := context.Background()
			controller, cleanup, err := newQueueController(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			created, err := controller.Upsert(ctx, projectPtr(), args[0], metadata)
			if err != nil {
				return err
			}

			if created {
				fmt.Printf("queue %q created\n", args[0])
			} else {
				fmt.Printf("queue %q updated\n", args[0])
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&metadataJSON, "metadata", "", "queue metadata as a JSON object")
	return cmd
}

func queueDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <name>",
		Short: "Delete a queue and purge its messages",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			controller, cleanup, err := newQueueController(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			if err := controller.Delete(ctx, projectPtr(), args[0]); err != nil {
				return err
			}
			fmt.Printf("queue %q deleted\n", args[0])
			return nil
		},
	}
}

func queueStatsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "stats <name>",
		Short: "Show a queue's claimed/free message counts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			controller, cleanup, err := newQueueController(ctx)
			if err != nil {
				return err
			}
			defer cleanup()

			stats, err := controller.Stats(ctx, projectPtr(), args[0])
			if err != nil {
				return err
			}
			fmt.Printf("claimed: %d\nfree: %d\n", stats.Claimed, stats.Free)
			return nil
		},
	}
}
