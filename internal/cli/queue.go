package cli

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newQueueCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "queue",
		Short: "Inspect and replay the offline queue",
	}
	cmd.AddCommand(newQueueStatusCmd(a), newQueueDrainCmd(a), newQueueClearCmd(a))
	return cmd
}

func newQueueStatusCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "List pending mutations in replay order",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := a.offlineQueue(cmd.Context())
			if err != nil {
				return err
			}
			pending, err := q.Pending(cmd.Context())
			if err != nil {
				return err
			}
			return printJSON(cmd.OutOrStdout(), pending)
		},
	}
}

func newQueueDrainCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "drain",
		Short: "Replay pending mutations against the API",
		Long: `Replays queued mutations one at a time, oldest first. A failed replay
stays at the head with its retry count raised and stops the pass; after
max_retries failures the mutation is dropped.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if a.v.GetBool(keyOffline) {
				return fmt.Errorf("cannot drain with --offline")
			}
			if _, err := a.client(cmd.Context()); err != nil {
				return err
			}
			q, err := a.offlineQueue(cmd.Context())
			if err != nil {
				return err
			}
			res, err := q.Drain(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "synced=%d failed=%d abandoned=%d remaining=%d\n",
				res.Synced, res.Failed, res.Abandoned, res.Remaining)
			return nil
		},
	}
}

func newQueueClearCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Drop every pending mutation",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			q, err := a.offlineQueue(cmd.Context())
			if err != nil {
				return err
			}
			n, err := q.Len(cmd.Context())
			if err != nil {
				return err
			}
			if err := q.Clear(cmd.Context()); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "cleared %d queued mutation(s)\n", n)
			return nil
		},
	}
}
