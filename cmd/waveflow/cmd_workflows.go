package main

import (
	"context"
	"time"

	"github.com/spf13/cobra"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/internal/watch"
)

func newWorkflowsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "workflows", Short: "Create, run and manage workflows"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List workflow templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Workflows.List(cmd.Context()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "create <agents.json>",
		Short: "Create a workflow from an agents file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Workflows.Create(cmd.Context(), args[0]))
		},
	})

	var chatContext string
	chat := &cobra.Command{
		Use:   "chat <workflow-id> <query>",
		Short: "Ask a workflow a question",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			a.gw.SetSession(args[0])
			return a.printResult(c.Workflows.Chat(cmd.Context(), args[1], chatContext))
		},
	}
	chat.Flags().StringVar(&chatContext, "context", "", "Extra context for the query")
	cmd.AddCommand(chat)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a workflow",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Workflows.Delete(cmd.Context(), args[0]))
		},
	})

	var desc string
	rename := &cobra.Command{
		Use:   "rename <id> <name>",
		Short: "Rename a workflow",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Workflows.Rename(cmd.Context(), args[0], args[1], desc))
		},
	}
	rename.Flags().StringVar(&desc, "description", "", "New description")
	cmd.AddCommand(rename)

	cmd.AddCommand(&cobra.Command{
		Use:   "admin-run <id>",
		Short: "Run a workflow from the admin view",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Workflows.AdminRun(cmd.Context(), args[0]))
		},
	})

	cmd.AddCommand(newSyncCmd(a))
	return cmd
}

func newSyncCmd(a *app) *cobra.Command {
	var (
		watchFile bool
		debounce  time.Duration
	)
	cmd := &cobra.Command{
		Use:   "sync <agents.json>",
		Short: "Create a workflow from a file, optionally again on every change",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			c, err := a.studio(ctx)
			if err != nil {
				return err
			}

			push := func(ctx context.Context, path string) error {
				return a.printResult(c.Workflows.Create(ctx, path))
			}
			if err := push(ctx, args[0]); err != nil {
				return err
			}
			if !watchFile {
				return nil
			}

			w, err := watch.New(args[0], push, watch.WithLogger(a.logger), watch.WithDebounce(debounce))
			if err != nil {
				return err
			}
			return w.Run(ctx)
		},
	}
	cmd.Flags().BoolVarP(&watchFile, "watch", "w", false, "Keep running and re-create the workflow when the file changes")
	cmd.Flags().DurationVar(&debounce, "debounce", watch.DefaultDebounce, "Quiet period before a change is pushed")
	return cmd
}
