package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/studio"
	"github.com/agentanalytics-tech/waveflow-studio-sdk/pkg/waveflow"
)

func newWhoamiCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "whoami",
		Short: "Show the credential check for the configured key",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Users.Validate(cmd.Context()))
		},
	}
}

func newModelsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "models", Short: "Manage saved models"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List saved models",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Models.List(cmd.Context()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "provider <groq|gemini|openai|together>",
		Short: "List the models offered by a provider",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Models.ByProvider(cmd.Context(), args[0]))
		},
	})

	var spec studio.ModelSpec
	set := &cobra.Command{
		Use:   "set",
		Short: "Save a model",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Models.Set(cmd.Context(), spec))
		},
	}
	set.Flags().StringVar(&spec.Client, "client", "", "Provider client, e.g. openai")
	set.Flags().StringVar(&spec.ModelName, "model", "", "Model name")
	set.Flags().StringVar(&spec.APIKey, "model-api-key", "", "Provider API key")
	set.Flags().StringVar(&spec.BaseURL, "model-base-url", "", "Provider base URL")
	set.Flags().StringVar(&spec.Description, "description", "", "System description")
	cmd.AddCommand(set)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a saved model",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Models.Delete(cmd.Context(), args[0]))
		},
	})
	return cmd
}

func newToolsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "tools", Short: "Manage user-defined tools"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List tools",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Tools.List(cmd.Context()))
		},
	})

	var (
		req     studio.AddToolRequest
		secrets []string
	)
	add := &cobra.Command{
		Use:   "add",
		Short: "Upload a Python tool",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			for _, s := range secrets {
				k, v, err := splitPair(s)
				if err != nil {
					return fmt.Errorf("--secret: %w", err)
				}
				req.Secrets = append(req.Secrets, studio.Secret{Key: k, Value: v})
			}
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Tools.Add(cmd.Context(), req))
		},
	}
	add.Flags().StringVar(&req.Name, "name", "", "Tool name")
	add.Flags().StringVar(&req.Description, "description", "", "Tool description")
	add.Flags().StringVar(&req.FilePath, "file", "", "Path to the .py source")
	add.Flags().StringVar(&req.Token, "token", "", "Bearer token for the upload instead of the API key")
	add.Flags().StringArrayVar(&secrets, "secret", nil, "Secret as KEY=VALUE (repeatable)")
	cmd.AddCommand(add)

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a tool",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Tools.Delete(cmd.Context(), args[0]))
		},
	})

	var dest string
	download := &cobra.Command{
		Use:   "download <id>",
		Short: "Download a tool's source file",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			d, err := c.Tools.DownloadTo(cmd.Context(), args[0], dest)
			if err != nil {
				return err
			}
			if d.Payload != nil {
				return a.print(d.Payload)
			}
			return a.print(map[string]any{"file": d.Filename, "bytes": len(d.Content)})
		},
	}
	download.Flags().StringVar(&dest, "out", ".", "Destination file or directory")
	cmd.AddCommand(download)
	return cmd
}

func newAppsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "apps", Short: "Browse and run pre-defined app actions"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List the app catalogue",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Apps.List(cmd.Context()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "info <name>",
		Short: "Describe an app",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Apps.Info(cmd.Context(), args[0]))
		},
	})

	var rawArgs string
	execute := &cobra.Command{
		Use:   "execute <slug>",
		Short: "Execute an app action",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var arguments map[string]any
			if rawArgs != "" {
				if err := waveflow.DecodeJSON([]byte(rawArgs), &arguments); err != nil {
					return fmt.Errorf("--args must be a JSON object: %w", err)
				}
			}
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Apps.Execute(cmd.Context(), args[0], arguments))
		},
	}
	execute.Flags().StringVar(&rawArgs, "args", "", "Action arguments as a JSON object")
	cmd.AddCommand(execute)
	return cmd
}

func newConnectionsCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{Use: "connections", Short: "Manage app connections"}

	cmd.AddCommand(&cobra.Command{
		Use:   "list",
		Short: "List connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Connections.List(cmd.Context()))
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := a.studio(cmd.Context())
			if err != nil {
				return err
			}
			return a.printResult(c.Connections.Delete(cmd.Context(), args[0]))
		},
	})
	return cmd
}
