package main

import (
	"github.com/spf13/cobra"
)

// newRootCmd creates the root command for waveflow
func newRootCmd(a *app) *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "waveflow",
		Short: "Command-line client for WaveFlow Studio",
		Long: `A command-line client for the WaveFlow Studio service.

Settings are read from a YAML file (--config), then WAVEFLOW_* environment
variables, then flags; later sources win.

Example:
  export WAVEFLOW_API_KEY=AAAI...
  waveflow workflows create agents.json
  waveflow workflows sync agents.json --watch`,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return a.setup(cmd)
		},
		PersistentPostRunE: func(cmd *cobra.Command, _ []string) error {
			return a.close(cmd.Context())
		},
	}
	rootCmd.SetOut(a.stdout)
	rootCmd.SetErr(a.stderr)

	pf := rootCmd.PersistentFlags()
	pf.StringVar(&a.flags.apiKey, "api-key", "", "API key or delegated token (env WAVEFLOW_API_KEY)")
	pf.StringVar(&a.flags.baseURL, "base-url", "", "Service address (env WAVEFLOW_BASE_URL)")
	pf.StringVarP(&a.flags.configPath, "config", "c", "", "Path to configuration file (YAML)")
	pf.StringVarP(&a.flags.logLevel, "log-level", "l", "info", "Log level (debug, info, warn, error)")
	pf.StringVar(&a.flags.logFormat, "log-format", "text", "Log format (text, json)")
	pf.StringVarP(&a.flags.output, "output", "o", "json", "Output format (json, yaml)")
	pf.StringVar(&a.flags.otlpEndpoint, "otlp-endpoint", "", "OTLP/gRPC endpoint for traces")
	pf.BoolVar(&a.flags.otlpInsecure, "otlp-insecure", false, "Disable TLS for the OTLP endpoint")
	pf.DurationVar(&a.flags.timeout, "timeout", 0, "Overall command timeout (0 = none)")

	rootCmd.AddCommand(
		newWhoamiCmd(a),
		newModelsCmd(a),
		newToolsCmd(a),
		newAppsCmd(a),
		newConnectionsCmd(a),
		newWorkflowsCmd(a),
		newPromptsCmd(a),
		newFilesCmd(a),
		newCallCmd(a),
	)
	return rootCmd
}
