// Package studio exposes the WaveFlow Studio endpoints as small per-domain
// services. Every service holds the same Gateway and builds exactly one
// waveflow.Call per method; failures are the gateway's normalized errors.
//
//	client, err := studio.Connect(ctx, os.Getenv("WAVEFLOW_API_KEY"))
//	if err != nil {
//		return err
//	}
//	if _, err := client.Workflows.Create(ctx, "agents.json"); err != nil {
//		return err
//	}
//	answer, err := client.Workflows.Chat(ctx, "Summarize the report", "")
package studio
