// Package telemetry wires OpenTelemetry exporters and meters for the
// WaveFlow Studio SDK.
//
// It centralises trace provider setup for processes embedding the SDK and
// offers helpers that record gateway call metrics and session events on
// spans without exporting credentials or raw session identifiers.
package telemetry
