// Package services provides the error classification markers and context
// carriers shared by every pipeline stage. Stages wrap failures with a
// sentinel marker so the orchestrator and CLI can decide whether an error is
// fatal or degrades to a report entry.
package services
