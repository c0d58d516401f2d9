// Package eventstore persists build history: an append-only log of build
// lifecycle events. The log backs `docnav builds` style introspection and the
// fingerprint-based early skip (an unchanged descriptor and corpus need no
// rebuild).
package eventstore

import (
	"context"
	"time"
)

// Event types appended by the build pipeline.
const (
	TypeBuildStarted   = "build.started"
	TypeBuildCompleted = "build.completed"
	TypeBuildFailed    = "build.failed"
	TypeBuildSkipped   = "build.skipped"
)

// Event is a single persisted build event.
type Event struct {
	ID        int64
	BuildID   string
	Type      string
	Timestamp time.Time
	Payload   []byte
	Metadata  map[string]string
}

// Store defines the interface for persisting and retrieving build events.
type Store interface {
	// Append adds a new event to the store.
	Append(ctx context.Context, buildID, eventType string, payload []byte, metadata map[string]string) error

	// GetByBuildID retrieves all events for a specific build, oldest first.
	GetByBuildID(ctx context.Context, buildID string) ([]Event, error)

	// GetRange retrieves events within a time range.
	GetRange(ctx context.Context, start, end time.Time) ([]Event, error)

	// LatestFingerprint returns the input fingerprint recorded by the most
	// recent completed build, or "" when no build has completed yet.
	LatestFingerprint(ctx context.Context) (string, error)

	// Close closes the store and releases resources.
	Close() error
}

// MetaFingerprint is the metadata key carrying a build's input fingerprint.
const MetaFingerprint = "fingerprint"
