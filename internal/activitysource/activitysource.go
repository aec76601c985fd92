// Package activitysource declares the abstract boundary toward completed-
// activity ingestion (webhook/OAuth/polling adapters). Out of scope per
// spec.md §1: this package is interface-only, with no concrete adapter.
package activitysource

import (
	"context"
	"time"
)

// Activity is the minimal shape the planning pipeline and controller need
// from a completed workout, independent of which provider produced it.
type Activity struct {
	ID              string
	UserID          string
	StartedAt       time.Time
	Sport           string
	DurationSeconds int64
	DistanceMeters  float64
	Stress          float64 // training-stress score, for internal/metrics
}

// Source is implemented by a concrete third-party activity provider
// integration. The core only ever calls RecentActivities; everything else
// (webhooks, OAuth refresh, polling cadence) lives behind the adapter.
type Source interface {
	RecentActivities(ctx context.Context, userID string, since time.Time) ([]Activity, error)
}
