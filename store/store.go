// Package store defines the composite persistence interface backends
// implement.
//
// Each subsystem (job, user, alert) declares its own store interface next
// to its entities; a backend implements all of them plus lifecycle. Three
// backends ship with crontrack: store/memory for tests and development,
// store/postgres for durable deployments, and store/redis for
// installations that already run Redis.
package store

import (
	"context"

	"github.com/Arch199/crontrack/alert"
	"github.com/Arch199/crontrack/event"
	"github.com/Arch199/crontrack/job"
	"github.com/Arch199/crontrack/user"
)

// Store is the composite interface a crontrack backend satisfies.
type Store interface {
	job.Store
	user.Store
	alert.Store
	event.Store

	// Migrate creates or upgrades backend schema. No-op for schemaless
	// backends.
	Migrate(ctx context.Context) error

	// Ping verifies the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases backend resources.
	Close() error
}
