// Package crontrack provides heartbeat monitoring for cron jobs. External
// processes are expected to check in on a cron schedule; crontrack detects
// check-ins that miss their tolerance window and alerts the right people,
// once per open incident, with per-recipient cooldowns.
//
// Crontrack is designed as a library, not a service. Import it, configure a
// store, and host the monitor loop wherever you run long-lived processes.
//
// # Quick Start
//
//	m, err := monitor.New(s, s, alert.NewLedger(s), router, render,
//	    monitor.WithTickInterval(time.Minute),
//	)
//	if err != nil { ... }
//	m.Start(ctx)
//	defer m.Stop()
//
// # Architecture
//
// Crontrack follows a composable store pattern where each subsystem (job,
// user, alert) defines its own store interface. A single backend implements
// all of them; memory, postgres, and redis backends ship under store/.
//
// All entity IDs use TypeID — type-prefixed, K-sortable, UUIDv7-based,
// compile-time safe identifiers.
package crontrack
