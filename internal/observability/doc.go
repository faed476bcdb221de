// Package observability provides the diagnostic channel of taskday: an
// append-only JSON Lines event log, metrics derived on demand from that log,
// and an alert engine that checks the task store for overdue work, an
// oversized backlog and recent save failures.
package observability
