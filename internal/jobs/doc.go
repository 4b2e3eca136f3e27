// Package jobs persists pipeline jobs in SQLite and exposes the snapshot
// semantics the orchestrator and API surfaces rely on.
//
// The Store is the single writer/reader authority for job state. Updates are
// partial patches merged atomically under a per-job lock, so concurrent
// readers never observe a torn snapshot and jobs never contend with each
// other. Progress is clamped to be non-decreasing and terminal jobs refuse
// further updates, which keeps the one-terminal-snapshot invariant enforced
// at the storage layer rather than by caller discipline.
//
// The database is transient storage for in-flight and recently finished jobs
// rather than a long-term archive; clearing it is always safe while the
// daemon is stopped.
package jobs
