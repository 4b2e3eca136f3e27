// Package progress broadcasts job snapshots to live listeners. It keeps the
// latest snapshot per job so a new subscriber immediately learns the current
// state before streaming further updates.
package progress
