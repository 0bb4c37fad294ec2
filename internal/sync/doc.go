// Package sync implements the synchronization engine that keeps the
// search index converged with the source database.
//
// Three write paths feed the index:
//
//   - a full load, which bulk-scans current source rows and rebuilds
//     index content;
//   - startup recovery, which drains the durable change buffer from the
//     persisted cursor forward;
//   - the live listener, which applies newly-captured change events
//     continuously.
//
// All three converge because document mapping is deterministic, index
// writes are idempotent, and a single per-domain cursor records the
// contiguous prefix of buffer events whose effects are committed. The
// cursor only moves forward, and only after the commit it covers, so a
// crash anywhere re-applies work instead of losing it.
//
// Cursor advancement follows a single-writer discipline: within one
// domain only the currently-running recovery or listener task advances
// the cursor, and the store itself refuses regressions. A full load
// never advances the cursor; it only seeds one for a domain that has
// never had one, at the buffer position recorded before its scan.
package sync
