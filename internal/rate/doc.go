// Package rate provides Redis-backed fixed-window counters that slow
// down repeated failed logins against the admin back office.
//
// # Window semantics
//
// Fixed-window counters: INCR + conditional EXPIRE on first hit. Key prefixes:
//   - bl:  — login per-email
//   - bli: — login per-IP
//
// # What this package must NOT do
//
//   - Decide which failures count as attempts (the engine does).
//   - Be imported outside the backoffice module.
package rate
