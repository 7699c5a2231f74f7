// Package content stores the site's editable rows (services, bookings,
// testimonials and so on) as raw JSON documents keyed by collection.
// Collections are a fixed allowlist; writes to unknown names fail
// before touching Redis.
//
// # Storage layout
//
//   - <prefix>:<collection>:<id> — the JSON document.
//   - <prefix>:<collection>:index — sorted set of IDs scored by creation time.
package content
