// Package session persists resolved admin sessions in Redis using a
// compact versioned binary encoding. The cache is advisory: the engine
// revalidates stale entries against the staff directory and privileged
// server actions never trust it alone.
package session
