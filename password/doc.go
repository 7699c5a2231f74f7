// Package password hashes and verifies staff passwords with Argon2id
// using the PHC string format, so stored hashes carry their own cost
// parameters and can be upgraded in place.
package password
