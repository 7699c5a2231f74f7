// Package identity persists the credential records behind staff
// accounts. A record holds the password hash and nothing else about
// the person; profile data lives in the staff directory.
//
// # Storage layout
//
//   - <prefix>:user:<id> — hash with the record fields.
//   - <prefix>:email:<lowercased email> — string index mapping to the user ID.
//
// The email index is written with SETNX so concurrent account creation
// for the same address fails deterministically.
package identity
