// Package directory persists staff profiles and the role catalogue
// that grants them permission tags. The directory is the authority on
// who may use the back office: a credential that resolves to no active
// directory row is rejected regardless of how it authenticated.
//
// # Storage layout
//
//   - <prefix>:staff:<id> — hash with the staff fields.
//   - <prefix>:staff:email:<lowercased email> — index to the staff ID.
//   - <prefix>:staff:uid:<user id> — index from the credential record.
//   - <prefix>:staff:all — set of all staff IDs.
//   - <prefix>:role:<id> — hash with the role fields.
//   - <prefix>:role:name:<lowercased name> — index to the role ID.
//   - <prefix>:role:all — set of all role IDs.
package directory
