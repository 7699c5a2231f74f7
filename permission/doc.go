// Package permission implements the capability-tag model shared by the
// engine and the HTTP layer: a frozen registry of known tags and the
// single gate function every authorization decision goes through.
//
// The gate is an OR across tags: holding any one required tag is enough.
// Keeping the check in one pure function prevents client and server
// authorization logic from diverging.
package permission
