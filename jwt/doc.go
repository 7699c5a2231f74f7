// Package jwt issues and verifies the short-lived access tokens that
// carry an admin session reference between the browser and the
// privileged server endpoints.
package jwt
