// Package httpapi exposes the back-office engine over HTTP: login and
// session endpoints, the privileged staff and upload routes, the
// public content collections, and media serving.
//
// Every guarded route settles authentication and authorization before
// reading anything else from the request, so a malformed body behind a
// privileged route still answers 401 or 403, not 400.
package httpapi
