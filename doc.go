// Package backoffice implements the admin back office for the OmJyotish
// booking site: session resolution, capability-gated authorization, staff
// provisioning, media uploads, and Redis-backed content collections.
//
// The entry point is [Engine], constructed through the fluent [Builder]:
//
//	engine, err := backoffice.New().
//		WithConfig(backoffice.DefaultConfig()).
//		WithRedis(rdb).
//		WithPermissions(permission.DefaultTags()).
//		WithServiceKey(os.Getenv("BACKOFFICE_SERVICE_KEY")).
//		Build()
//
// HTTP transport lives in the httpapi package; the engine itself is
// transport-agnostic and safe for concurrent use once built.
package backoffice
