// Package storage keeps uploaded media (gallery photos, carousel
// banners, astrologer portraits) in Redis under a fixed bucket
// allowlist. Object keys are generated server side from a timestamp
// and a random suffix; client-supplied filenames only contribute the
// extension.
package storage
