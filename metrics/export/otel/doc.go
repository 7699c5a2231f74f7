// Package otel bridges back-office metrics into the OpenTelemetry
// metric API using observable instruments and a single registered
// callback.
package otel
