// Package prometheus renders back-office metrics in the Prometheus
// text exposition format without importing the Prometheus client.
package prometheus
