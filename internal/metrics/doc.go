// Package metrics defines the Prometheus collectors of the streaming service.
package metrics
