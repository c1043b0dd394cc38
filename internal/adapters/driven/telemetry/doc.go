// Package telemetry provides driven.Telemetry observers.
//
//   - Log writes one line per outcome and bundle through the logger package
//   - Collector exports Prometheus metrics
//   - Multi fans one event out to several observers
//
// All observers are safe for concurrent use and never block the fan-out.
package telemetry
