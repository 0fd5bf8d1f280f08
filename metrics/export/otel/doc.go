// Package otel binds goAuthBridge facade metrics to OpenTelemetry
// observable instruments.
//
// One Int64ObservableCounter is registered per counter and one
// Int64ObservableGauge per histogram bucket. A single callback reads the
// facade snapshot on each collection; callers own the MeterProvider.
package otel
