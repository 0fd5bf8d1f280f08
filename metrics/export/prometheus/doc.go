// Package prometheus renders goAuthBridge facade metrics in Prometheus text
// exposition format.
//
// Counters are named goauthbridge_*_total; the one histogram is
// goauthbridge_reconcile_latency_seconds. Callers mount [Exporter.Handler]
// themselves; nothing is registered globally.
package prometheus
