package internaldefs

import (
	goAuthBridge "github.com/MrEthical07/goAuthBridge"
)

// CounterDef names one facade counter for exporters.
type CounterDef struct {
	ID   goAuthBridge.MetricID
	Name string
	Help string
}

// HistogramDef names one facade histogram for exporters.
type HistogramDef struct {
	ID   goAuthBridge.MetricID
	Name string
	Help string
}

// AuditDroppedName is the counter reporting dispatcher backpressure drops.
const AuditDroppedName = "goauthbridge_audit_dropped_total"

// CounterDefs lists every exported counter in exposition order.
var CounterDefs = []CounterDef{
	{ID: goAuthBridge.MetricSignUpSuccess, Name: "goauthbridge_sign_up_success_total", Help: "Accounts created through sign-up."},
	{ID: goAuthBridge.MetricSignUpFailure, Name: "goauthbridge_sign_up_failure_total", Help: "Sign-ups rejected by the identity provider."},
	{ID: goAuthBridge.MetricSignInSuccess, Name: "goauthbridge_sign_in_success_total", Help: "Successful sign-ins."},
	{ID: goAuthBridge.MetricSignInFailure, Name: "goauthbridge_sign_in_failure_total", Help: "Sign-ins rejected by the identity provider."},
	{ID: goAuthBridge.MetricFederatedSignInStarted, Name: "goauthbridge_federated_sign_in_started_total", Help: "Federated sign-in redirects handed out."},
	{ID: goAuthBridge.MetricFederatedSignInFailure, Name: "goauthbridge_federated_sign_in_failure_total", Help: "Failed federated sign-in calls."},
	{ID: goAuthBridge.MetricSignOutSuccess, Name: "goauthbridge_sign_out_success_total", Help: "Terminated sessions."},
	{ID: goAuthBridge.MetricSignOutFailure, Name: "goauthbridge_sign_out_failure_total", Help: "Failed sign-outs."},
	{ID: goAuthBridge.MetricProfileLookupFailure, Name: "goauthbridge_profile_lookup_failure_total", Help: "Profile reads that failed in the store."},
	{ID: goAuthBridge.MetricProfileFallback, Name: "goauthbridge_profile_fallback_total", Help: "Users built from identity claims only."},
	{ID: goAuthBridge.MetricProfileUpsertFailure, Name: "goauthbridge_profile_upsert_failure_total", Help: "Failed best-effort profile upserts."},
	{ID: goAuthBridge.MetricProfileUpdateSuccess, Name: "goauthbridge_profile_update_success_total", Help: "Successful profile updates."},
	{ID: goAuthBridge.MetricProfileUpdateFailure, Name: "goauthbridge_profile_update_failure_total", Help: "Profile updates that returned false."},
	{ID: goAuthBridge.MetricAuthEventReceived, Name: "goauthbridge_auth_event_received_total", Help: "Session events received by subscriptions."},
	{ID: goAuthBridge.MetricAuthCallbackDelivered, Name: "goauthbridge_auth_callback_delivered_total", Help: "Auth-change callbacks delivered."},
}

// HistogramDefs lists every exported histogram.
var HistogramDefs = []HistogramDef{
	{ID: goAuthBridge.MetricReconcileLatency, Name: "goauthbridge_reconcile_latency_seconds", Help: "Profile reconcile latency histogram."},
}

// HistogramBounds are the upper bounds, in seconds, of the eight buckets.
var HistogramBounds = []string{
	"0.005",
	"0.01",
	"0.025",
	"0.05",
	"0.1",
	"0.25",
	"0.5",
	"+Inf",
}

// HistogramBoundSuffix spells HistogramBounds for instrument names.
var HistogramBoundSuffix = []string{
	"0_005",
	"0_01",
	"0_025",
	"0_05",
	"0_1",
	"0_25",
	"0_5",
	"inf",
}

// NormalizeBuckets copies raw into a fixed eight-bucket array, zero-filling
// missing buckets.
func NormalizeBuckets(raw []uint64) [8]uint64 {
	var out [8]uint64
	for i := 0; i < len(out) && i < len(raw); i++ {
		out[i] = raw[i]
	}
	return out
}

// CumulativeBuckets converts per-bucket counts into running totals.
func CumulativeBuckets(raw [8]uint64) [8]uint64 {
	var out [8]uint64
	var running uint64
	for i := 0; i < len(raw); i++ {
		running += raw[i]
		out[i] = running
	}
	return out
}
