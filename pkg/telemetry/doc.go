// Package telemetry exports store events to Prometheus and OpenTelemetry.
//
// Both exporters implement store.Observer and are attached with
// store.WithObserver:
//
//	m := telemetry.NewMetrics(telemetry.WithRegistry(reg))
//	t := telemetry.NewTracer(telemetry.WithTracerName("checkout"))
//
//	cs := store.NewControllable(initial,
//	    store.WithName("cart"),
//	    store.WithObserver(m),
//	    store.WithObserver(t),
//	    store.WithReporter(m.Reporter(store.LogReporter{})),
//	)
//
// Metrics collected:
//   - controlstore_notifications_total: notification passes by store
//   - controlstore_listeners_notified_total: listener calls by store
//   - controlstore_rejected_writes_total: dropped controlled writes by store, key and operation
//   - controlstore_mode_switches_total: mode-switch checks that found a mismatch
//   - controlstore_configurations_total: accepted configurations by store and mode
//   - controlstore_diagnostics_total: diagnostics by code
package telemetry
