// Package inspect serves a read-only HTTP view of running stores.
//
// Stores are added to a [Registry], which also collects their recent
// diagnostics:
//
//	reg := inspect.NewRegistry(100)
//	cs := store.NewControllable(initial,
//	    store.WithName("dialog"),
//	    store.WithReporter(reg.Reporter("dialog", store.LogReporter{})),
//	)
//	reg.Register(cs)
//
//	srv := inspect.NewServer(reg, inspect.WithMetricsHandler(promhttp.Handler()))
//	http.ListenAndServe("localhost:7070", srv.Handler())
//
// Routes:
//
//	GET /stores                     list registered stores
//	GET /stores/{name}              current state
//	GET /stores/{name}/configs      per-key ownership
//	GET /stores/{name}/diagnostics  recent diagnostics, oldest first
//	GET /stores/{name}/watch        WebSocket stream of state changes
//	GET /metrics                    Prometheus metrics, if configured
package inspect
