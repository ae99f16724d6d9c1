// Package storetest provides testing helpers for code built on controlstore.
//
// # Recording diagnostics
//
//	rec := storetest.NewRecorder()
//	cs := store.NewControllable(nil, store.WithReporter(rec), store.WithDiagnostics(true))
//	cs.ConfigureControlled("open", store.Controlled(true, nil))
//	cs.Set("open", false)
//	rec.ExpectCodes(t, "W101")
//
// # Counting notifications
//
//	probe := storetest.Probe(cs.Store)
//	cs.Set("count", 1)
//	probe.ExpectCalls(t, 1)
package storetest
