// Package store provides an observable state container whose properties can
// be owned either by the caller (controlled) or by the store itself
// (uncontrolled).
//
// A [Store] holds one immutable [State]. Every change produces a new *State,
// so pointer identity is enough to tell whether anything changed. Listeners
// are notified synchronously, once per change, and only when the state was
// actually replaced.
//
// A [ControllableStore] adds a per-key ownership registry on top. Each key is
// configured on every property snapshot (typically once per render pass):
//
//	cs := store.NewControllable(store.NewState(map[string]any{"open": false}))
//
//	// The application owns "open".
//	cs.ConfigureControlled("open", store.Controlled(true, func(v bool, details any) {
//	    app.setOpen(v)
//	}).Named("Dialog", "open"))
//
//	cs.Set("open", false)            // rejected, W101 diagnostic
//	cs.CreateSetter("open")(false, nil) // calls the application's callback
//
// Writes to a controlled key through [ControllableStore.Set] or
// [ControllableStore.Apply] are dropped. The only way a controlled value
// changes is the owner supplying a new value through configuration. Setters
// created with [ControllableStore.CreateSetter] route to the owner's callback
// while the key is controlled and write the store directly while it is not.
//
// # Shared stores
//
// One ControllableStore may be configured by several cooperating components,
// each owning a disjoint set of keys. Configuring one key never changes the
// status or value of another.
//
// # Diagnostics
//
// Misuse never panics and never returns an error. Instead a [Diagnostic] is
// sent to the store's [Reporter] (slog by default). Diagnostics are compiled
// out of production builds: build with -tags production to disable them, or
// override per store with [WithDiagnostics].
//
// # Concurrency
//
// All operations are synchronous. A store guards its fields with a mutex that
// is released before listeners run, and every notification pass iterates a
// copy of the listener list, so listeners may subscribe, unsubscribe or write
// to the store from inside their own callback.
package store
