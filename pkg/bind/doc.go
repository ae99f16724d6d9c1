// Package bind connects property snapshots to stores.
//
// Callers that render in passes (a UI tree, a reconciler loop, a request
// handler) hand each pass's properties to a binding:
//
//	props := bind.NewControlledProps(cs, map[string]bind.PropConfig{
//	    "open": {Default: false, HasDefault: true, OnChange: onOpenChange, Name: "Dialog"},
//	})
//
//	// Every pass. "open" is controlled iff present in the props.
//	props.Sync(bind.Props{"open": isOpen, "disabled": disabled})
//
// Select and Watch read derived values back out of a store.
package bind
