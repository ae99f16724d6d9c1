// Package scenario replays scripted store interactions.
//
// A scenario is a YAML (or JSON) document describing one store and the
// steps applied to it:
//
//	name: dialog switches to controlled
//	store:
//	  name: dialog
//	  initial: {open: false}
//	bindings:
//	  dialog:
//	    open: {default: false, name: Dialog}
//	steps:
//	  - sync: {binding: dialog, props: {}}
//	  - set: {open: true}
//	  - sync: {binding: dialog, props: {open: false}}
//	  - expect:
//	      state: {open: false}
//	      codes: [W103]
//
// Each step sets exactly one of:
//
//	configure  property configs, as accepted by store.ParseConfig
//	set        guarded single-key writes, in key order
//	apply      one guarded merge
//	update     replace the whole state
//	setter     call CreateSetter(key)(value, details)
//	sync       pass props to a named binding
//	expect     check state, diagnostics, controlled keys and OnChange calls
//
// Diagnostics and OnChange calls accumulate between expect steps; each
// expect that checks them starts a new window.
package scenario
