package store

// WriteVia names the operation through which a write arrived.
type WriteVia string

const (
	ViaSet   WriteVia = "set"
	ViaApply WriteVia = "apply"
)

// Observer receives store events for metrics and tracing.
// Calls are made synchronously, after the store lock is released.
type Observer interface {
	// Notified is called after each notification pass.
	Notified(store string, listeners int)

	// WriteRejected is called when a write to a controlled key is dropped.
	WriteRejected(store, key string, via WriteVia)

	// ModeSwitched is called each time a configuration check finds a key
	// whose mode differs from its first configuration.
	ModeSwitched(store, key string, wasControlled, isControlled bool)

	// Configured is called for every accepted property configuration.
	Configured(store, key string, mode Mode)
}

// NopObserver implements Observer with no-ops. Embed it to implement only
// the methods you need.
type NopObserver struct{}

func (NopObserver) Notified(string, int) {}
func (NopObserver) WriteRejected(string, string, WriteVia) {}
func (NopObserver) ModeSwitched(string, string, bool, bool) {}
func (NopObserver) Configured(string, string, Mode) {}
