package types

// Event is the canonical record emitted for every committed state change.
// Attributes are flat string pairs so downstream consumers (RPC subscribers,
// indexers, log sinks) need no schema knowledge.
type Event struct {
	Type       string
	Attributes map[string]string
}
