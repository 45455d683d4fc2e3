// Package plugin loads custom storage plugins built with -buildmode=plugin.
//
// A plugin exports an optional "Init" and an optional "Deinit" symbol, both of
// type func() error. Load calls Init and returns a resource.Plugin whose
// Deinit is the exported symbol. The Go runtime never unmaps a loaded plugin,
// so Release drops the handle and rejects further symbol lookups.
package plugin
