// Package resource holds the persistence resources that are released at
// shutdown: the file HandleTable, the DatabaseSet, the PluginRegistry, and the
// AccessLock that serializes persistence I/O against teardown.
//
// All tables have a fixed capacity chosen at construction. None of them is
// ever reconstructed; after teardown they stay in their closed state.
package resource
