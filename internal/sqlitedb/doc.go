// Package sqlitedb opens the embedded SQLite databases used by the
// persistence layer and keeps a registry of every open handle so that all of
// them can be released with a single CloseAll at shutdown.
//
// The pure-Go modernc.org/sqlite driver is used; no CGO is required.
package sqlitedb
