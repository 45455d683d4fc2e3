// Package fileutil prepares the on-disk locations used by the persistence
// runtime: lock files and database files whose parent directories may not
// exist yet when the process starts early in boot.
package fileutil
