// Package sentinel defines Error, a string type for declaring sentinel errors
// as constants.
//
// perslc reports every well-known condition (channel full, access closed,
// teardown already done) through const Error values so that callers match them
// with errors.Is and nothing can reassign them at runtime.
package sentinel
