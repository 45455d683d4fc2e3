package perslc

import (
	"log/slog"

	"github.com/giantswarm/perslc/internal/core"
)

// SetLogger replaces the package-level logger used by perslc. The provided
// logger should already have any desired attributes; perslc will not add
// additional attributes.
//
// If l is nil, the logger resets to the default: slog.Default() with a
// "component" attribute, re-derived on the next use and then cached. Call
// SetLogger(nil) after slog.SetDefault() to pick up changes.
//
// SetLogger is safe to call concurrently, but loggers are captured when a
// Coordinator is created. Call it before Connect.
//
// Example:
//
//	perslc.SetLogger(myLogger.With("component", "perslc"))
func SetLogger(l *slog.Logger) {
	core.SetLogger(l)
}
