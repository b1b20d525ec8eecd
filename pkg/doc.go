// Package pkg provides shared utilities for the USB descriptor subsystem.
//
// This package contains common functionality used across the device
// packages, including:
//
//   - Structured logging via [github.com/apex/log]
//   - Sentinel error values for validation and transport failures
//   - Component identifiers for log filtering
//
// # Logging
//
// The logging subsystem wraps apex/log with subsystem context:
//
//	pkg.SetLogLevel(log.DebugLevel)
//	pkg.LogInfo(pkg.ComponentConfig, "configuration composed", log.Fields{"interfaces": 2})
//
// # Errors
//
// Validation failures are reported through sentinel values:
//
//	if errors.Is(err, pkg.ErrOutOfDomain) {
//	    // Reject the offending setting index
//	}
package pkg
