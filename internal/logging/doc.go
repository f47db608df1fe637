// Package logging provides structured logging for the Sabiana client and bridge.
//
// This package wraps a global zap logger with convenience functions. Logging is
// silent unless a level is passed to Initialize or SABIANA_LOG_LEVEL is set,
// so CLI output stays clean by default.
//
// # Log Levels
//
//   - Debug: API requests and responses, device parsing details
//   - Info: Commands sent, bridge connections, discovery results
//   - Warn: Retries, re-authentication, dropped event subscribers
//   - Error: Failed commands, server failures
//
// # Structured Logging
//
//	logging.Info("Devices discovered",
//	    zap.Int("count", len(devices)),
//	)
//
// Session tokens and passwords are never logged. Use RedactToken when a log
// line needs to correlate with a token.
//
// # Configuration
//
//	if err := logging.Initialize("debug"); err != nil {
//	    log.Fatal(err)
//	}
//	defer logging.Sync()
package logging
