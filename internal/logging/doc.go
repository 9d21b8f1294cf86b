// Package logging provides structured logging using uber/zap.
//
// This package offers production-ready logging with two modes:
//   - Production: JSON output for machine parsing
//   - Development: Colored console output for human readability
//
// Every host component takes a *logging.Logger; failures in discovery,
// activation, and permission flows are logged here rather than crashing
// the host process.
//
// Example Usage:
//
//	logger := logging.NewDefault()
//	logger.Info("Widget activated", zap.String("widget_id", id))
//	logger.Error("Discovery failed for type", zap.Error(err))
package logging
