// Package logger provides a structured logging interface for the collector.
//
// It wraps the zerolog library to provide a clean, easy-to-use API with support for:
// - Multiple log levels (Debug, Info, Warn, Error, Fatal)
// - Structured logging with fields
// - Pretty console output with colors
// - Rotating file output via lumberjack
// - Context support for request tracing
// - Global logger instance for easy access
//
// Basic Usage:
//
//	import "xhscollect/pkg/logger"
//
//	// Initialize the global logger
//	cfg := &config.LoggingConfig{
//	    Level: "info",
//	    File: "/data/rights_protection/logs/collector_20250825.log",
//	}
//	err := logger.Initialize(cfg)
//
//	// Use the global logger
//	logger.Info("Collector started")
//	logger.WithField("keyword", "整形失败").Info("Searching keyword")
//	logger.WithError(err).Error("Failed to fetch note detail")
//
// Advanced Usage:
//
//	// Create a logger instance with fields
//	log := logger.GetLogger().
//	    WithField("component", "campaign").
//	    WithField("category", "medical_beauty")
//
//	// Use structured logging
//	log.InfoWithFields("Keyword collected", map[string]interface{}{
//	    "keyword": "医疗事故",
//	    "notes":   27,
//	    "elapsed": time.Second * 95,
//	})
//
// The logger supports the following configuration options:
// - Level: Log level (debug, info, warn, error, fatal)
// - File: Path to log file (empty for console only)
// - MaxSize: Maximum size in MB before rotation
// - MaxBackups: Number of old log files to keep
// - MaxAge: Maximum age in days for log files
// - Compress: Whether to compress old log files
package logger
