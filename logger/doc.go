// Package logger provides structured logging for transcribot using zerolog.
//
// It supports console and JSON output, level configuration and
// component-scoped loggers carrying structured fields.
//
// # Configuration
//
//	logging:
//	  level: "info"
//	  format: "console"
//
// # Usage
//
//	log := logger.New(&cfg.Logging, cfg.Name).WithComponent("worker")
//	log.Info("pass finished", logger.Fields(logger.FieldJobCount, 3))
package logger
