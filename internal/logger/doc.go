// Package logger provides leveled, thread-safe logging backed by logrus.
//
// Each entry carries a timestamp, level, optional component and message.
// The component identifies the emitter (a worker, the accept loop, the load
// generator) and is rendered as a structured field.
//
// # Basic Usage
//
// Using the default logger:
//
//	logger.Info("", "Server started")
//	logger.Info("worker-1", "Processing job")
//	logger.Error("worker-1", "Job panicked: %v", r)
//
// Creating a custom logger:
//
//	l := logger.New(os.Stderr, logger.LevelDebug)
//	l.Debug("server", "Debug message")
//
// # Log Levels
//
// Messages below the configured level are filtered:
//   - LevelDebug: all messages
//   - LevelInfo: Info, Warn, Error
//   - LevelWarn: Warn, Error
//   - LevelError: Error only
//
// ParseLevel converts the strings used in config files and flags.
package logger
