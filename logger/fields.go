package logger

import (
	"go.uber.org/zap"
)

// Standard field names for consistent structured logging across tygra.
// Use these constants instead of raw strings to ensure consistency.
const (
	// Graph objects
	FieldEntity   = "entity"
	FieldRelation = "relation"
	FieldParent   = "parent"
	FieldFrom     = "from"
	FieldTo       = "to"
	FieldAttr     = "attr"
	FieldObserver = "observer"
	FieldGraph    = "graph"

	// Components
	FieldComponent = "component"

	// Operations
	FieldOperation = "operation"
	FieldEvent     = "event"
	FieldLine      = "line"

	// Errors
	FieldError = "error"

	// Counts and sizes
	FieldCount      = "count"
	FieldTotalCount = "total_count"

	// Files and storage
	FieldPath     = "path"
	FieldFormat   = "format"
	FieldDocument = "document"
	FieldVersion  = "version"

	// Timing
	FieldDurationMS = "duration_ms"
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	g := model.New(model.WithLogger(logger.ComponentLogger("model")))
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
// Use for sub-operations that need extra context fields.
//
// Example:
//
//	fileLogger := logger.ChildLogger(baseLogger, logger.FieldPath, path)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	return parent.With(keysAndValues...)
}

// OrNop returns l, or a no-op logger when l is nil.
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
