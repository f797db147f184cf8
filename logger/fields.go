package logger

import "go.uber.org/zap"

// Standard field names for structured logging.
// Use these constants to ensure consistent field naming across the codebase.
const (
	// Run identification
	FieldPlatform = "platform" // Target platform name (linux-amd64, windows-386, ...)
	FieldHeader   = "header"   // Root header path handed to the front-end
	FieldFrontend = "frontend" // Front-end implementation (clang, astdump)

	// Extraction
	FieldEntity   = "entity"    // Entity name (function, record, enum, ...)
	FieldKind     = "kind"      // Entity or type kind
	FieldTypeName = "type_name" // Canonical C type name
	FieldFile     = "file"      // Source file of a declaration
	FieldLine     = "line"      // Source line of a declaration
	FieldCode     = "code"      // Diagnostic code

	// Mapping and emission
	FieldGoName  = "go_name" // Assigned Go identifier
	FieldPackage = "package" // Emitted Go package name
	FieldOutput  = "output"  // Output file path

	// Common
	FieldComponent = "component" // Component name for DI loggers
	FieldDuration  = "duration"  // Operation duration
	FieldCount     = "count"     // Generic count
	FieldError     = "error"     // Error message
)

// ComponentLogger returns a named logger for a specific component.
// This is the preferred way to get a logger for dependency injection.
//
// Example:
//
//	type Explorer struct {
//	    logger *zap.SugaredLogger
//	}
//
//	func New() *Explorer {
//	    return &Explorer{
//	        logger: logger.ComponentLogger("explorer"),
//	    }
//	}
func ComponentLogger(name string) *zap.SugaredLogger {
	return Logger.Named(name)
}

// ChildLogger creates a child logger with additional context.
//
//	platformLogger := logger.ChildLogger(baseLogger, logger.FieldPlatform, p.Name)
func ChildLogger(parent *zap.SugaredLogger, keysAndValues ...interface{}) *zap.SugaredLogger {
	if parent == nil {
		parent = Logger
	}
	return parent.With(keysAndValues...)
}

// OrNop returns l, or a no-op logger when l is nil
func OrNop(l *zap.SugaredLogger) *zap.SugaredLogger {
	if l == nil {
		return zap.NewNop().Sugar()
	}
	return l
}
