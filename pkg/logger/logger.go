// Package logger provides the structured logger shared by every cardiacxr
// component. The concrete implementation is backed by zap.
package logger

// Logger is the logging surface handed to loaders, sessions and adapters.
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)
	With(fields ...Field) Logger
	Sync() error
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value interface{}
}

// F is shorthand for Field{Key: key, Value: value}.
func F(key string, value interface{}) Field {
	return Field{Key: key, Value: value}
}

// Err wraps an error under the conventional "error" key.
func Err(err error) Field {
	return Field{Key: "error", Value: err}
}
