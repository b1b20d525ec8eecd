package pkg

import (
	"os"

	"github.com/apex/log"
	"github.com/apex/log/handlers/text"
)

// Component identifies a subsystem for log filtering.
type Component string

// Descriptor subsystem component identifiers.
const (
	ComponentDescriptor Component = "descriptor"
	ComponentInterface  Component = "interface"
	ComponentConfig     Component = "config"
	ComponentEnumerate  Component = "enumerate"
	ComponentTransport  Component = "transport"
)

// logger is the log.Interface all subsystem logging goes through.
var logger log.Interface

func init() {
	log.SetHandler(text.New(os.Stderr))
	log.SetLevel(log.WarnLevel)
	logger = log.Log
}

// SetLogger replaces the default logger with a custom logger.
func SetLogger(l log.Interface) {
	logger = l
}

// SetLogLevel sets the minimum log level for the default logger.
func SetLogLevel(level log.Level) {
	log.SetLevel(level)
}

// entry tags a log entry with its originating component.
func entry(component Component, fields log.Fields) *log.Entry {
	e := logger.WithField("component", string(component))
	if fields != nil {
		e = e.WithFields(fields)
	}
	return e
}

// LogDebug logs a debug message with the given component.
func LogDebug(component Component, msg string, fields log.Fields) {
	entry(component, fields).Debug(msg)
}

// LogInfo logs an info message with the given component.
func LogInfo(component Component, msg string, fields log.Fields) {
	entry(component, fields).Info(msg)
}

// LogWarn logs a warning message with the given component.
func LogWarn(component Component, msg string, fields log.Fields) {
	entry(component, fields).Warn(msg)
}

// LogError logs an error message with the given component.
func LogError(component Component, msg string, fields log.Fields) {
	entry(component, fields).Error(msg)
}
