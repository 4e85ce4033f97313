// Package portscan: Debug logging support.
package portscan

import (
	"sync"

	"github.com/marcuoli/go-portscan/pkg/portscan/arp"
	"github.com/marcuoli/go-portscan/pkg/portscan/oui"
	"github.com/marcuoli/go-portscan/pkg/portscan/probe"
	"github.com/marcuoli/go-portscan/pkg/portscan/resolve"
)

// Component identifies the part of the scanner that produced a log message.
type Component string

const (
	ComponentEngine  Component = "engine"
	ComponentProbe   Component = "probe"
	ComponentResolve Component = "resolve"
	ComponentEnrich  Component = "enrich"
	ComponentARP     Component = "arp"
	ComponentOUI     Component = "oui"
)

// DebugLevel represents the verbosity level for debug logging.
type DebugLevel int

const (
	// DebugOff disables all debug logging.
	DebugOff DebugLevel = iota
	// DebugBasic logs high-level operations (start/complete/errors).
	DebugBasic
	// DebugVerbose logs per-port detail.
	DebugVerbose
)

// DebugLogger is a callback function for debug logging.
type DebugLogger func(component Component, format string, args ...interface{})

var (
	debugLogger DebugLogger
	debugLevel  DebugLevel
	debugMu     sync.RWMutex
)

// SetDebugLogger sets a custom debug logger callback.
// Pass nil to disable debug logging.
func SetDebugLogger(logger DebugLogger) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLogger = logger
}

// SetDebugLevel sets the debug verbosity level.
func SetDebugLevel(level DebugLevel) {
	debugMu.Lock()
	defer debugMu.Unlock()
	debugLevel = level
}

// GetDebugLevel returns the current debug level.
func GetDebugLevel() DebugLevel {
	debugMu.RLock()
	defer debugMu.RUnlock()
	return debugLevel
}

func logAt(threshold DebugLevel, component Component, format string, args ...interface{}) {
	debugMu.RLock()
	logger := debugLogger
	level := debugLevel
	debugMu.RUnlock()

	if logger != nil && level >= threshold {
		logger(component, format, args...)
	}
}

// debugLog logs a message if debug logging is enabled.
func debugLog(component Component, format string, args ...interface{}) {
	logAt(DebugBasic, component, format, args...)
}

// debugLogVerbose logs a message if verbose debug logging is enabled.
func debugLogVerbose(component Component, format string, args ...interface{}) {
	logAt(DebugVerbose, component, format, args...)
}

// Probe output is per port, so it only shows at DebugVerbose.
func init() {
	probe.DebugLogger = func(format string, args ...interface{}) {
		debugLogVerbose(ComponentProbe, format, args...)
	}
	resolve.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentResolve, format, args...)
	}
	arp.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentARP, format, args...)
	}
	oui.DebugLogger = func(format string, args ...interface{}) {
		debugLog(ComponentOUI, format, args...)
	}
}
