package main

import (
	"io"
	"os"

	"github.com/mattn/go-isatty"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/marcuoli/go-portscan/pkg/portscan"
)

// newLogger builds a console logger on w. Debug output is enabled when the
// scanner debug level is above DebugOff; levels are colored on terminals.
func newLogger(w io.Writer, level portscan.DebugLevel) *zap.Logger {
	encCfg := zap.NewDevelopmentEncoderConfig()
	encCfg.TimeKey = "time"
	encCfg.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder
	if isTerminal(w) {
		encCfg.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	minLevel := zapcore.InfoLevel
	if level > portscan.DebugOff {
		minLevel = zapcore.DebugLevel
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(w), minLevel)
	return zap.New(core)
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// bridgeDebugLogger routes library debug messages into log.
func bridgeDebugLogger(log *zap.Logger, level portscan.DebugLevel) {
	if level == portscan.DebugOff {
		portscan.SetDebugLogger(nil)
		portscan.SetDebugLevel(portscan.DebugOff)
		return
	}
	sugar := log.Sugar()
	portscan.SetDebugLogger(func(component portscan.Component, format string, args ...interface{}) {
		sugar.With("component", string(component)).Debugf(portscan.ComponentToPrefix(component)+" "+format, args...)
	})
	portscan.SetDebugLevel(level)
}
