package log

import (
	"strings"

	"github.com/tacusci/logging/v2"
)

var Debug = func(format string, a ...interface{}) {
	logging.Debug(format, a...) //nolint
}

var Info = func(format string, a ...interface{}) {
	logging.Info(format, a...) //nolint
}

var Warn = func(format string, a ...interface{}) {
	logging.Warn(format, a...) //nolint
}

var Error = func(format string, a ...interface{}) {
	logging.Error(format, a...) //nolint
}

var Fatal = func(format string, a ...interface{}) {
	logging.Fatal(format, a...) //nolint
}

// SetLevel resolves a level name (debug, info, warn, silent) onto the
// underlying logger. Unknown names fall back to info.
func SetLevel(name string) {
	logging.CallbackLabel = false
	switch strings.ToLower(name) {
	case "debug":
		logging.CurrentLoggingLevel = logging.DebugLevel
		logging.CallbackLabel = true
	case "warn":
		logging.CurrentLoggingLevel = logging.WarnLevel
	case "silent":
		logging.CurrentLoggingLevel = logging.SilentLevel
	default:
		logging.CurrentLoggingLevel = logging.InfoLevel
	}
}

// Capture swaps every log func for one which appends the formatted
// line to dest, returning a func to put the originals back.
func Capture(dest func(level, msg string)) func() {
	debugRef, infoRef, warnRef, errorRef := Debug, Info, Warn, Error
	Debug = capturer("debug", dest)
	Info = capturer("info", dest)
	Warn = capturer("warn", dest)
	Error = capturer("error", dest)
	return func() {
		Debug, Info, Warn, Error = debugRef, infoRef, warnRef, errorRef
	}
}

func capturer(level string, dest func(string, string)) func(string, ...interface{}) {
	return func(format string, a ...interface{}) {
		if dest != nil {
			dest(level, sprintf(format, a...))
		}
	}
}
