package logger

import (
	"runtime"
	"strings"

	"github.com/sirupsen/logrus"
)

// callerHook rewrites the reported caller so log lines point at the call
// site instead of this package's wrapper methods.
type callerHook struct{}

func (h *callerHook) Levels() []logrus.Level {
	return logrus.AllLevels
}

func (h *callerHook) Fire(entry *logrus.Entry) error {
	if entry.Caller == nil {
		return nil
	}

	pcs := make([]uintptr, 32)
	n := runtime.Callers(0, pcs)
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !isLoggingFrame(frame.Function) && strings.Contains(frame.Function, "/") {
			entry.Caller = &runtime.Frame{
				PC:       frame.PC,
				File:     frame.File,
				Line:     frame.Line,
				Function: frame.Function,
			}
			return nil
		}
		if !more {
			break
		}
	}
	return nil
}

func isLoggingFrame(function string) bool {
	return strings.Contains(function, "sirupsen/logrus") ||
		strings.Contains(function, "optimisoor/logger") ||
		strings.Contains(function, "runtime.")
}
