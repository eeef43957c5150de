package paintbody

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
)

var logger = slog.Default()

// SetLogger replaces the package logger used by DebugLog and by Exec
// handles created without an explicit logger.
func SetLogger(l *slog.Logger) {
	if l != nil {
		logger = l
	}
}

func DebugLog(format string, args ...interface{}) {
	if !logger.Enabled(context.Background(), slog.LevelDebug) {
		return
	}
	logger.Debug(fmt.Sprintf(format, args...))
}

var once sync.Once

func DebugLogOnce(format string, args ...interface{}) {
	once.Do(func() {
		DebugLog(format, args...)
	})
}
