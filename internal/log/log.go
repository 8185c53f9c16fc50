// Package log wraps sirupsen/logrus with the level/file/color knobs the
// original hand-rolled logger exposed, so the rest of the codebase keeps
// calling the same small package-level API while gaining structured
// fields and logrus's formatter ecosystem.
package log

import (
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/sirupsen/logrus"
)

// Log is the process-wide logger, configured once by InitLogger.
var Log = logrus.StandardLogger()

var logFileHandle *os.File

// InitLogger configures the shared logger: level name (trace/debug/
// info/warn/error, case-insensitive; anything else disables logging by
// setting the level above Error), an optional file to append to instead
// of stderr, and whether to force ANSI color even off a tty.
func InitLogger(logLevel, logFile string, color bool) {
	Log.SetLevel(parseLevel(logLevel))
	Log.SetFormatter(&logrus.TextFormatter{
		ForceColors:   color,
		FullTimestamp: true,
	})
	Log.SetOutput(os.Stderr)

	if logFile == "" {
		return
	}
	fh, err := os.OpenFile(logFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		Log.WithError(err).Error("failed to open log file")
		return
	}
	logFileHandle = fh
	Log.SetOutput(fh)
	setupLogRotation(logFile)
}

func parseLevel(s string) logrus.Level {
	lvl, err := logrus.ParseLevel(strings.ToLower(s))
	if err != nil {
		return logrus.PanicLevel // effectively silent, matching the old NONE level
	}
	return lvl
}

// setupLogRotation reopens the log file on SIGHUP, letting an operator
// rotate it externally (mv mscript.log mscript.log.1 && kill -HUP $pid)
// without restarting the interpreter.
func setupLogRotation(path string) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGHUP)
	go func() {
		for range sigs {
			reopenLogFile(path)
		}
	}()
}

func reopenLogFile(path string) {
	if logFileHandle != nil {
		logFileHandle.Close()
	}
	fh, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		Log.WithError(err).Fatal("could not reopen log file")
	}
	logFileHandle = fh
	Log.SetOutput(fh)
}

func Trace(format string, v ...any) { Log.Tracef(format, v...) }
func Debug(format string, v ...any) { Log.Debugf(format, v...) }
func Info(format string, v ...any)  { Log.Infof(format, v...) }
func Warn(format string, v ...any)  { Log.Warnf(format, v...) }
func Error(format string, v ...any) { Log.Errorf(format, v...) }

func Close() {
	if logFileHandle != nil {
		_ = logFileHandle.Close()
	}
}
