// Package log provides the harbomux loggers, including an opt-in debug log.
// Enable debug mode by setting HARBOMUX_DEBUG=1 environment variable.
package log

import (
	"io"
	"log"
	"os"
	"path/filepath"
)

// Debug mode configuration
var (
	DebugEnabled bool
	DebugLog     *log.Logger
	debugLogFile *os.File
)

var debugLogFileName = filepath.Join(os.TempDir(), "harbomux-debug.log")

// InitDebug initializes debug logging if HARBOMUX_DEBUG=1 is set.
// Call this after Initialize() in main.
func InitDebug() {
	if os.Getenv("HARBOMUX_DEBUG") != "1" {
		// Initialize DebugLog as a no-op logger to prevent nil pointer panics
		DebugLog = log.New(io.Discard, "", 0)
		return
	}

	DebugEnabled = true

	f, err := os.OpenFile(debugLogFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		if ErrorLog != nil {
			ErrorLog.Printf("could not open debug log file: %s", err)
		}
		DebugLog = log.New(io.Discard, "", 0)
		return
	}

	DebugLog = log.New(f, "DEBUG:", log.Ldate|log.Ltime|log.Lmicroseconds)
	debugLogFile = f

	DebugLog.Printf("Debug mode enabled (pid %d, args %q)", os.Getpid(), os.Args)
}

// CloseDebug closes the debug log file.
func CloseDebug() {
	if debugLogFile != nil {
		_ = debugLogFile.Close()
		debugLogFile = nil
	}
}

// Debug logs a debug message if debug mode is enabled.
func Debug(format string, v ...interface{}) {
	if DebugEnabled && DebugLog != nil {
		DebugLog.Printf(format, v...)
	}
}

// CommandTrace logs an external command before it is spawned.
func CommandTrace(command string) {
	if DebugEnabled && DebugLog != nil {
		DebugLog.Printf("[EXEC] %s", command)
	}
}
