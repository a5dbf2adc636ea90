package log

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
)

var (
	WarningLog *log.Logger
	InfoLog    *log.Logger
	ErrorLog   *log.Logger
)

var logFileName = filepath.Join(os.TempDir(), "harbomux.log")

var globalLogFile *os.File

// FilePath returns where the log is written.
func FilePath() string {
	return logFileName
}

// Initialize should be called once at the beginning of the program to set up logging.
// internal marks lines written by the hidden self-invocation that runs inside
// the managed session, so the two halves of a launch can be told apart.
func Initialize(internal bool) {
	var out io.Writer = io.Discard
	f, err := os.OpenFile(logFileName, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err == nil {
		out = f
	} else {
		// A missing log file must never stop the CLI from working.
		f = nil
	}

	fmtS := "%s"
	if internal {
		fmtS = "[SETUP] %s"
	}
	InfoLog = log.New(out, fmt.Sprintf(fmtS, "INFO:"), log.Ldate|log.Ltime|log.Lshortfile)
	WarningLog = log.New(out, fmt.Sprintf(fmtS, "WARNING:"), log.Ldate|log.Ltime|log.Lshortfile)
	ErrorLog = log.New(out, fmt.Sprintf(fmtS, "ERROR:"), log.Ldate|log.Ltime|log.Lshortfile)

	globalLogFile = f
}

func Close() {
	if globalLogFile == nil {
		return
	}
	_ = globalLogFile.Close()
	globalLogFile = nil
}
