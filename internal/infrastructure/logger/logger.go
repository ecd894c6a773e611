package logger

import (
	"io"
	"log"
	"os"
)

// Package-level leveled loggers. Debug is discarded unless LOG_DEBUG is
// set; Error goes to stderr so supervisors can split the streams.
var (
	Debug *log.Logger
	Info  *log.Logger
	Warn  *log.Logger
	Error *log.Logger
)

func init() {
	flags := log.Ldate | log.Ltime | log.LUTC | log.Lmsgprefix

	debugOut := io.Writer(io.Discard)
	if os.Getenv("LOG_DEBUG") != "" {
		debugOut = os.Stdout
	}

	Debug = log.New(debugOut, "DEBUG ", flags)
	Info = log.New(os.Stdout, "INFO ", flags)
	Warn = log.New(os.Stdout, "WARN ", flags)
	Error = log.New(os.Stderr, "ERROR ", flags)
}
