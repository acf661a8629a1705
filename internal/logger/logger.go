package logger

import (
	"io"
	"log"
	"os"
)

// Leveled writers. Every package logs through these; levels below the
// configured one are wired to io.Discard so call sites never nil-check.
var (
	Info    *log.Logger
	Warn    *log.Logger
	Debug   *log.Logger
	Verbose *log.Logger
	Error   *log.Logger
	Always  *log.Logger // bypasses level filtering, file only

	currentLogLevel string
)

// Severity order, most severe first. Unknown configured levels fall back
// to info.
var levelRank = map[string]int{
	"error":   0,
	"warn":    1,
	"info":    2,
	"debug":   3,
	"verbose": 4,
}

func Init() error {
	return InitWithLevel("info")
}

func InitWithLevel(logLevel string) error {
	return InitWithConfig(logLevel, "marlin.log")
}

func InitWithConfig(logLevel, logFilePath string) error {
	currentLogLevel = logLevel

	logFile, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return err
	}

	Info = log.New(writerFor("info", logFile), "ℹ️  INFO: ", log.Ldate|log.Ltime)
	Warn = log.New(writerFor("warn", logFile), "⚠️  WARN: ", log.Ldate|log.Ltime|log.Lshortfile)
	Debug = log.New(writerFor("debug", logFile), "🐛 DEBUG: ", log.Ldate|log.Ltime|log.Lshortfile)
	Verbose = log.New(writerFor("verbose", logFile), "🔍 VERBOSE: ", log.Ldate|log.Ltime|log.Lshortfile)

	// Errors always reach stderr as well as the file.
	Error = log.New(io.MultiWriter(os.Stderr, logFile), "❌ ERROR: ", log.Ldate|log.Ltime|log.Lshortfile)
	Always = log.New(logFile, "📝 ALWAYS: ", log.Ldate|log.Ltime)

	return nil
}

func writerFor(level string, logFile io.Writer) io.Writer {
	if enabled(level) {
		return logFile
	}
	return io.Discard
}

func enabled(level string) bool {
	current, ok := levelRank[currentLogLevel]
	if !ok {
		current = levelRank["info"]
	}
	rank, ok := levelRank[level]
	if !ok {
		return false
	}
	return current >= rank
}
