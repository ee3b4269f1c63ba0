package logger

import (
	"log"
	"os"
)

// Logger is a leveled printf-style logger with a service name prefix.
// Debug output is enabled with LOG_LEVEL=debug.
type Logger struct {
	std   *log.Logger
	debug bool
}

func New(service string) *Logger {
	return &Logger{
		std:   log.New(os.Stdout, "["+service+"] ", log.LstdFlags|log.Lmsgprefix),
		debug: os.Getenv("LOG_LEVEL") == "debug",
	}
}

func (l *Logger) Debugf(format string, args ...interface{}) {
	if l.debug {
		l.std.Printf("DEBUG "+format, args...)
	}
}

func (l *Logger) Infof(format string, args ...interface{}) {
	l.std.Printf("INFO "+format, args...)
}

func (l *Logger) Warnf(format string, args ...interface{}) {
	l.std.Printf("WARN "+format, args...)
}

func (l *Logger) Errorf(format string, args ...interface{}) {
	l.std.Printf("ERROR "+format, args...)
}

func (l *Logger) Fatalf(format string, args ...interface{}) {
	l.std.Fatalf("FATAL "+format, args...)
}

func (l *Logger) Info(msg string)  { l.std.Println("INFO " + msg) }
func (l *Logger) Warn(msg string)  { l.std.Println("WARN " + msg) }
func (l *Logger) Error(msg string) { l.std.Println("ERROR " + msg) }
func (l *Logger) Fatal(msg string) { l.std.Fatalln("FATAL " + msg) }
