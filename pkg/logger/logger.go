package logger

import (
	"fmt"
	"io"
	"log"
	"os"
)

// Logger is a stdlib-backed logger with a component prefix. It satisfies the
// golang-migrate Logger interface so CLI tools can report migration steps.
type Logger struct {
	*log.Logger
	verbose bool
}

// New returns a logger writing to stdout with the component prefix.
func New(component string, verbose bool) *Logger {
	return NewWithWriter(os.Stdout, component, verbose)
}

// NewWithWriter is New with an explicit destination.
func NewWithWriter(w io.Writer, component string, verbose bool) *Logger {
	prefix := fmt.Sprintf("[%s] ", component)
	return &Logger{Logger: log.New(w, prefix, log.LstdFlags), verbose: verbose}
}

// Verbose reports whether per-step output is wanted.
func (l *Logger) Verbose() bool {
	return l.verbose
}
