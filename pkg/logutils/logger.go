package logutils

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/rs/zerolog"
)

// Output selects where logs go when no file is given.
type Output int

const (
	// OutputStdout writes JSON lines to stdout. Used by headless commands.
	OutputStdout Output = iota
	// OutputStderrConsole writes human-readable lines to stderr.
	OutputStderrConsole
	// OutputDiscard drops logs.
	OutputDiscard
	// OutputDeferred keeps warnings and errors in memory and prints them to
	// stderr when the closer runs. The TUI owns the terminal while it is up.
	OutputDeferred
)

// New returns a new logger that writes JSON to the specified file.
// If file is empty, out decides the destination.
//
// The level parameter can be one of: debug, info, warn, error, fatal.
func New(level, file string, out Output) (zerolog.Logger, func(), error) {
	closer := func() {}

	lvl, err := zerolog.ParseLevel(level)
	if err != nil {
		return zerolog.Logger{}, closer, err
	}

	var writer io.Writer
	switch {
	case file != "":
		logsDir := filepath.Dir(file)
		if err := os.MkdirAll(logsDir, 0o755); err != nil {
			return zerolog.Logger{}, closer, fmt.Errorf("create logs dir: %w", err)
		}

		osFile, err := os.OpenFile(file, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return zerolog.Logger{}, closer, err
		}
		closer = func() { _ = osFile.Close() }
		writer = osFile
	case out == OutputStderrConsole:
		writer = zerolog.ConsoleWriter{Out: os.Stderr, TimeFormat: "15:04:05"}
	case out == OutputDiscard:
		writer = io.Discard
	case out == OutputDeferred:
		deferred := NewDeferredWriter(0)
		writer = zerolog.ConsoleWriter{Out: deferred, NoColor: true, TimeFormat: "15:04:05"}
		closer = func() { _ = deferred.Flush(os.Stderr) }
		if lvl < zerolog.WarnLevel {
			lvl = zerolog.WarnLevel
		}
	default:
		writer = os.Stdout
	}

	l := zerolog.New(writer).
		With().
		Timestamp().
		Logger().
		Level(lvl)

	return l, closer, nil
}
