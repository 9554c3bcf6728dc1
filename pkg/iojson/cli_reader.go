package iojson

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/urfave/cli/v3"
	"golang.org/x/term"
)

// FileReader decodes a JSON document of type T from the file named by its
// flag, or from piped stdin when the flag is unset.
type FileReader[T any] struct {
	name          string
	usage         string
	fileFlagValue string
}

// NewFileReader creates a reader bound to a flag called name.
func NewFileReader[T any](name, usage string) *FileReader[T] {
	return &FileReader[T]{name: name, usage: usage}
}

func (fr *FileReader[T]) Flag() *cli.StringFlag {
	return &cli.StringFlag{
		Name:        fr.name,
		Usage:       fr.usage + " (reads from stdin if piped)",
		Destination: &fr.fileFlagValue,
	}
}

// Provided reports whether input is available from the flag or a pipe.
func (fr *FileReader[T]) Provided() bool {
	return fr.fileFlagValue != "" || !term.IsTerminal(int(os.Stdin.Fd()))
}

func (fr *FileReader[T]) Read() (T, error) {
	var reader io.Reader
	var input T

	if fr.fileFlagValue != "" {
		f, err := os.Open(fr.fileFlagValue)
		if err != nil {
			return input, fmt.Errorf("open file: %w", err)
		}
		defer func() { _ = f.Close() }()
		reader = f
	} else {
		if term.IsTerminal(int(os.Stdin.Fd())) {
			return input, fmt.Errorf("no input provided (stdin is a terminal); use --%s or pipe JSON input", fr.name)
		}
		reader = os.Stdin
	}

	if err := json.NewDecoder(reader).Decode(&input); err != nil {
		return input, fmt.Errorf("decode JSON: %w", err)
	}

	return input, nil
}
