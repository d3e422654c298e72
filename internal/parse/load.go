package parse

import (
	"errors"
	"fmt"
	"os"
	"unicode/utf8"
)

// ErrInvalidEncoding reports a lecture file that is not valid UTF-8.
var ErrInvalidEncoding = errors.New("invalid UTF-8")

// ReadError is returned when a lecture file cannot be read or decoded.
type ReadError struct {
	Path string
	Err  error
}

func (e *ReadError) Error() string {
	return fmt.Sprintf("read lecture %s: %v", e.Path, e.Err)
}

func (e *ReadError) Unwrap() error {
	return e.Err
}

// LoadFile reads and parses a lecture file with the default markers.
func LoadFile(path string) (*Document, error) {
	return New(DefaultOptions()).ParseFile(path)
}

// ParseFile reads path and parses it. Only I/O and decoding failures are
// returned as errors, always as *ReadError.
func (p *Parser) ParseFile(path string) (*Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ReadError{Path: path, Err: err}
	}
	if !utf8.Valid(data) {
		return nil, &ReadError{Path: path, Err: ErrInvalidEncoding}
	}
	return p.Parse(string(data)), nil
}
