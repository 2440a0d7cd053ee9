package model

import (
	"fmt"
	"strings"
)

// EmptyInputError is returned when a file has no header or no data rows.
type EmptyInputError struct {
	Name string
}

func (e *EmptyInputError) Error() string {
	if e.Name == "" {
		return "input has no data rows"
	}
	return fmt.Sprintf("%s: input has no data rows", e.Name)
}

// UnsupportedFormatError is returned for file extensions the decoder does
// not handle.
type UnsupportedFormatError struct {
	Extension string
	Supported []string
}

func (e *UnsupportedFormatError) Error() string {
	ext := e.Extension
	if ext == "" {
		ext = "(none)"
	}
	return fmt.Sprintf("unsupported file format %s (supported: %s)", ext, strings.Join(e.Supported, ", "))
}

// MalformedRowError describes a data row whose cell count did not match the
// header count. Such rows are excluded from the table and reported.
type MalformedRowError struct {
	Line int `json:"line"`
	Got  int `json:"got"`
	Want int `json:"want"`
}

func (e MalformedRowError) Error() string {
	return fmt.Sprintf("line %d: got %d cells, want %d", e.Line, e.Got, e.Want)
}
