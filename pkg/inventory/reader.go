// Package inventory reads file-inventory extracts into typed rows.
package inventory

import (
	"errors"
	"fmt"
)

// Default header names of an extract.
const (
	ColServerName    = "ServerName"
	ColDirectoryName = "DirectoryName"
	ColLength        = "Length"
)

var (
	// ErrMissingColumn indicates the extract header lacks a required column.
	ErrMissingColumn = errors.New("missing required column")
	// ErrEmptyExtract indicates the extract has no header row at all.
	ErrEmptyExtract = errors.New("extract has no header row")
)

// Row is one inventory entry. Fields absent from the extract are empty.
type Row struct {
	// ServerName is optional; empty when the column is absent or blank.
	ServerName string
	// DirectoryName is the backslash-delimited path of the entry.
	DirectoryName string
	// Length is the raw byte-length text, not yet validated.
	Length string
	// OtherFields is set when a column not mapped above carries a value.
	OtherFields bool

	// Line is the 1-based physical line (or row ordinal for Parquet).
	Line int
	// Raw is the original row text, used for audit records.
	Raw string
}

// IsEmpty reports whether every field of the row is empty, mapped or not.
func (r Row) IsEmpty() bool {
	return r.ServerName == "" && r.DirectoryName == "" && r.Length == "" && !r.OtherFields
}

// Columns names the header columns mapped onto Row fields.
type Columns struct {
	ServerName    string `yaml:"server_name"`
	DirectoryName string `yaml:"directory_name"`
	Length        string `yaml:"length"`
}

// DefaultColumns returns the standard extract header names.
func DefaultColumns() Columns {
	return Columns{
		ServerName:    ColServerName,
		DirectoryName: ColDirectoryName,
		Length:        ColLength,
	}
}

func (c Columns) withDefaults() Columns {
	d := DefaultColumns()
	if c.ServerName == "" {
		c.ServerName = d.ServerName
	}
	if c.DirectoryName == "" {
		c.DirectoryName = d.DirectoryName
	}
	if c.Length == "" {
		c.Length = d.Length
	}
	return c
}

// RowError reports a row that could not be mapped to the header. The run
// can continue past it.
type RowError struct {
	Line   int
	Raw    string
	Fields int
	Want   int
}

func (e *RowError) Error() string {
	return fmt.Sprintf("line %d: got %d fields, header has %d", e.Line, e.Fields, e.Want)
}

// Reader is the interface for reading inventory rows.
type Reader interface {
	// Next returns the next row. Returns io.EOF when done. A *RowError is
	// returned for rows that do not fit the header; the returned Row then
	// carries Line and Raw, and reading may continue.
	Next() (Row, error)
	// Close releases resources.
	Close() error
}
