package document

import "fmt"

// UnsupportedFormatError indicates a file whose extension is outside the
// supported set. It is fatal to that single document only.
type UnsupportedFormatError struct {
	Path string
	Ext  string
}

// Error implements the error interface.
func (e *UnsupportedFormatError) Error() string {
	return fmt.Sprintf("unsupported document format %q: %s", e.Ext, e.Path)
}

// ParseError indicates that a format-specific extractor failed on a file.
// The ingestion pipeline recovers from it per document and continues.
type ParseError struct {
	Path string
	Err  error
}

// Error implements the error interface.
func (e *ParseError) Error() string {
	return fmt.Sprintf("parsing %s: %v", e.Path, e.Err)
}

// Unwrap returns the underlying extractor error.
func (e *ParseError) Unwrap() error {
	return e.Err
}
