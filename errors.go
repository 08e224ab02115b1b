package ethicagraph

import "errors"

var (
	// ErrExtractionFailed is returned when text extraction fails; nothing
	// downstream can run for that document.
	ErrExtractionFailed = errors.New("ethicagraph: text extraction failed")

	// ErrUnsupportedFormat is returned for unrecognized file formats.
	ErrUnsupportedFormat = errors.New("ethicagraph: unsupported document format")

	// ErrEmptyDocument is returned when extraction yields no text.
	ErrEmptyDocument = errors.New("ethicagraph: document produced no text")

	// ErrNoElements is returned when parsing finds no structural elements
	// at all, leaving nothing to persist.
	ErrNoElements = errors.New("ethicagraph: no structural elements found")

	// ErrInvalidConfig is returned for invalid configuration values.
	ErrInvalidConfig = errors.New("ethicagraph: invalid configuration")
)
