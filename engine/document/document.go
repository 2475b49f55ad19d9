// Package document reads override documents from disk or stdin and turns
// them into plain decoded JSON values.
package document

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/goccy/go-yaml"
)

// Format identifies the serialization of a document.
type Format string

const (
	FormatAuto Format = ""
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// StdinName is the conventional path for standard input.
const StdinName = "-"

// ErrInvalidDocument is returned when a document cannot be parsed at all.
var ErrInvalidDocument = errors.New("invalid document")

// Document is a parsed override document.
type Document struct {
	Path   string
	Format Format
	Raw    []byte
	// Value holds the decoded JSON value: maps, slices, float64, string, bool or nil.
	Value any
}

// ParseError wraps a decoding failure with the document name.
type ParseError struct {
	Path   string
	Format Format
	Cause  error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("failed to parse %s as %s: %v", e.Path, e.Format, e.Cause)
}

func (e *ParseError) Is(target error) bool {
	return target == ErrInvalidDocument
}

func (e *ParseError) Unwrap() error {
	return e.Cause
}

// DetectFormat infers the format from the file extension.
func DetectFormat(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".json":
		return FormatJSON
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatAuto
	}
}

// Parse decodes data according to format. FormatAuto tries JSON first and
// falls back to YAML.
func Parse(path string, data []byte, format Format) (*Document, error) {
	switch format {
	case FormatJSON:
		value, err := decodeJSON(data)
		if err != nil {
			return nil, &ParseError{Path: path, Format: FormatJSON, Cause: err}
		}
		return &Document{Path: path, Format: FormatJSON, Raw: data, Value: value}, nil
	case FormatYAML:
		value, err := decodeYAML(data)
		if err != nil {
			return nil, &ParseError{Path: path, Format: FormatYAML, Cause: err}
		}
		return &Document{Path: path, Format: FormatYAML, Raw: data, Value: value}, nil
	case FormatAuto:
		if doc, err := Parse(path, data, FormatJSON); err == nil {
			return doc, nil
		}
		return Parse(path, data, FormatYAML)
	default:
		return nil, fmt.Errorf("unsupported document format %q", format)
	}
}

func decodeJSON(data []byte) (any, error) {
	decoder := json.NewDecoder(bytes.NewReader(data))
	var value any
	if err := decoder.Decode(&value); err != nil {
		return nil, err
	}
	if decoder.More() {
		return nil, errors.New("unexpected data after top-level value")
	}
	return value, nil
}

// decodeYAML converts YAML to JSON first so numbers decode the same way as
// in JSON documents.
func decodeYAML(data []byte) (any, error) {
	if len(bytes.TrimSpace(data)) == 0 {
		return nil, nil
	}
	converted, err := yaml.YAMLToJSON(data)
	if err != nil {
		return nil, err
	}
	return decodeJSON(converted)
}
