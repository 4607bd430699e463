package graph

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/matzehuels/erlayout/pkg/core/er"
	errs "github.com/matzehuels/erlayout/pkg/errors"
)

// =============================================================================
// Document Serialization API
// =============================================================================

// FormatForPath returns the document format implied by a file extension.
func FormatForPath(path string) string {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	}
	return FormatJSON
}

// MarshalDocument converts a document to indented JSON bytes.
func MarshalDocument(doc er.Document) ([]byte, error) {
	var buf bytes.Buffer
	if err := WriteDocument(doc, &buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// UnmarshalDocument decodes a document in the given format.
func UnmarshalDocument(data []byte, format string) (er.Document, error) {
	return ReadDocument(bytes.NewReader(data), format)
}

// WriteDocument writes a document as indented JSON.
func WriteDocument(doc er.Document, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("encode: %w", err)
	}
	return nil
}

// ReadDocument decodes a document from r. Unknown fields are rejected so
// that misspelled keys do not silently drop data.
func ReadDocument(r io.Reader, format string) (er.Document, error) {
	var doc er.Document
	switch format {
	case FormatYAML:
		dec := yaml.NewDecoder(r)
		dec.KnownFields(true)
		if err := dec.Decode(&doc); err != nil && err != io.EOF {
			return er.Document{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode YAML document")
		}
	case FormatJSON, "":
		dec := json.NewDecoder(r)
		dec.DisallowUnknownFields()
		if err := dec.Decode(&doc); err != nil {
			return er.Document{}, errs.Wrap(errs.ErrCodeInvalidFormat, err, "decode JSON document")
		}
	default:
		return er.Document{}, errs.New(errs.ErrCodeUnsupported, "unsupported document format %q", format)
	}
	return doc, nil
}

// ReadDocumentFile reads a document, choosing the format by extension.
func ReadDocumentFile(path string) (er.Document, error) {
	if err := errs.ValidateFilePath(path); err != nil {
		return er.Document{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return er.Document{}, errs.Wrap(errs.ErrCodeFileNotFound, err, "open %s", path)
		}
		return er.Document{}, fmt.Errorf("open %s: %w", path, err)
	}
	defer f.Close()
	doc, err := ReadDocument(f, FormatForPath(path))
	if err != nil {
		return er.Document{}, fmt.Errorf("%s: %w", path, err)
	}
	return doc, nil
}
