package persist

import (
	"encoding/xml"
	"io"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/teranos/tygra/errors"
)

// Format names a document encoding.
type Format string

const (
	FormatXML  Format = "xml"
	FormatYAML Format = "yaml"
)

// ParseFormat accepts a format name or a file extension.
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimPrefix(s, ".")) {
	case "xml", "tygra":
		return FormatXML, nil
	case "yaml", "yml":
		return FormatYAML, nil
	}
	return "", errors.WithHint(
		errors.Wrapf(errors.ErrUnsupportedFormat, "format %q", s),
		"use .tygra or .xml for XML, .yaml or .yml for YAML")
}

// FormatFor picks the format of path from its extension.
func FormatFor(path string) (Format, error) {
	ext := filepath.Ext(path)
	if ext == "" {
		return "", errors.Wrapf(errors.ErrUnsupportedFormat, "%s has no extension", path)
	}
	return ParseFormat(ext)
}

// Encode writes d to w.
func Encode(w io.Writer, d *Document, f Format) error {
	wd, err := toWire(d)
	if err != nil {
		return errors.Wrap(err, "encode document")
	}
	switch f {
	case FormatXML:
		if _, err := io.WriteString(w, xml.Header); err != nil {
			return errors.Wrap(err, "write xml header")
		}
		enc := xml.NewEncoder(w)
		enc.Indent("", "  ")
		if err := enc.Encode(wd); err != nil {
			return errors.Wrap(err, "encode xml document")
		}
		if _, err := io.WriteString(w, "\n"); err != nil {
			return errors.Wrap(err, "write xml document")
		}
		return nil
	case FormatYAML:
		enc := yaml.NewEncoder(w)
		enc.SetIndent(2)
		if err := enc.Encode(wd); err != nil {
			return errors.Wrap(err, "encode yaml document")
		}
		return errors.Wrap(enc.Close(), "flush yaml document")
	}
	return errors.Wrapf(errors.ErrUnsupportedFormat, "format %q", f)
}

// Decode reads a document from r and checks its version.
func Decode(r io.Reader, f Format) (*Document, error) {
	var wd wireDocument
	switch f {
	case FormatXML:
		if err := xml.NewDecoder(r).Decode(&wd); err != nil {
			return nil, errors.Wrap(errors.WithSecondaryError(errors.ErrInvalidRequest, err), "decode xml document")
		}
	case FormatYAML:
		if err := yaml.NewDecoder(r).Decode(&wd); err != nil {
			return nil, errors.Wrap(errors.WithSecondaryError(errors.ErrInvalidRequest, err), "decode yaml document")
		}
	default:
		return nil, errors.Wrapf(errors.ErrUnsupportedFormat, "format %q", f)
	}
	return fromWire(&wd)
}
