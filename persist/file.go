package persist

import (
	"bytes"
	"os"
	"path/filepath"

	"github.com/teranos/tygra/errors"
	"github.com/teranos/tygra/logger"
	"github.com/teranos/tygra/model"
)

// ReadFile decodes the document at path, choosing the format from the
// extension.
func ReadFile(path string) (*Document, error) {
	f, err := FormatFor(path)
	if err != nil {
		return nil, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, errors.NewNotFoundError("document %s", path)
		}
		return nil, errors.Wrapf(err, "read %s", path)
	}
	d, err := Decode(bytes.NewReader(data), f)
	if err != nil {
		return nil, errors.Wrapf(err, "read %s", path)
	}
	log().Debugw("read document",
		logger.FieldPath, path,
		logger.FieldFormat, string(f),
		logger.FieldDocument, d.ID.String(),
		logger.FieldCount, len(d.Records))
	return d, nil
}

// WriteFile encodes d to path. The file is written next to its final
// location and renamed into place.
func WriteFile(path string, d *Document) error {
	f, err := FormatFor(path)
	if err != nil {
		return err
	}
	var buf bytes.Buffer
	if err := Encode(&buf, d, f); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	defer os.Remove(tmp.Name())
	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "write %s", path)
	}
	if err := tmp.Close(); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return errors.Wrapf(err, "write %s", path)
	}
	log().Debugw("wrote document",
		logger.FieldPath, path,
		logger.FieldFormat, string(f),
		logger.FieldDocument, d.ID.String(),
		logger.FieldCount, len(d.Records))
	return nil
}

// Open reads the document at path and rebuilds its graph. Records that
// could not be restored are listed in the report; Open itself only fails
// when the document cannot be read.
func Open(path string, opts ...model.Option) (*model.Graph, *Document, *model.LoadReport, error) {
	d, err := ReadFile(path)
	if err != nil {
		return nil, nil, nil, err
	}
	g, report := d.Graph(opts...)
	if !report.OK() {
		log().Warnw("document restored with repairs",
			logger.FieldPath, path,
			"failures", len(report.Failures),
			"rerooted", len(report.Rerooted))
	}
	return g, d, report, nil
}

// Save writes g as a new document at path.
func Save(path string, g *model.Graph) (*Document, error) {
	d := NewDocument(g)
	if err := WriteFile(path, d); err != nil {
		return nil, err
	}
	return d, nil
}
