package refdata

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Format identifies a dataset encoding.
type Format string

const (
	FormatJSON Format = "json"
	FormatYAML Format = "yaml"
)

// FormatFor picks the encoding from the file extension; anything unknown is read as JSON.
func FormatFor(path string) Format {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		return FormatYAML
	default:
		return FormatJSON
	}
}

// ReadFile loads a dataset from path. A path that is not a regular file reports
// ok=false with no error so callers can treat it as an empty dataset.
func ReadFile(path string) (ds Dataset, ok bool, err error) {
	if _, ok, err := statDataset(path); err != nil || !ok {
		return nil, false, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	ds, err = Decode(data, FormatFor(path))
	if err != nil {
		return nil, false, fmt.Errorf("decode %s: %w", path, err)
	}
	return ds, true, nil
}

// Decode parses a dataset document. The top level must be a mapping.
func Decode(data []byte, format Format) (Dataset, error) {
	var doc any
	switch format {
	case FormatYAML:
		if err := yaml.Unmarshal(data, &doc); err != nil {
			return nil, err
		}
	default:
		dec := json.NewDecoder(bytes.NewReader(data))
		dec.UseNumber()
		if err := dec.Decode(&doc); err != nil {
			return nil, err
		}
	}
	if doc == nil {
		return Dataset{}, nil
	}
	m, ok := asMap(doc)
	if !ok {
		return nil, fmt.Errorf("%w: top level is not a mapping", ErrMalformedDataset)
	}
	return Dataset(m), nil
}

func statDataset(path string) (fs.FileInfo, bool, error) {
	info, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	if !info.Mode().IsRegular() {
		return nil, false, nil
	}
	return info, true, nil
}
