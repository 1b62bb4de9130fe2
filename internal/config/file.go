package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"

	"gopkg.in/yaml.v3"
)

// LoadFile reads the YAML configuration file at path. A missing file is not
// an error: the result has every leaf absent. A file that exists but cannot
// be read returns ErrConfigFileUnreadable; one whose content does not decode
// into Shape, including unknown keys, returns ErrConfigFileMalformed.
func LoadFile(path string) (Shape, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return Shape{}, nil
		}
		return Shape{}, fmt.Errorf("%w: %s: %w", ErrConfigFileUnreadable, path, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return Shape{}, fmt.Errorf("%w: %s: %w", ErrConfigFileUnreadable, path, err)
	}

	s, err := parseYAML(data)
	if err != nil {
		return Shape{}, fmt.Errorf("%w: %s: %w", ErrConfigFileMalformed, path, err)
	}
	return s, nil
}

var errMultipleDocuments = errors.New("configuration must be a single YAML document")

// parseYAML decodes a partial configuration. Empty documents and null values
// leave the corresponding leaves absent. The file holds exactly one document.
func parseYAML(data []byte) (Shape, error) {
	var s Shape
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		if errors.Is(err, io.EOF) {
			return Shape{}, nil
		}
		return Shape{}, err
	}

	var trailing yaml.Node
	switch err := dec.Decode(&trailing); {
	case errors.Is(err, io.EOF):
		return s, nil
	case err != nil:
		return Shape{}, err
	default:
		return Shape{}, errMultipleDocuments
	}
}
