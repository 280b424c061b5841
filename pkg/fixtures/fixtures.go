// Package fixtures decodes seed data for in-memory entity sets from YAML
package fixtures

import (
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

// Load decodes every YAML document in r as a list of T and returns the
// concatenated items. Unknown keys are rejected.
func Load[T any](r io.Reader) ([]T, error) {
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)

	var items []T
	for doc := 0; ; doc++ {
		var batch []T
		err := dec.Decode(&batch)
		if errors.Is(err, io.EOF) {
			return items, nil
		}
		if err != nil {
			return nil, fmt.Errorf("decode fixture document %d: %w", doc, err)
		}
		items = append(items, batch...)
	}
}

// LoadFile decodes the YAML fixture file at path
func LoadFile[T any](path string) ([]T, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open fixture: %w", err)
	}
	defer f.Close()
	return Load[T](f)
}

// MustLoadFile is LoadFile for package-level test data; it panics on error
func MustLoadFile[T any](path string) []T {
	items, err := LoadFile[T](path)
	if err != nil {
		panic(err)
	}
	return items
}
