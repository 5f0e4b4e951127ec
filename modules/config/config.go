package config

import (
	"bytes"
	"errors"
	"fmt"
	"gopkg.in/yaml.v3"
	"io"
	"os"
	"path/filepath"
)

var ErrInvalid = errors.New("invalid config")

// FromYamlFile decodes the file at path into v. Unknown keys are rejected.
func FromYamlFile(path string, v any) error {
	file, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("failed to open config: %w", err)
	}
	defer file.Close()

	dec := yaml.NewDecoder(file)
	dec.KnownFields(true)

	err = dec.Decode(v)
	if errors.Is(err, io.EOF) {
		return fmt.Errorf("%w: %s is empty", ErrInvalid, path)
	}
	if err != nil {
		return fmt.Errorf("failed to decode config: %w", err)
	}

	return nil
}

// ToYamlFile encodes v and replaces the file at path with the result.
func ToYamlFile(path string, v any) error {
	var buf bytes.Buffer

	enc := yaml.NewEncoder(&buf)
	enc.SetIndent(2)
	if err := enc.Encode(v); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}
	if err := enc.Close(); err != nil {
		return fmt.Errorf("failed to encode config: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	return os.WriteFile(path, buf.Bytes(), 0o644)
}
