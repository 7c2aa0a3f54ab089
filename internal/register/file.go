// internal/register/file.go
package register

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// UserMapFilename is the register map file kept next to the executable
const UserMapFilename = "registers.user.yaml"

// UserMapPath returns the default location of the user register map
func UserMapPath() (string, error) {
	exe, err := os.Executable()
	if err != nil {
		return "", fmt.Errorf("failed to locate executable: %w", err)
	}
	return filepath.Join(filepath.Dir(exe), UserMapFilename), nil
}

// Decode reads a YAML register map. An empty document yields an empty map.
func Decode(r io.Reader) (*Map, error) {
	var raw interface{}
	if err := yaml.NewDecoder(r).Decode(&raw); err != nil {
		if errors.Is(err, io.EOF) {
			return New(nil), nil
		}
		return nil, &MapParseError{Reason: "invalid yaml", Err: err}
	}
	return Load(raw)
}

// Encode writes the map as YAML
func (m *Map) Encode(w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(m.Export()); err != nil {
		return fmt.Errorf("failed to encode register map: %w", err)
	}
	return enc.Close()
}

// LoadFile decodes the register map stored at path
func LoadFile(path string) (*Map, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	m, err := Decode(f)
	if err != nil {
		var perr *MapParseError
		if errors.As(err, &perr) {
			perr.Path = path
		}
		return nil, err
	}
	return m, nil
}

// SaveFile writes the map to path, replacing any previous file
func (m *Map) SaveFile(path string) error {
	tmp := path + ".tmp"
	f, err := os.Create(tmp)
	if err != nil {
		return fmt.Errorf("failed to create register map file: %w", err)
	}
	if err := m.Encode(f); err != nil {
		f.Close()
		os.Remove(tmp)
		return err
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("failed to write register map file: %w", err)
	}
	return os.Rename(tmp, path)
}
