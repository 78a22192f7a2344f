package stats

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Blob is the flat key-value document persisted between runs. Each key holds one
// JSON value (settings, stats, history).
type Blob map[string]json.RawMessage

// Storage defines the interface for loading and saving the persisted blob.
// This allows for mocking the storage layer during tests.
type Storage interface {
	// LoadAll loads every key from the persistence layer.
	LoadAll() (Blob, error)
	// SaveAll writes the whole blob, overwriting existing data.
	SaveAll(blob Blob) error
}

// JSONFileStorage is an implementation of Storage that uses a single JSON file.
type JSONFileStorage struct {
	path string
}

// NewJSONFileStorage stores the blob at path. An empty path selects
// ~/.config/go-bingo/store.json.
func NewJSONFileStorage(path string) (*JSONFileStorage, error) {
	if path != "" {
		return &JSONFileStorage{path: path}, nil
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("could not get user home directory: %w", err)
	}
	return &JSONFileStorage{path: filepath.Join(homeDir, ".config", "go-bingo", "store.json")}, nil
}

func (jfs *JSONFileStorage) Path() string { return jfs.path }

// LoadAll reads and decodes the blob. A missing or empty file is an empty blob.
func (jfs *JSONFileStorage) LoadAll() (Blob, error) {
	data, err := os.ReadFile(jfs.path)
	if os.IsNotExist(err) {
		return Blob{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("error reading store file: %w", err)
	}
	if len(data) == 0 {
		return Blob{}, nil
	}

	blob := Blob{}
	if err := json.Unmarshal(data, &blob); err != nil {
		return nil, fmt.Errorf("error decoding store file: %w", err)
	}
	return blob, nil
}

// SaveAll encodes the blob to a temporary file and renames it over the store.
func (jfs *JSONFileStorage) SaveAll(blob Blob) error {
	dir := filepath.Dir(jfs.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating store directory: %w", err)
	}

	data, err := json.MarshalIndent(blob, "", "  ")
	if err != nil {
		return fmt.Errorf("error encoding store: %w", err)
	}

	tmp := jfs.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("error writing store file: %w", err)
	}
	if err := os.Rename(tmp, jfs.path); err != nil {
		return fmt.Errorf("error replacing store file: %w", err)
	}
	return nil
}
