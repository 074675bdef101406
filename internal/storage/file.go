package storage

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/xeipuuv/gojsonschema"

	"github.com/systmms/vaultpath/internal/errors"
)

// configSchema validates a configuration file on load: a flat JSON object
// of string values. Catches hand-edited files before a bad value turns
// into a confusing transport error.
const configSchema = `{
	"type": "object",
	"additionalProperties": {"type": "string"}
}`

// File persists the configuration as a JSON document with 0600
// permissions. Writes go through a temp file and rename so a crash never
// leaves a half-written config behind.
type File struct {
	path string
	mu   sync.Mutex
}

// NewFile creates a file-backed store at path. The file is created lazily
// on first Set.
func NewFile(path string) *File {
	return &File{path: path}
}

func (f *File) Get(ctx context.Context, key Key) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return "", err
	}
	return values[string(key)], nil
}

func (f *File) Set(ctx context.Context, key Key, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	values[string(key)] = value
	return f.save(values)
}

func (f *File) Delete(ctx context.Context, key Key) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	values, err := f.load()
	if err != nil {
		return err
	}
	delete(values, string(key))
	return f.save(values)
}

func (f *File) load() (map[string]string, error) {
	data, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return make(map[string]string), nil
	}
	if err != nil {
		return nil, errors.StorageError{Backend: "file", Op: "read", Err: err}
	}

	result, err := gojsonschema.Validate(
		gojsonschema.NewStringLoader(configSchema),
		gojsonschema.NewBytesLoader(data),
	)
	if err != nil {
		return nil, errors.StorageError{Backend: "file", Op: "validate", Err: err}
	}
	if !result.Valid() {
		return nil, errors.StorageError{
			Backend: "file",
			Op:      "validate",
			Err:     fmt.Errorf("%s is not a valid configuration file: %v", f.path, result.Errors()),
		}
	}

	values := make(map[string]string)
	if err := json.Unmarshal(data, &values); err != nil {
		return nil, errors.StorageError{Backend: "file", Op: "decode", Err: err}
	}
	return values, nil
}

func (f *File) save(values map[string]string) error {
	data, err := json.MarshalIndent(values, "", "  ")
	if err != nil {
		return errors.StorageError{Backend: "file", Op: "encode", Err: err}
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".*")
	if err != nil {
		return errors.StorageError{Backend: "file", Op: "write", Err: err}
	}
	defer os.Remove(tmp.Name())

	if err := tmp.Chmod(0o600); err != nil {
		tmp.Close()
		return errors.StorageError{Backend: "file", Op: "chmod", Err: err}
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return errors.StorageError{Backend: "file", Op: "write", Err: err}
	}
	if err := tmp.Close(); err != nil {
		return errors.StorageError{Backend: "file", Op: "write", Err: err}
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return errors.StorageError{Backend: "file", Op: "write", Err: err}
	}
	return nil
}
