package repository

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/vibast-solutions/portal-payments/app/session"
	"gopkg.in/yaml.v3"
)

type fileDocument struct {
	Values    map[string]string `yaml:"values"`
	UpdatedAt time.Time         `yaml:"updated_at"`
}

// FileStorage keeps session values in a single YAML file readable only by the
// current user. Writes go through a temp file and a rename.
type FileStorage struct {
	mu   sync.Mutex
	path string
}

func NewFileStorage(path string) *FileStorage {
	return &FileStorage{path: path}
}

func (s *FileStorage) Path() string {
	return s.path
}

func (s *FileStorage) Load(_ context.Context, keys ...string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(keys))
	for _, key := range keys {
		if v, ok := doc.Values[key]; ok {
			out[key] = v
		}
	}
	return out, nil
}

func (s *FileStorage) Save(_ context.Context, values map[string]string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		if !errors.Is(err, session.ErrCorruptStorage) {
			return err
		}
		doc = &fileDocument{}
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	for k, v := range values {
		doc.Values[k] = v
	}
	return s.write(doc)
}

func (s *FileStorage) Delete(_ context.Context, keys ...string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	doc, err := s.read()
	if err != nil {
		if errors.Is(err, session.ErrCorruptStorage) {
			return s.remove()
		}
		return err
	}
	for _, key := range keys {
		delete(doc.Values, key)
	}
	if len(doc.Values) == 0 {
		return s.remove()
	}
	return s.write(doc)
}

func (s *FileStorage) read() (*fileDocument, error) {
	raw, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return &fileDocument{Values: map[string]string{}}, nil
		}
		return nil, err
	}

	var doc fileDocument
	if err := yaml.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", session.ErrCorruptStorage, s.path, err)
	}
	if doc.Values == nil {
		doc.Values = map[string]string{}
	}
	return &doc, nil
}

func (s *FileStorage) write(doc *fileDocument) error {
	doc.UpdatedAt = time.Now().UTC()
	raw, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return err
	}
	tmp, err := os.CreateTemp(dir, ".session-*.yaml")
	if err != nil {
		return err
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return err
	}
	if _, err := tmp.Write(raw); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmpName, s.path)
}

func (s *FileStorage) remove() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}
