package artifact

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

const latestFile = "LATEST"

// ErrNoLatest is returned when no bundle has been promoted yet.
var ErrNoLatest = errors.New("no latest artifact version recorded")

// Store persists the files of versioned bundles.
type Store interface {
	Read(version, name string) ([]byte, error)
	Write(version, name string, data []byte) error
	Latest() (string, error)
	SetLatest(version string) error
}

// FileStore keeps each version in its own directory under Root, with a LATEST
// file naming the promoted version.
type FileStore struct {
	Root string
}

func NewFileStore(root string) *FileStore {
	return &FileStore{Root: root}
}

func (s *FileStore) path(version, name string) (string, error) {
	if version == "" || strings.ContainsAny(version, `/\`) || version == "." || version == ".." {
		return "", fmt.Errorf("invalid artifact version %q", version)
	}
	return filepath.Join(s.Root, version, name), nil
}

func (s *FileStore) Read(version, name string) ([]byte, error) {
	p, err := s.path(version, name)
	if err != nil {
		return nil, err
	}
	return os.ReadFile(p)
}

func (s *FileStore) Write(version, name string, data []byte) error {
	p, err := s.path(version, name)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	return writeAtomic(p, data)
}

func (s *FileStore) Latest() (string, error) {
	content, err := os.ReadFile(filepath.Join(s.Root, latestFile))
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNoLatest
	}
	if err != nil {
		return "", err
	}
	version := strings.TrimSpace(string(content))
	if version == "" {
		return "", ErrNoLatest
	}
	return version, nil
}

func (s *FileStore) SetLatest(version string) error {
	if _, err := s.path(version, ""); err != nil {
		return err
	}
	if err := os.MkdirAll(s.Root, 0o755); err != nil {
		return err
	}
	return writeAtomic(filepath.Join(s.Root, latestFile), []byte(version+"\n"))
}

func writeAtomic(path string, data []byte) error {
	tmp, err := os.CreateTemp(filepath.Dir(path), filepath.Base(path)+".*.tmp")
	if err != nil {
		return err
	}
	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())
		return err
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	if err := os.Chmod(tmp.Name(), 0o644); err != nil {
		os.Remove(tmp.Name())
		return err
	}
	return os.Rename(tmp.Name(), path)
}
