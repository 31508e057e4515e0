package manifest

import (
	"os"
	"path/filepath"
	"sort"
	"sync"

	abierrors "github.com/tos-network/abiderive/derive/errors"
	"github.com/tos-network/abiderive/derive/model"
)

// Sink stores an encoded manifest under the interface name and reports
// where it went.
type Sink interface {
	Write(name string, data []byte) (string, error)
}

// DirSink writes manifests to <TargetDir>/json/<name>.json. Names must be
// identifiers so the file cannot land outside that directory.
type DirSink struct {
	TargetDir string
}

// Path returns the file a manifest of the given name is written to.
func (s DirSink) Path(name string) string {
	return filepath.Join(s.TargetDir, "json", name+".json")
}

func (s DirSink) Write(name string, data []byte) (string, error) {
	if !model.IsIdentifier(name) {
		return "", abierrors.ErrWrite.WithMethod(name).WithDetail("manifest name %q is not an identifier", name)
	}
	path := s.Path(name)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return "", abierrors.ErrWrite.WithMethod(name).WithDetail("%s", path).WithCause(err)
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return "", abierrors.ErrWrite.WithMethod(name).WithDetail("%s", path).WithCause(err)
	}
	if _, err := f.Write(data); err != nil {
		_ = f.Close()
		return "", abierrors.ErrWrite.WithMethod(name).WithDetail("%s", path).WithCause(err)
	}
	if err := f.Close(); err != nil {
		return "", abierrors.ErrWrite.WithMethod(name).WithDetail("%s", path).WithCause(err)
	}
	return path, nil
}

// MemorySink keeps manifests in memory. The zero value is ready to use.
type MemorySink struct {
	mu    sync.Mutex
	files map[string][]byte
}

func (s *MemorySink) Write(name string, data []byte) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.files == nil {
		s.files = make(map[string][]byte)
	}
	s.files[name] = append([]byte(nil), data...)
	return "memory:" + name, nil
}

// Get returns the manifest stored under name.
func (s *MemorySink) Get(name string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	data, ok := s.files[name]
	return data, ok
}

// Names lists the stored manifest names in sorted order.
func (s *MemorySink) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.files))
	for name := range s.files {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
