package export

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Artifact is a stored file.
type Artifact struct {
	Name string
	URL  string
}

// ArtifactStore persists exported files and lists them for version discovery.
type ArtifactStore interface {
	// Upload stores data under name and returns its public URL.
	Upload(ctx context.Context, name string, data []byte, contentType string) (string, error)
	// List returns the stored artifacts whose name starts with prefix, sorted by name.
	List(ctx context.Context, prefix string) ([]Artifact, error)
}

// DirStore keeps artifacts in a local directory and publishes them under a base URL.
type DirStore struct {
	dir     string
	baseURL string
}

// NewDirStore creates a store rooted at dir. With an empty baseURL artifacts are addressed
// by file:// URLs.
func NewDirStore(dir, baseURL string) *DirStore {
	return &DirStore{dir: dir, baseURL: strings.TrimSuffix(baseURL, "/")}
}

// Dir returns the artifact directory.
func (s *DirStore) Dir() string { return s.dir }

// Upload writes data atomically through a temp file and rename.
func (s *DirStore) Upload(ctx context.Context, name string, data []byte, _ string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if name == "" || name != filepath.Base(name) {
		return "", fmt.Errorf("invalid artifact name %q", name)
	}
	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return "", fmt.Errorf("failed to create artifact directory: %w", err)
	}

	path := filepath.Join(s.dir, name)
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return "", fmt.Errorf("failed to write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return "", fmt.Errorf("failed to rename temp file: %w", err)
	}
	return s.url(name)
}

// List implements ArtifactStore. A missing directory lists nothing.
func (s *DirStore) List(ctx context.Context, prefix string) ([]Artifact, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	entries, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list artifacts: %w", err)
	}
	var out []Artifact
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasPrefix(name, prefix) || strings.HasSuffix(name, ".tmp") {
			continue
		}
		u, err := s.url(name)
		if err != nil {
			return nil, err
		}
		out = append(out, Artifact{Name: name, URL: u})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (s *DirStore) url(name string) (string, error) {
	if s.baseURL != "" {
		return s.baseURL + "/" + url.PathEscape(name), nil
	}
	abs, err := filepath.Abs(filepath.Join(s.dir, name))
	if err != nil {
		return "", fmt.Errorf("resolving artifact path: %w", err)
	}
	return (&url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}).String(), nil
}
