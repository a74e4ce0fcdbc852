// Package specstore locates chart specifications and their data files under
// a data root, which is either a local directory or an HTTP(S) base URL.
package specstore

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"vis2table/internal/domain"
)

// maxDocumentSize bounds any single fetched document.
const maxDocumentSize = 64 << 20

// Store resolves SpecRefs against Root.
type Store struct {
	Root   string
	Client *http.Client
}

// New creates a Store rooted at root ("./data" when empty).
func New(root string) *Store {
	if root == "" {
		root = "./data"
	}
	return &Store{Root: root, Client: &http.Client{Timeout: 30 * time.Second}}
}

// Remote reports whether the root is an HTTP(S) URL.
func (s *Store) Remote() bool {
	return isHTTP(s.Root)
}

// Path returns <root>/<dataset>/specs/<filename>.
func (s *Store) Path(ref domain.SpecRef) string {
	return ref.Path(s.Root)
}

// Fetch reads the specification document for ref.
func (s *Store) Fetch(ctx context.Context, ref domain.SpecRef) ([]byte, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.read(ctx, s.Path(ref))
}

// FetchData reads a data file referenced from ref's specification. Relative
// locations resolve against the specification's own directory or URL.
func (s *Store) FetchData(ctx context.Context, ref domain.SpecRef, location string) ([]byte, error) {
	resolved, err := s.Resolve(ref, location)
	if err != nil {
		return nil, err
	}
	return s.read(ctx, resolved)
}

// Resolve turns a data location from ref's specification into an absolute
// path or URL.
func (s *Store) Resolve(ref domain.SpecRef, location string) (string, error) {
	if location == "" {
		return "", domain.ErrValidation("data location is empty")
	}
	if isHTTP(location) {
		return location, nil
	}
	specPath := s.Path(ref)
	if isHTTP(specPath) {
		base, err := url.Parse(specPath)
		if err != nil {
			return "", domain.ErrValidation("invalid data root %q: %v", s.Root, err)
		}
		rel, err := url.Parse(location)
		if err != nil {
			return "", domain.ErrValidation("invalid data location %q: %v", location, err)
		}
		return base.ResolveReference(rel).String(), nil
	}
	if filepath.IsAbs(location) {
		return location, nil
	}
	return filepath.Join(filepath.Dir(specPath), filepath.FromSlash(location)), nil
}

// List returns the specifications of dataset, sorted by filename. Listing
// needs a local root.
func (s *Store) List(_ context.Context, dataset string) ([]domain.SpecRef, error) {
	if s.Remote() {
		return nil, domain.ErrValidation("listing specifications requires a local data directory")
	}
	probe := domain.SpecRef{Dataset: dataset, Filename: "x.json"}
	if err := probe.Validate(); err != nil {
		return nil, err
	}

	dir := filepath.Join(s.Root, dataset, "specs")
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound("dataset %q not found", dataset)
		}
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}

	refs := make([]domain.SpecRef, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.EqualFold(path.Ext(e.Name()), ".json") {
			continue
		}
		refs = append(refs, domain.SpecRef{Dataset: dataset, Filename: e.Name()})
	}
	sort.Slice(refs, func(i, j int) bool { return refs[i].Filename < refs[j].Filename })
	return refs, nil
}

// SnapshotPath returns <root>/<dataset>/snapshots/<name>.json for ref.
func (s *Store) SnapshotPath(ref domain.SpecRef) string {
	name := strings.TrimSuffix(ref.Filename, path.Ext(ref.Filename)) + ".json"
	return strings.TrimSuffix(s.Root, "/") + "/" + path.Join(ref.Dataset, "snapshots", name)
}

// FetchSnapshot reads the recorded snapshot for ref.
func (s *Store) FetchSnapshot(ctx context.Context, ref domain.SpecRef) ([]byte, error) {
	if err := ref.Validate(); err != nil {
		return nil, err
	}
	return s.read(ctx, s.SnapshotPath(ref))
}

func (s *Store) read(ctx context.Context, location string) ([]byte, error) {
	if isHTTP(location) {
		return s.get(ctx, location)
	}
	data, err := os.ReadFile(location)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, domain.ErrNotFound("%s not found", location)
		}
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

func (s *Store) get(ctx context.Context, location string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, location, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	client := s.Client
	if client == nil {
		client = http.DefaultClient
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", location, err)
	}
	defer resp.Body.Close() //nolint:errcheck

	if resp.StatusCode == http.StatusNotFound {
		return nil, domain.ErrNotFound("%s not found", location)
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, fmt.Errorf("fetch %s: unexpected status %s", location, resp.Status)
	}
	data, err := io.ReadAll(io.LimitReader(resp.Body, maxDocumentSize))
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}
	return data, nil
}

func isHTTP(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
