package gen

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/dave/jennifer/jen"
	"github.com/google/go-cmp/cmp"
	"github.com/hashicorp/go-multierror"
	"golang.org/x/sync/errgroup"
	"golang.org/x/tools/imports"
)

// Emitter renders an implementation into a Go source file.
type Emitter interface {
	// Emit renders the implementation type, its constructor and methods.
	Emit(impl *Implementation) (*jen.File, error)
}

// File is a generated file.
type File struct {
	// Path of the file.
	Path string
	// Data is the file content.
	Data []byte
	// Owner names the interface, or feature, that produced the file.
	Owner string
}

// Files is a set of generated files that can be written to disk, or
// compared with what is already there. Paths are unique.
type Files struct {
	mu    sync.Mutex
	files map[string]File
}

// Add adds files to the set. Adding a path twice fails, unless the
// content is identical.
func (fs *Files) Add(files ...File) error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.files == nil {
		fs.files = make(map[string]File)
	}
	var result *multierror.Error
	for _, f := range files {
		if prev, ok := fs.files[f.Path]; ok && !bytes.Equal(prev.Data, f.Data) {
			result = multierror.Append(result, fmt.Errorf("cannot create %s for %q, already created for %q", f.Path, f.Owner, prev.Owner))
		}
	}
	if err := result.ErrorOrNil(); err != nil {
		return err
	}
	for _, f := range files {
		fs.files[f.Path] = f
	}
	return nil
}

// Len returns the number of files in the set.
func (fs *Files) Len() int {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	return len(fs.files)
}

// Paths returns the sorted paths of the set.
func (fs *Files) Paths() []string {
	files := fs.sorted()
	paths := make([]string, len(files))
	for i, f := range files {
		paths[i] = f.Path
	}
	return paths
}

// Get returns the file at path.
func (fs *Files) Get(path string) (File, bool) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	f, ok := fs.files[path]
	return f, ok
}

func (fs *Files) sorted() []File {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	files := make([]File, 0, len(fs.files))
	for _, f := range fs.files {
		files = append(files, f)
	}
	slices.SortFunc(files, func(a, b File) int { return strings.Compare(a.Path, b.Path) })
	return files
}

// Write writes all files to disk, creating parent directories.
func (fs *Files) Write(ctx context.Context, workers int) error {
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, f := range fs.sorted() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := os.MkdirAll(filepath.Dir(f.Path), 0o755); err != nil {
				return fmt.Errorf("create directory for %s: %w", f.Path, err)
			}
			if err := os.WriteFile(f.Path, f.Data, 0o644); err != nil {
				return fmt.Errorf("write %s: %w", f.Path, err)
			}
			return nil
		})
	}
	return g.Wait()
}

// Verify compares each file with its copy on disk. It returns an error
// listing every missing file and every difference.
func (fs *Files) Verify(ctx context.Context, workers int) error {
	var (
		mu     sync.Mutex
		result *multierror.Error
	)
	fail := func(err error) {
		mu.Lock()
		result = multierror.Append(result, err)
		mu.Unlock()
	}
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for _, f := range fs.sorted() {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			data, err := os.ReadFile(f.Path)
			switch {
			case errors.Is(err, os.ErrNotExist):
				fail(fmt.Errorf("%s: generated file should exist, but does not", f.Path))
				return nil
			case err != nil:
				return fmt.Errorf("%s: error reading file: %w", f.Path, err)
			}
			if diff := cmp.Diff(string(data), string(f.Data)); diff != "" {
				fail(fmt.Errorf("%s would have changed:\n\n%s", f.Path, diff))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return fmt.Errorf("io error while verifying tree: %w", err)
	}
	return result.ErrorOrNil()
}

// Render renders a jennifer file and formats it with goimports.
func Render(f *jen.File, path string) ([]byte, error) {
	var buf bytes.Buffer
	if err := f.Render(&buf); err != nil {
		return nil, fmt.Errorf("render %s: %w", path, err)
	}
	formatted, err := imports.Process(path, buf.Bytes(), nil)
	if err != nil {
		return nil, fmt.Errorf("format %s: %w", path, err)
	}
	return formatted, nil
}
