// Package compiler runs the repox code generator end to end: it loads the
// repository interfaces of a set of packages, generates their
// implementations, renders them, and writes or verifies the output tree.
package compiler

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"

	"go.uber.org/zap"

	"github.com/syssam/repox/compiler/gen"
	"github.com/syssam/repox/compiler/gen/session"
	"github.com/syssam/repox/compiler/load"
)

// Report is the outcome of a generation run.
type Report struct {
	// Results holds one entry per loaded interface, in load order.
	Results []*gen.Result
	// Files holds the rendered output tree.
	Files *gen.Files
	// Dirs lists the package directories holding repository interfaces.
	Dirs []string
}

// Err joins the interface errors and method diagnostics of the run.
func (r *Report) Err() error {
	var errs []error
	for _, res := range r.Results {
		if res.Err != nil {
			errs = append(errs, res.Err)
		}
		if err := res.Diagnostics.Err(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Generate loads the packages matching patterns and generates the
// implementation of every repository interface they declare. Problems of
// single interfaces or methods are reported in the Report; the returned
// error is reserved for failures of the run itself.
func Generate(ctx context.Context, lc *load.Config, gc *gen.Config, patterns ...string) (*Report, error) {
	if lc == nil {
		lc = &load.Config{}
	}
	if gc == nil {
		gc = gen.DefaultConfig()
	}
	ifaces, err := lc.Load(ctx, patterns...)
	if err != nil {
		return nil, err
	}
	results, err := gen.Generate(ctx, gc, ifaces)
	if err != nil {
		return nil, err
	}
	files, err := Emit(gc, results)
	if err != nil {
		return nil, err
	}
	r := &Report{Results: results, Files: files}
	for _, iface := range ifaces {
		if iface.Dir != "" && !slices.Contains(r.Dirs, iface.Dir) {
			r.Dirs = append(r.Dirs, iface.Dir)
		}
	}
	return r, nil
}

// Emit renders the implementations of results into files. Interfaces with
// an error or a diagnostic get no file, as their implementation would not
// satisfy the interface. An interface that fails to render gets the
// failure as its Result error; the others are still rendered.
func Emit(cfg *gen.Config, results []*gen.Result) (*gen.Files, error) {
	if cfg == nil {
		cfg = gen.DefaultConfig()
	}
	log := cfg.Logger
	if log == nil {
		log = zap.NewNop()
	}
	var emitter gen.Emitter = session.New(cfg)
	if cfg.Emitter != nil {
		emitter = cfg.Emitter
	}
	var (
		files = &gen.Files{}
		byDir = make(map[string][]*gen.Implementation)
		dirs  []string
	)
	for _, res := range results {
		if !res.OK() {
			log.Info("skipping interface", zap.String("interface", res.Interface), zap.Int("diagnostics", len(res.Diagnostics)))
			continue
		}
		impl := res.Impl
		path := filepath.Join(impl.Dir, gen.FileName(impl.Interface))
		data, err := render(emitter, impl, path)
		if err != nil {
			log.Warn("interface not rendered", zap.String("interface", res.Interface), zap.Error(err))
			res.Err = err
			continue
		}
		if err := files.Add(gen.File{Path: path, Data: data, Owner: impl.Interface}); err != nil {
			return nil, err
		}
		if cfg.HasFeature(gen.FeatureDescriptor.Name) {
			data, err := impl.MarshalBinary()
			if err != nil {
				return nil, gen.NewGenerationError(impl.Interface, "", fmt.Errorf("encode descriptor: %w", err))
			}
			desc := filepath.Join(impl.Dir, gen.DescriptorFile(impl.Interface))
			if err := files.Add(gen.File{Path: desc, Data: data, Owner: impl.Interface}); err != nil {
				return nil, err
			}
		}
		if _, ok := byDir[impl.Dir]; !ok {
			dirs = append(dirs, impl.Dir)
		}
		byDir[impl.Dir] = append(byDir[impl.Dir], impl)
	}
	if cfg.HasFeature(gen.FeatureReflectConfig.Name) {
		for _, dir := range dirs {
			data, err := gen.ReflectConfig(byDir[dir]...)
			if err != nil {
				return nil, gen.NewGenerationError("", gen.ReflectConfigFile, err)
			}
			owner := gen.FeatureReflectConfig.Name
			if err := files.Add(gen.File{Path: filepath.Join(dir, gen.ReflectConfigFile), Data: data, Owner: owner}); err != nil {
				return nil, err
			}
		}
	}
	return files, nil
}

// render emits impl and formats it as the file at path.
func render(emitter gen.Emitter, impl *gen.Implementation, path string) ([]byte, error) {
	f, err := emitter.Emit(impl)
	if err != nil {
		if gen.IsGenerationError(err) {
			return nil, err
		}
		return nil, gen.NewGenerationError(impl.Interface, path, err)
	}
	data, err := gen.Render(f, path)
	if err != nil {
		return nil, gen.NewGenerationError(impl.Interface, path, err)
	}
	return data, nil
}

// Write writes the files of r and removes the output of disabled
// features from every package directory of the run.
func Write(ctx context.Context, cfg *gen.Config, r *Report) error {
	if cfg == nil {
		cfg = gen.DefaultConfig()
	}
	if err := r.Files.Write(ctx, max(cfg.Workers, 1)); err != nil {
		return err
	}
	for _, f := range gen.AllFeatures {
		if cfg.HasFeature(f.Name) {
			continue
		}
		for _, dir := range r.Dirs {
			if err := f.Cleanup(dir); err != nil {
				return fmt.Errorf("cleanup %s in %s: %w", f.Name, dir, err)
			}
		}
	}
	return nil
}

// Verify reports an error if writing r would change the tree.
func Verify(ctx context.Context, cfg *gen.Config, r *Report) error {
	if cfg == nil {
		cfg = gen.DefaultConfig()
	}
	return r.Files.Verify(ctx, max(cfg.Workers, 1))
}
