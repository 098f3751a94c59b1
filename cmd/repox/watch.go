package main

import (
	"context"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"

	"github.com/syssam/repox/compiler/gen"
)

// watch generates, then generates again each time a Go file of a package
// holding repository interfaces changes, until ctx is done.
func (r *runner) watch(ctx context.Context) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	var watched []string
	generate := func() {
		rep, err := r.run(ctx)
		if err != nil {
			r.out.Error(err)
		}
		if rep == nil {
			return
		}
		for _, dir := range rep.Dirs {
			if slices.Contains(watched, dir) {
				continue
			}
			if err := w.Add(dir); err != nil {
				r.log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
				continue
			}
			watched = append(watched, dir)
			r.log.Debug("watching", zap.String("dir", dir))
		}
	}
	generate()

	debounce := r.cfg.Watch.Debounce
	timer := time.NewTimer(debounce)
	timer.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if relevant(ev) {
				r.log.Debug("change", zap.String("file", ev.Name), zap.Stringer("op", ev.Op))
				timer.Reset(debounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			r.log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			generate()
		}
	}
}

// relevant reports whether ev may change the generated output. Changes
// to generated files are ignored, so writing them does not trigger
// another run.
func relevant(ev fsnotify.Event) bool {
	name := filepath.Base(ev.Name)
	if !strings.HasSuffix(name, ".go") || strings.HasSuffix(name, "_test.go") {
		return false
	}
	if strings.HasSuffix(name, gen.FileName("")) {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
