package main

import (
	"context"
	"fmt"
	"log/slog"
	"maps"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

func (c *cli) watch(ctx context.Context, args []string) error {
	fs := c.flagSet("watch", "<file>...")
	strict := fs.Bool("strict", false, "Report inconsistent files as failures")
	interval := fs.Duration("interval", 500*time.Millisecond, "Minimum delay between two checks")
	opts := decodeFlags(fs)
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() == 0 {
		fs.Usage()
		return errUsage
	}
	for _, path := range fs.Args() {
		c.checkFile(path, *opts, *strict)
	}
	return watchFiles(ctx, fs.Args(), *interval, func(path string) {
		c.checkFile(path, *opts, *strict)
	})
}

// watchFiles calls onChange with the path of every file modified, until ctx
// is canceled.
//
// The parent directories are watched rather than the files so that editors
// replacing a file through a rename are followed. Changes arriving within
// interval of each other are coalesced into one call per file.
func watchFiles(ctx context.Context, paths []string, interval time.Duration, onChange func(path string)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = w.Close() }()

	// Absolute path of each watched file to the path as given.
	targets := make(map[string]string, len(paths))
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		targets[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for _, dir := range slices.Sorted(maps.Keys(dirs)) {
		if err := w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}
	slog.InfoContext(ctx, "Watching", "files", len(targets), "dirs", len(dirs))

	limiter := rate.NewLimiter(rate.Every(interval), 1)
	pending := make(map[string]bool)
	// collect records event when it modifies a watched file.
	collect := func(event fsnotify.Event) {
		if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
			return
		}
		if p, ok := targets[filepath.Clean(event.Name)]; ok {
			pending[p] = true
		}
	}
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case event, ok := <-w.Events:
			if !ok {
				return nil
			}
			collect(event)
			if len(pending) == 0 {
				continue
			}
			if err := limiter.Wait(ctx); err != nil {
				return err
			}
			// Fold in what arrived while waiting.
		drain:
			for {
				select {
				case event, ok := <-w.Events:
					if !ok {
						break drain
					}
					collect(event)
				default:
					break drain
				}
			}
			for _, p := range slices.Sorted(maps.Keys(pending)) {
				slog.DebugContext(ctx, "File changed", "path", p)
				onChange(p)
			}
			clear(pending)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.WarnContext(ctx, "Error watching files", "err", err)
		}
	}
}
