// Package watcher monitors an inbox directory and feeds newly settled
// files into the processing pipeline.
package watcher

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/custodia-labs/archivist-cli/internal/core/domain"
	"github.com/custodia-labs/archivist-cli/internal/core/ports/driving"
	"github.com/custodia-labs/archivist-cli/internal/logger"
)

// Defaults for the stability wait: a file is processed once its size
// has been read identical and non-zero this many times in a row.
const (
	defaultPollInterval   = 500 * time.Millisecond
	defaultStableReadings = 3
	defaultStableTimeout  = 10 * time.Second
	queueCapacity         = 256
)

// tempSuffixes mark files still being written by other programs.
var tempSuffixes = []string{".tmp", ".crdownload", ".part", ".partial", ".download"}

// tempPrefixes mark editor lock and autosave files.
var tempPrefixes = []string{"~$", ".~lock."}

// Config tunes the watcher.
type Config struct {
	// Dir is the inbox directory to monitor.
	Dir string

	// Extensions are the lowercase dotted extensions worth processing.
	Extensions []string

	// PollInterval is the stability-wait sampling interval.
	PollInterval time.Duration

	// StableReadings is how many identical consecutive size readings
	// count as settled.
	StableReadings int

	// StableTimeout bounds the stability wait per file.
	StableTimeout time.Duration

	// Process holds the per-file pipeline options.
	Process driving.ProcessOptions
}

// Watcher monitors one directory. Events fan into a bounded queue and
// a single worker drains it, so files are processed strictly one at a
// time in arrival order.
type Watcher struct {
	cfg      Config
	pipeline driving.PipelineService
	exts     map[string]struct{}
}

// New creates a watcher for cfg.Dir. Zero durations and counts take
// the package defaults.
func New(pipeline driving.PipelineService, cfg Config) *Watcher {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = defaultPollInterval
	}
	if cfg.StableReadings <= 0 {
		cfg.StableReadings = defaultStableReadings
	}
	if cfg.StableTimeout <= 0 {
		cfg.StableTimeout = defaultStableTimeout
	}

	exts := make(map[string]struct{}, len(cfg.Extensions))
	for _, ext := range cfg.Extensions {
		exts[strings.ToLower(ext)] = struct{}{}
	}

	return &Watcher{cfg: cfg, pipeline: pipeline, exts: exts}
}

// Run watches until the context is cancelled. Files already in the
// directory at startup are queued first, so a backlog is not lost.
func (w *Watcher) Run(ctx context.Context) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating filesystem watcher: %w", err)
	}
	defer fsw.Close()

	if err := fsw.Add(w.cfg.Dir); err != nil {
		return fmt.Errorf("watching %s: %w", w.cfg.Dir, err)
	}
	logger.Info("watching %s", w.cfg.Dir)

	queue := make(chan string, queueCapacity)
	var mu sync.Mutex
	queued := make(map[string]struct{})

	enqueue := func(path string) {
		mu.Lock()
		defer mu.Unlock()
		if _, dup := queued[path]; dup {
			return
		}
		select {
		case queue <- path:
			queued[path] = struct{}{}
		default:
			logger.Warn("event queue full, dropping %s", path)
		}
	}

	if err := w.scanExisting(enqueue); err != nil {
		return err
	}

	// The worker drains the queue on its own goroutine; event intake
	// never waits on a stability wait or a pipeline run.
	ctx, cancel := context.WithCancel(ctx)
	workerDone := make(chan struct{})
	go func() {
		defer close(workerDone)
		for {
			select {
			case <-ctx.Done():
				return
			case path := <-queue:
				mu.Lock()
				delete(queued, path)
				mu.Unlock()
				w.handle(ctx, path)
			}
		}
	}()
	defer func() {
		cancel()
		<-workerDone
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fsw.Events:
			if !ok {
				return domain.ErrWatcherClosed
			}
			if !event.Op.Has(fsnotify.Create) && !event.Op.Has(fsnotify.Write) {
				continue
			}
			if w.shouldProcess(event.Name) {
				enqueue(event.Name)
			}

		case err, ok := <-fsw.Errors:
			if !ok {
				return domain.ErrWatcherClosed
			}
			logger.Warn("watch error: %v", err)
		}
	}
}

// scanExisting queues files already sitting in the inbox.
func (w *Watcher) scanExisting(enqueue func(string)) error {
	entries, err := os.ReadDir(w.cfg.Dir)
	if err != nil {
		return fmt.Errorf("reading %s: %w", w.cfg.Dir, err)
	}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		path := filepath.Join(w.cfg.Dir, entry.Name())
		if w.shouldProcess(path) {
			enqueue(path)
		}
	}
	return nil
}

// shouldProcess filters out directories, hidden files, temp files and
// unsupported extensions.
func (w *Watcher) shouldProcess(path string) bool {
	name := filepath.Base(path)

	if strings.HasPrefix(name, ".") {
		return false
	}
	for _, prefix := range tempPrefixes {
		if strings.HasPrefix(name, prefix) {
			return false
		}
	}
	lower := strings.ToLower(name)
	for _, suffix := range tempSuffixes {
		if strings.HasSuffix(lower, suffix) {
			return false
		}
	}

	if len(w.exts) > 0 {
		if _, ok := w.exts[strings.ToLower(filepath.Ext(name))]; !ok {
			return false
		}
	}

	info, err := os.Stat(path)
	if err != nil || info.IsDir() {
		return false
	}
	return true
}

// handle runs one file through the pipeline, never letting a failure
// take the watch loop down.
func (w *Watcher) handle(ctx context.Context, path string) {
	defer func() {
		if r := recover(); r != nil {
			logger.Warn("panic while processing %s: %v", path, r)
		}
	}()

	if err := w.waitStable(ctx, path); err != nil {
		logger.Warn("skipping %s: %v", path, err)
		return
	}

	rec, err := w.pipeline.ProcessFile(ctx, path, w.cfg.Process)
	if err != nil {
		logger.Warn("processing %s failed: %v", path, err)
		return
	}
	logger.Info("%s: decision=%s status=%s", filepath.Base(path), rec.Decision, rec.ExecutionStatus)
}

// waitStable blocks until the file size is non-zero and unchanged for
// the configured number of consecutive readings. Files still growing
// at the timeout are skipped, not processed half-written.
func (w *Watcher) waitStable(ctx context.Context, path string) error {
	deadline := time.Now().Add(w.cfg.StableTimeout)
	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	var lastSize int64 = -1
	stable := 0
	for {
		info, err := os.Stat(path)
		if err != nil {
			return fmt.Errorf("stat during stability wait: %w", err)
		}

		if size := info.Size(); size > 0 && size == lastSize {
			stable++
			if stable >= w.cfg.StableReadings-1 {
				return nil
			}
		} else {
			stable = 0
			lastSize = size
		}

		if time.Now().After(deadline) {
			return fmt.Errorf("file still changing after %s", w.cfg.StableTimeout)
		}

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}
