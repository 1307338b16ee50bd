package scaffold

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceDelay coalesces editor save bursts into one restart.
const debounceDelay = 400 * time.Millisecond

// watchExtensions are the file types that trigger a restart.
var watchExtensions = map[string]bool{
	".py": true, ".toml": true, ".yaml": true, ".yml": true, ".json": true,
}

// skippedDirs are never watched.
var skippedDirs = map[string]bool{
	".git": true, ".venv": true, "__pycache__": true, ".reachy-mini": true,
	"node_modules": true,
}

// Watcher watches an app workspace and reports change batches.
type Watcher struct {
	fsw  *fsnotify.Watcher
	root string

	// Changes receives one message per debounced batch of edits, naming
	// a representative changed file.
	Changes chan string

	// Errors receives watcher failures.
	Errors chan error
}

// NewWatcher starts watching the app workspace rooted at dir.
// All subdirectories are watched except VCS, venv and cache directories;
// directories created later are added as they appear.
//
// Parameters:
//   - dir: The app workspace root
//
// Returns:
//   - *Watcher: The running watcher
//   - error: An error if the filesystem watch cannot be established
func NewWatcher(dir string) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	w := &Watcher{
		fsw:     fsw,
		root:    dir,
		Changes: make(chan string, 1),
		Errors:  make(chan error, 1),
	}

	if err := w.addRecursive(dir); err != nil {
		fsw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// addRecursive registers dir and its subdirectories with the watcher.
func (w *Watcher) addRecursive(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if !d.IsDir() {
			return nil
		}
		if skippedDirs[d.Name()] {
			return fs.SkipDir
		}
		if err := w.fsw.Add(path); err != nil {
			return fmt.Errorf("failed to watch %s: %w", path, err)
		}
		return nil
	})
}

// loop translates raw filesystem events into debounced change batches.
func (w *Watcher) loop() {
	var (
		timer   *time.Timer
		timerC  <-chan time.Time
		pending string
	)

	for {
		select {
		case event, ok := <-w.fsw.Events:
			if !ok {
				close(w.Changes)
				return
			}

			// New directories join the watch set.
			if event.Op.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if !skippedDirs[filepath.Base(event.Name)] {
						w.addRecursive(event.Name)
					}
					continue
				}
			}

			if !watchExtensions[strings.ToLower(filepath.Ext(event.Name))] {
				continue
			}
			if !event.Op.Has(fsnotify.Write) && !event.Op.Has(fsnotify.Create) &&
				!event.Op.Has(fsnotify.Remove) && !event.Op.Has(fsnotify.Rename) {
				continue
			}

			pending = event.Name
			if timer == nil {
				timer = time.NewTimer(debounceDelay)
				timerC = timer.C
			} else {
				timer.Reset(debounceDelay)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			select {
			case w.Changes <- pending:
			default:
			}

		case err, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
			select {
			case w.Errors <- err:
			default:
			}
		}
	}
}

// Close stops the watcher.
func (w *Watcher) Close() error {
	return w.fsw.Close()
}

// RunFunc launches one run of the app and blocks until it exits or the
// context is canceled.
type RunFunc func(ctx context.Context) error

// DevLoop runs the app and restarts it whenever the workspace changes.
// Returns when the context is canceled. A run that exits on its own is
// not restarted until the next change; its error is reported through
// onEvent.
//
// Parameters:
//   - ctx: Context for cancellation
//   - dir: The app workspace root
//   - run: Launches one app run
//   - onEvent: Receives human-readable loop events (restart notices, run errors)
//
// Returns:
//   - error: An error if the watcher cannot be started
func DevLoop(ctx context.Context, dir string, run RunFunc, onEvent func(string)) error {
	watcher, err := NewWatcher(dir)
	if err != nil {
		return err
	}
	defer watcher.Close()

	if onEvent == nil {
		onEvent = func(string) {}
	}

	for {
		runCtx, cancelRun := context.WithCancel(ctx)
		runDone := make(chan error, 1)
		go func() { runDone <- run(runCtx) }()

		var changed string
		select {
		case <-ctx.Done():
			cancelRun()
			<-runDone
			return nil

		case changed = <-watcher.Changes:
			onEvent(fmt.Sprintf("change detected in %s, restarting", filepath.Base(changed)))
			cancelRun()
			<-runDone

		case err := <-runDone:
			cancelRun()
			if err != nil && ctx.Err() == nil {
				onEvent(fmt.Sprintf("app exited: %v", err))
			}
			// Wait for the next change before relaunching.
			select {
			case <-ctx.Done():
				return nil
			case changed = <-watcher.Changes:
				onEvent(fmt.Sprintf("change detected in %s, restarting", filepath.Base(changed)))
			}

		case werr := <-watcher.Errors:
			cancelRun()
			<-runDone
			return fmt.Errorf("watch failed: %w", werr)
		}
	}
}
