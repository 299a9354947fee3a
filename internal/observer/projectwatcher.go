package observer

import (
	"context"
	"log"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ChangeCallback is called with the project files that changed under dir
type ChangeCallback func(dir string, changedFiles []string)

// ProjectWatcher monitors directories for changes to project files
type ProjectWatcher struct {
	watcher  *fsnotify.Watcher
	callback ChangeCallback
	debounce time.Duration
	match    func(path string) bool

	// Track watched directories
	dirs map[string]struct{}

	// Debounce state - track by directory
	pendingByDir map[string]map[string]struct{}
	timer        *time.Timer
	mu           sync.Mutex
	stopped      bool
	flushing     sync.WaitGroup

	cancel context.CancelFunc
	done   chan struct{}
}

// NewProjectWatcher creates a watcher that reports changed markdown files
func NewProjectWatcher(callback ChangeCallback) (*ProjectWatcher, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &ProjectWatcher{
		watcher:      watcher,
		callback:     callback,
		debounce:     500 * time.Millisecond, // Debounce rapid changes
		match:        func(path string) bool { return strings.HasSuffix(path, ".md") },
		dirs:         make(map[string]struct{}),
		pendingByDir: make(map[string]map[string]struct{}),
		done:         make(chan struct{}),
	}, nil
}

// AddDir starts watching dir and all its subdirectories
func (pw *ProjectWatcher) AddDir(dir string) error {
	dir = filepath.Clean(dir)

	pw.mu.Lock()
	defer pw.mu.Unlock()

	if _, exists := pw.dirs[dir]; exists {
		return nil // Already watching
	}

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if path != dir && strings.HasPrefix(info.Name(), ".") {
				return filepath.SkipDir
			}
			return pw.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return err
	}

	pw.dirs[dir] = struct{}{}
	return nil
}

// RemoveDir stops watching dir
func (pw *ProjectWatcher) RemoveDir(dir string) {
	dir = filepath.Clean(dir)

	pw.mu.Lock()
	defer pw.mu.Unlock()

	if _, exists := pw.dirs[dir]; !exists {
		return
	}

	// Remove all watches under this directory
	for _, path := range pw.watcher.WatchList() {
		if path == dir || strings.HasPrefix(path, dir+string(filepath.Separator)) {
			pw.watcher.Remove(path)
		}
	}

	delete(pw.dirs, dir)
	delete(pw.pendingByDir, dir)
}

// SetFilter replaces the default ".md" filter
func (pw *ProjectWatcher) SetFilter(match func(path string) bool) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.match = match
}

// SetDebounce sets the debounce duration for batching file changes
func (pw *ProjectWatcher) SetDebounce(d time.Duration) {
	pw.mu.Lock()
	defer pw.mu.Unlock()
	pw.debounce = d
}

// Start begins watching for file changes
func (pw *ProjectWatcher) Start(ctx context.Context) {
	ctx, pw.cancel = context.WithCancel(ctx)

	go func() {
		defer close(pw.done)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-pw.watcher.Events:
				if !ok {
					return
				}
				pw.handleEvent(event)
			case err, ok := <-pw.watcher.Errors:
				if !ok {
					return
				}
				log.Printf("watch error: %v", err)
			}
		}
	}()
}

// Stop stops watching and drops pending changes. It waits for a callback
// that is already running, so callers may release what the callback uses
// once Stop returns.
func (pw *ProjectWatcher) Stop() {
	if pw.cancel != nil {
		pw.cancel()
		<-pw.done
	}
	pw.mu.Lock()
	pw.stopped = true
	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.mu.Unlock()
	pw.flushing.Wait()
	pw.watcher.Close()
}

func (pw *ProjectWatcher) handleEvent(event fsnotify.Event) {
	// New subdirectories need their own watch
	if event.Op&fsnotify.Create != 0 {
		if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
			pw.mu.Lock()
			if pw.findDir(event.Name) != "" {
				pw.watcher.Add(event.Name)
			}
			pw.mu.Unlock()
			return
		}
	}

	// Only care about writes, creates and renames into place
	if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return
	}

	pw.mu.Lock()
	defer pw.mu.Unlock()

	if !pw.match(event.Name) {
		return
	}

	dir := pw.findDir(event.Name)
	if dir == "" {
		return // Not in a watched directory
	}

	if pw.pendingByDir[dir] == nil {
		pw.pendingByDir[dir] = make(map[string]struct{})
	}
	pw.pendingByDir[dir][event.Name] = struct{}{}

	// Reset or start debounce timer
	if pw.timer != nil {
		pw.timer.Stop()
	}
	pw.timer = time.AfterFunc(pw.debounce, pw.flush)
}

// findDir returns the watched directory that contains the given path
func (pw *ProjectWatcher) findDir(path string) string {
	best := ""
	for dir := range pw.dirs {
		if strings.HasPrefix(path, dir+string(filepath.Separator)) && len(dir) > len(best) {
			best = dir
		}
	}
	return best
}

func (pw *ProjectWatcher) flush() {
	pw.mu.Lock()
	if pw.stopped {
		pw.mu.Unlock()
		return
	}
	// Copy pending state and clear
	pending := pw.pendingByDir
	pw.pendingByDir = make(map[string]map[string]struct{})
	pw.flushing.Add(1)
	pw.mu.Unlock()
	defer pw.flushing.Done()

	if pw.callback == nil {
		return
	}

	// Call callback for each directory with changes
	for dir, fileMap := range pending {
		files := make([]string, 0, len(fileMap))
		for f := range fileMap {
			// renamed away or removed before the debounce fired
			if info, err := os.Stat(f); err != nil || info.IsDir() {
				continue
			}
			files = append(files, f)
		}
		sort.Strings(files)
		if len(files) > 0 {
			pw.callback(dir, files)
		}
	}
}
