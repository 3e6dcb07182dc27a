package config

import (
	"crypto/sha256"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sync"

	"github.com/fsnotify/fsnotify"
)

// Watcher monitors the root [Config] YAML file for changes and calls a
// callback when the file's content (not just its mtime) actually changes.
// The engagement-trigger rule table ([TriggersConfig.RulesPath]) is a
// separate file with its own schema and gets its own fsnotify watch in
// cmd/salesagent rather than reusing this type.
type Watcher struct {
	path     string
	onChange func(old, new *Config)

	mu       sync.Mutex
	current  *Config
	watcher  *fsnotify.Watcher
	done     chan struct{}
	stopOnce sync.Once

	lastHash [sha256.Size]byte
}

// NewWatcher creates a config file watcher. It loads the initial config
// immediately and starts watching for filesystem events in a background
// goroutine.
func NewWatcher(path string, onChange func(old, new *Config)) (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("config: create fsnotify watcher: %w", err)
	}

	w := &Watcher{
		path:     path,
		onChange: onChange,
		watcher:  fsw,
		done:     make(chan struct{}),
	}

	cfg, hash, err := w.loadAndHash()
	if err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config: watcher initial load: %w", err)
	}
	w.current = cfg
	w.lastHash = hash

	// Watch the containing directory rather than the file itself: editors
	// commonly replace a file via rename-into-place, which orphans a watch
	// held directly on the old inode.
	dir := dirOf(path)
	if err := fsw.Add(dir); err != nil {
		_ = fsw.Close()
		return nil, fmt.Errorf("config: watch %q: %w", dir, err)
	}

	go w.loop()
	return w, nil
}

// Current returns the most recently loaded valid config.
func (w *Watcher) Current() *Config {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.current
}

// Stop stops the file watcher and releases the underlying fsnotify watch.
func (w *Watcher) Stop() {
	w.stopOnce.Do(func() {
		close(w.done)
		_ = w.watcher.Close()
	})
}

// loop runs in a background goroutine, reacting to filesystem events that
// touch the watched path.
func (w *Watcher) loop() {
	for {
		select {
		case <-w.done:
			return
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if ev.Name != w.path {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.check()
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Warn("config watcher: fsnotify error", "err", err)
		}
	}
}

// check re-reads the config file and, if its content hash changed and the
// new content is valid, calls onChange and updates the current config.
func (w *Watcher) check() {
	cfg, hash, err := w.loadAndHash()
	if err != nil {
		slog.Warn("config watcher: failed to load config", "path", w.path, "err", err)
		return
	}

	w.mu.Lock()
	if hash == w.lastHash {
		w.mu.Unlock()
		return
	}
	old := w.current
	w.current = cfg
	w.lastHash = hash
	w.mu.Unlock()

	slog.Info("config watcher: configuration reloaded", "path", w.path)

	if w.onChange != nil {
		w.onChange(old, cfg)
	}
}

// loadAndHash reads the config file, parses + validates it, and returns the
// config alongside the file's SHA-256 hash. If the config is invalid, it
// returns an error and the caller keeps the previous valid config.
func (w *Watcher) loadAndHash() (*Config, [sha256.Size]byte, error) {
	var zeroHash [sha256.Size]byte

	f, err := os.Open(w.path)
	if err != nil {
		return nil, zeroHash, err
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, zeroHash, err
	}

	hash := sha256.Sum256(data)

	cfg, err := LoadFromReader(bytesReader(data))
	if err != nil {
		return nil, zeroHash, err
	}

	return cfg, hash, nil
}

// bytesReaderImpl wraps a byte slice in a minimal io.Reader.
type bytesReaderImpl struct {
	data []byte
	pos  int
}

func bytesReader(b []byte) io.Reader {
	return &bytesReaderImpl{data: b}
}

func (r *bytesReaderImpl) Read(p []byte) (int, error) {
	if r.pos >= len(r.data) {
		return 0, io.EOF
	}
	n := copy(p, r.data[r.pos:])
	r.pos += n
	return n, nil
}

// dirOf returns the directory component of path, defaulting to "." when path
// has no directory component.
func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return "."
}
