package config

import (
	"path/filepath"
	"sync"

	"github.com/fsnotify/fsnotify"

	"svckit/internal/logger"
)

// FileWatcher monitors a single file and invokes a callback when it is
// modified. The parent directory is watched so editors that replace the
// file are seen too.
type FileWatcher struct {
	path     string
	watcher  *fsnotify.Watcher
	onChange func()

	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
}

// NewFileWatcher creates a watcher that calls onChange when path is
// written or recreated.
func NewFileWatcher(path string, onChange func()) (*FileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	return &FileWatcher{
		path:     path,
		watcher:  w,
		onChange: onChange,
		stopChan: make(chan struct{}),
	}, nil
}

// Start begins watching for file changes.
func (fw *FileWatcher) Start() error {
	fw.mu.Lock()
	if fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = true
	fw.mu.Unlock()

	if err := fw.watcher.Add(filepath.Dir(fw.path)); err != nil {
		return err
	}

	log := logger.WithComponent("file-watcher")
	log.Info().
		Str("path", fw.path).
		Msg("Started watching file")

	go fw.watch()
	return nil
}

// Stop stops watching for changes.
func (fw *FileWatcher) Stop() error {
	fw.mu.Lock()
	if !fw.running {
		fw.mu.Unlock()
		return nil
	}
	fw.running = false
	fw.mu.Unlock()

	close(fw.stopChan)
	return fw.watcher.Close()
}

func (fw *FileWatcher) watch() {
	log := logger.WithComponent("file-watcher")
	filename := filepath.Base(fw.path)

	for {
		select {
		case event, ok := <-fw.watcher.Events:
			if !ok {
				return
			}
			if filepath.Base(event.Name) != filename {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create) != 0 {
				log.Debug().Str("op", event.Op.String()).Msg("Config file changed")
				fw.onChange()
			}

		case err, ok := <-fw.watcher.Errors:
			if !ok {
				return
			}
			log.Error().Err(err).Msg("File watcher error")

		case <-fw.stopChan:
			return
		}
	}
}

// NewLoggingWatcher watches the config file and delivers the reloaded
// logging section. Reload failures keep the previous configuration.
func NewLoggingWatcher(path string, apply func(*logger.Config)) (*FileWatcher, error) {
	return NewFileWatcher(path, func() {
		log := logger.WithComponent("config")
		cfg, err := Load(path)
		if err != nil {
			log.Error().Err(err).Msg("Failed to reload configuration, keeping previous")
			return
		}
		apply(&cfg.Logging)
	})
}
