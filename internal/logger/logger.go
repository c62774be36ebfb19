// Package logger provides structured logging with file rotation support.
package logger

import (
	"io"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"gopkg.in/natefinch/lumberjack.v2"
)

// asyncWriter makes writes to a possibly blocking writer non-blocking
// (e.g. a console stuck in Quick Edit mode). Messages are buffered and
// drained by a background goroutine; when the buffer is full they are
// dropped.
type asyncWriter struct {
	ch     chan []byte
	w      io.Writer
	done   chan struct{}
	once   sync.Once
	mu     sync.RWMutex
	closed bool
}

func newAsyncWriter(w io.Writer, bufSize int) *asyncWriter {
	aw := &asyncWriter{
		ch:   make(chan []byte, bufSize),
		w:    w,
		done: make(chan struct{}),
	}
	go aw.drain()
	return aw
}

func (aw *asyncWriter) Write(p []byte) (int, error) {
	aw.mu.RLock()
	if aw.closed {
		aw.mu.RUnlock()
		return len(p), nil
	}
	cp := make([]byte, len(p))
	copy(cp, p)
	select {
	case aw.ch <- cp:
	default:
		// Drop instead of blocking the caller.
	}
	aw.mu.RUnlock()
	return len(p), nil
}

func (aw *asyncWriter) drain() {
	defer close(aw.done)
	for p := range aw.ch {
		aw.w.Write(p)
	}
}

func (aw *asyncWriter) Close() {
	aw.once.Do(func() {
		aw.mu.Lock()
		aw.closed = true
		aw.mu.Unlock()
		close(aw.ch)
		<-aw.done
	})
}

// Config holds the logger configuration.
type Config struct {
	Level      string `json:"Level"`
	FilePath   string `json:"FilePath"`
	MaxSizeMB  int    `json:"MaxSizeMB"`
	MaxBackups int    `json:"MaxBackups"`
	MaxAgeDays int    `json:"MaxAgeDays"`
	Compress   bool   `json:"Compress"`
	Console    bool   `json:"Console"`
}

// DefaultConfig returns sensible defaults for logging.
func DefaultConfig() Config {
	return Config{
		Level:      "info",
		FilePath:   "log/svckit/svckit.log",
		MaxSizeMB:  10,
		MaxBackups: 5,
		MaxAgeDays: 30,
		Compress:   true,
		Console:    true,
	}
}

var (
	globalLogger     zerolog.Logger
	serviceMode      bool
	prevFileWriter   io.Closer
	prevConsoleAsync *asyncWriter
)

// SetServiceMode suppresses console output for processes running under
// a service manager, where there is no console to write to. Call before
// Init.
func SetServiceMode(enabled bool) {
	serviceMode = enabled
}

// Init initializes the global logger with the given configuration. Safe
// to call again for hot reload; writers from the previous call are
// closed.
func Init(cfg Config) error {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil {
		level = zerolog.InfoLevel
	}

	zerolog.SetGlobalLevel(level)
	zerolog.TimeFieldFormat = time.RFC3339

	if prevFileWriter != nil {
		prevFileWriter.Close()
		prevFileWriter = nil
	}
	if prevConsoleAsync != nil {
		prevConsoleAsync.Close()
		prevConsoleAsync = nil
	}

	var writers []io.Writer

	if cfg.FilePath != "" {
		dir := filepath.Dir(cfg.FilePath)
		if err := os.MkdirAll(dir, 0755); err != nil {
			return err
		}

		fileWriter := &lumberjack.Logger{
			Filename:   cfg.FilePath,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		prevFileWriter = fileWriter
		writers = append(writers, fileWriter)
	}

	if cfg.Console && !serviceMode {
		consoleWriter := zerolog.ConsoleWriter{
			Out:        os.Stdout,
			TimeFormat: time.RFC3339,
		}
		aw := newAsyncWriter(consoleWriter, 1000)
		prevConsoleAsync = aw
		writers = append(writers, aw)
	}

	if len(writers) == 0 {
		writers = append(writers, os.Stdout)
	}

	var output io.Writer
	if len(writers) == 1 {
		output = writers[0]
	} else {
		output = zerolog.MultiLevelWriter(writers...)
	}

	globalLogger = zerolog.New(output).With().Timestamp().Caller().Logger()
	return nil
}

// Logger returns the global logger instance.
func Logger() *zerolog.Logger {
	return &globalLogger
}

// WithComponent returns a logger with a component field attached.
func WithComponent(component string) zerolog.Logger {
	return globalLogger.With().Str("component", component).Logger()
}
