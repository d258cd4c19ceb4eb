package observers

import (
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/shopmindai/profitshare/internal/model"
	"go.uber.org/zap"
)

// flushEvery bounds how many audit lines may sit in the buffer.
const flushEvery = 32

// FileObserver appends events as JSON lines. Lines are buffered and reach
// the file every flushEvery events, on Flush and on Close.
type FileObserver struct {
	mu      sync.Mutex
	path    string
	file    *os.File
	w       *bufio.Writer
	pending int
	log     *zap.Logger
}

func NewFileObserver(path string, log *zap.Logger) (*FileObserver, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create audit dir: %w", err)
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("failed to open audit file: %w", err)
	}

	return &FileObserver{
		path: path,
		file: file,
		w:    bufio.NewWriter(file),
		log:  log,
	}, nil
}

func (f *FileObserver) OnSignedRequest(event model.SignedRequestEvent) {
	line, err := json.Marshal(event)
	if err != nil {
		f.log.Error("error marshaling audit event", zap.Error(err))
		return
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return
	}

	if _, err := f.w.Write(append(line, '\n')); err != nil {
		f.log.Error("error writing audit event", zap.String("path", f.path), zap.Error(err))
		return
	}

	f.pending++
	if f.pending >= flushEvery {
		if err := f.flushLocked(); err != nil {
			f.log.Error("error flushing audit file", zap.String("path", f.path), zap.Error(err))
		}
	}
}

// Flush pushes buffered lines to the file.
func (f *FileObserver) Flush() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}
	return f.flushLocked()
}

func (f *FileObserver) flushLocked() error {
	f.pending = 0
	return f.w.Flush()
}

// Close flushes, syncs and closes the file. Events published afterwards are
// dropped.
func (f *FileObserver) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.file == nil {
		return nil
	}

	err := errors.Join(f.flushLocked(), f.file.Sync(), f.file.Close())
	f.file = nil
	if err != nil {
		return fmt.Errorf("close audit file %s: %w", f.path, err)
	}

	f.log.Info("file observer closed", zap.String("path", f.path))
	return nil
}
