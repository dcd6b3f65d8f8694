package observation

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"

	"github.com/objectscan/objectscan-go/internal/errors"
)

// Writer appends detection records to a newline-delimited JSON file. Each
// record is marshaled and written as a single line in one Write call, then
// synced, so a crash never leaves a partial record interleaved with another.
type Writer struct {
	mu   sync.Mutex
	file *os.File
	path string
}

// OpenWriter opens (or creates) the detections file for appending.
func OpenWriter(path string) (*Writer, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, errors.New(err).
				Component("observation").
				Category(errors.CategoryFileIO).
				Context("path", path).
				Build()
		}
	}

	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, errors.New(err).
			Component("observation").
			Category(errors.CategoryFileIO).
			Context("path", path).
			Build()
	}

	return &Writer{file: file, path: path}, nil
}

// Append serializes the record and appends it as one line, flushed to disk
// before returning.
func (w *Writer) Append(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return errors.New(err).
			Component("observation").
			Category(errors.CategoryFileIO).
			Context("image", rec.ImagePath).
			Build()
	}
	data = append(data, '\n')

	w.mu.Lock()
	defer w.mu.Unlock()

	if _, err := w.file.Write(data); err != nil {
		return errors.New(err).
			Component("observation").
			Category(errors.CategoryFileIO).
			Context("path", w.path).
			Build()
	}
	if err := w.file.Sync(); err != nil {
		return errors.New(err).
			Component("observation").
			Category(errors.CategoryFileIO).
			Context("path", w.path).
			Build()
	}
	return nil
}

// Close closes the underlying detections file.
func (w *Writer) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.file.Close()
}
