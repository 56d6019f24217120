package main

import (
	"io"
	"os"
	"path/filepath"
	"sync"
)

// Log files are cut back to their newest keepLogBytes once they pass
// maxLogBytes.
const (
	maxLogBytes  = 6 << 20
	keepLogBytes = 5 << 20
)

// truncatingWriter appends to a log file and drops its oldest bytes when the
// file outgrows its cap.
type truncatingWriter struct {
	mu   sync.Mutex
	file *os.File
	max  int64
	keep int64
}

func newLogFileWriter(path string) (*truncatingWriter, *os.File, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, nil, err
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, nil, err
	}
	w := &truncatingWriter{file: file, max: maxLogBytes, keep: keepLogBytes}
	if err := w.trim(); err != nil {
		file.Close()
		return nil, nil, err
	}
	return w, file, nil
}

func (w *truncatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.trim()
}

// trim keeps the newest keep bytes once the file is larger than max.
func (w *truncatingWriter) trim() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= w.max {
		return nil
	}

	tail := make([]byte, w.keep)
	n, err := w.file.ReadAt(tail, size-w.keep)
	if err != nil && err != io.EOF {
		return err
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end of file.
	_, err = w.file.Write(tail[:n])
	return err
}
