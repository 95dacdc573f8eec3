package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"
)

// RotatingWriter is a minimal size-based daily rotation writer in the
// lumberjack shape: an io.Writer that swaps the underlying file once it
// crosses maxSizeMB, and prunes files older than retentionDays on each
// rotation. It exists because the spec's logging interface (spec.md §6)
// names rotation-by-size and retention-by-days as first-class knobs but
// the teacher never writes logs to a file, only to stdout.
type RotatingWriter struct {
	mu            sync.Mutex
	dir           string
	service       string
	maxSizeBytes  int64
	retentionDays int

	file    *os.File
	written int64
	day     string
}

// NewRotatingWriter constructs a rotation writer rooted at dir.
func NewRotatingWriter(dir, service string, maxSizeMB, retentionDays int) *RotatingWriter {
	if maxSizeMB <= 0 {
		maxSizeMB = 100
	}
	if retentionDays <= 0 {
		retentionDays = 7
	}
	return &RotatingWriter{
		dir:           dir,
		service:       service,
		maxSizeBytes:  int64(maxSizeMB) * 1024 * 1024,
		retentionDays: retentionDays,
	}
}

func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	today := time.Now().UTC().Format("2006-01-02")
	if w.file == nil || w.day != today || w.written+int64(len(p)) > w.maxSizeBytes {
		if err := w.rotate(today); err != nil {
			return 0, err
		}
	}

	n, err := w.file.Write(p)
	w.written += int64(n)
	return n, err
}

func (w *RotatingWriter) rotate(today string) error {
	if w.file != nil {
		w.file.Close()
	}
	if err := os.MkdirAll(w.dir, 0o755); err != nil {
		return err
	}

	seq := 0
	var path string
	for {
		name := fmt.Sprintf("%s-%s", w.service, today)
		if seq > 0 {
			name = fmt.Sprintf("%s.%d", name, seq)
		}
		path = filepath.Join(w.dir, name+".log")
		if _, err := os.Stat(path); os.IsNotExist(err) {
			break
		}
		seq++
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return err
	}

	info, _ := f.Stat()
	w.file = f
	w.day = today
	if info != nil {
		w.written = info.Size()
	} else {
		w.written = 0
	}

	w.prune()
	return nil
}

// prune deletes log files older than retentionDays. Errors are ignored:
// a failed cleanup sweep must never take the logger down.
func (w *RotatingWriter) prune() {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return
	}

	cutoff := time.Now().AddDate(0, 0, -w.retentionDays)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	for _, name := range names {
		info, err := os.Stat(filepath.Join(w.dir, name))
		if err != nil {
			continue
		}
		if info.ModTime().Before(cutoff) {
			os.Remove(filepath.Join(w.dir, name))
		}
	}
}
