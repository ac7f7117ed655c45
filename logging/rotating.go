package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"
)

// RotatingWriter writes to one file per ISO week (app-2026-W42.log) and
// starts a numbered file (app-2026-W42_01.log) when the size cap is hit.
// Files older than the retention period are removed by Cleanup.
type RotatingWriter struct {
	dir         string
	retention   time.Duration
	maxFileSize int64

	mu    sync.Mutex
	file  *os.File
	week  string
	seq   int
	size  int64
	clock func() time.Time
}

// NewRotatingWriter creates the log directory and opens the current file
func NewRotatingWriter(dir string, retentionWeeks int, maxFileSize int64) (*RotatingWriter, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create log directory %s: %w", dir, err)
	}

	w := &RotatingWriter{
		dir:         dir,
		retention:   time.Duration(retentionWeeks) * 7 * 24 * time.Hour,
		maxFileSize: maxFileSize,
		clock:       time.Now,
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.open(weekKey(w.clock())); err != nil {
		return nil, err
	}
	return w, nil
}

func weekKey(t time.Time) string {
	year, week := t.ISOWeek()
	return fmt.Sprintf("%d-W%02d", year, week)
}

func (w *RotatingWriter) fileName(week string, seq int) string {
	if seq == 0 {
		return filepath.Join(w.dir, fmt.Sprintf("app-%s.log", week))
	}
	return filepath.Join(w.dir, fmt.Sprintf("app-%s_%02d.log", week, seq))
}

// open picks the first file of week that still has room (caller holds mu)
func (w *RotatingWriter) open(week string) error {
	if w.week != week {
		w.seq = 0
	}

	for {
		path := w.fileName(week, w.seq)
		info, err := os.Stat(path)
		if err != nil || w.maxFileSize <= 0 || info.Size() < w.maxFileSize {
			break
		}
		w.seq++
	}

	return w.openSeq(week, w.seq)
}

func (w *RotatingWriter) openSeq(week string, seq int) error {
	if w.file != nil {
		_ = w.file.Close()
		w.file = nil
	}

	path := w.fileName(week, seq)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0640)
	if err != nil {
		return fmt.Errorf("failed to open log file %s: %w", path, err)
	}

	var size int64
	if info, err := f.Stat(); err == nil {
		size = info.Size()
	}

	w.file, w.week, w.seq, w.size = f, week, seq, size
	return nil
}

// Write implements io.Writer
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	week := weekKey(w.clock())
	switch {
	case week != w.week:
		if err := w.open(week); err != nil {
			return 0, err
		}
	case w.maxFileSize > 0 && w.size > 0 && w.size+int64(len(p)) > w.maxFileSize:
		if err := w.openSeq(week, w.seq+1); err != nil {
			return 0, err
		}
	}

	if w.file == nil {
		return 0, fmt.Errorf("no log file available")
	}

	n, err := w.file.Write(p)
	w.size += int64(n)
	return n, err
}

// Cleanup removes log files last modified before the retention period
func (w *RotatingWriter) Cleanup() (int, error) {
	entries, err := os.ReadDir(w.dir)
	if err != nil {
		return 0, fmt.Errorf("failed to read log directory: %w", err)
	}

	cutoff := w.clock().Add(-w.retention)
	removed := 0

	w.mu.Lock()
	current := ""
	if w.file != nil {
		current = filepath.Base(w.file.Name())
	}
	w.mu.Unlock()

	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || name == current || !strings.HasPrefix(name, "app-") || !strings.HasSuffix(name, ".log") {
			continue
		}
		info, err := entry.Info()
		if err != nil || !info.ModTime().Before(cutoff) {
			continue
		}
		if err := os.Remove(filepath.Join(w.dir, name)); err == nil {
			removed++
		}
	}

	return removed, nil
}

// Close closes the current file
func (w *RotatingWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
