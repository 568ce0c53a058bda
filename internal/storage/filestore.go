package storage

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/klauspost/compress/gzip"

	"github.com/viper-logs/viperlog/internal/event"
	"github.com/viper-logs/viperlog/pkg/config"
	pkgerrors "github.com/viper-logs/viperlog/pkg/errors"
)

const (
	activeName    = "current.log"
	archiveSuffix = ".log.gz"
	archivePrefix = "viperlog-"
)

// FileStore is the default Store: JSON lines in a directory, one active
// file rotated by size into gzip archives, archives expired by age.
type FileStore struct {
	dir       string
	rotateAt  int64
	retention time.Duration
	onEvict   func(event.ID)

	// mu orders writes (append, rotate, sweep, close) against readers:
	// Each and Replay hold the read side across their whole file scan, so a
	// rotation can never move an event out from under an in-flight read.
	mu      sync.RWMutex
	current *os.File
	size    int64
	seq     int

	logger *slog.Logger
}

// FileStoreOption configures a FileStore.
type FileStoreOption func(*FileStore)

// WithEvictionHandler registers a callback invoked once per event removed by
// the retention sweep, after its archive file is deleted.
func WithEvictionHandler(fn func(event.ID)) FileStoreOption {
	return func(fs *FileStore) { fs.onEvict = fn }
}

// NewFileStore opens (creating if needed) a store rooted at cfg.Dir.
func NewFileStore(cfg config.StorageConfig, opts ...FileStoreOption) (*FileStore, error) {
	if err := os.MkdirAll(cfg.Dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating log directory: %w", err)
	}
	fs := &FileStore{
		dir:       cfg.Dir,
		rotateAt:  cfg.RotationSize,
		retention: cfg.RetentionAge,
		logger:    slog.Default().With("component", "file-store"),
	}
	for _, opt := range opts {
		opt(fs)
	}
	if err := fs.openCurrent(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) openCurrent() error {
	path := filepath.Join(fs.dir, activeName)
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return fmt.Errorf("opening active log file: %w", err)
	}
	info, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat active log file: %w", err)
	}
	fs.current = f
	fs.size = info.Size()
	return nil
}

// Append writes the event as one JSON line, rotating first when the active
// file is full.
func (fs *FileStore) Append(ctx context.Context, ev *event.LogEvent) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("encoding event %s: %w", ev.ID, err)
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.current == nil {
		return pkgerrors.ErrClosed
	}
	if fs.size > 0 && fs.size+int64(len(data))+1 > fs.rotateAt {
		if err := fs.rotateLocked(); err != nil {
			return err
		}
	}
	n, err := fs.current.Write(append(data, '\n'))
	fs.size += int64(n)
	if err != nil {
		return fmt.Errorf("writing event %s: %w", ev.ID, err)
	}
	return nil
}

// rotateLocked compresses the active file into a timestamped archive and
// starts a fresh one.
func (fs *FileStore) rotateLocked() error {
	if err := fs.current.Close(); err != nil {
		return fmt.Errorf("closing active log file: %w", err)
	}
	fs.seq++
	archive := filepath.Join(fs.dir, fmt.Sprintf("%s%d-%04d%s",
		archivePrefix, time.Now().UnixMilli(), fs.seq, archiveSuffix))
	src := filepath.Join(fs.dir, activeName)
	if err := compressFile(src, archive); err != nil {
		return fmt.Errorf("archiving %s: %w", src, err)
	}
	if err := os.Remove(src); err != nil {
		return fmt.Errorf("removing rotated file: %w", err)
	}
	fs.logger.Info("log file rotated", "archive", filepath.Base(archive), "bytes", fs.size)
	return fs.openCurrent()
}

func compressFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	gz := gzip.NewWriter(out)
	if _, err := io.Copy(gz, in); err != nil {
		out.Close()
		return err
	}
	if err := gz.Close(); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}

// Get scans the store for the event with the given id.
func (fs *FileStore) Get(ctx context.Context, id event.ID) (*event.LogEvent, error) {
	var found *event.LogEvent
	err := fs.Each(ctx, func(ev *event.LogEvent) error {
		if ev.ID == id {
			found = ev
			return errStopIteration
		}
		return nil
	})
	if err != nil && err != errStopIteration {
		return nil, err
	}
	if found == nil {
		return nil, fmt.Errorf("event %s: %w", id, pkgerrors.ErrEventNotFound)
	}
	return found, nil
}

var errStopIteration = fmt.Errorf("stop iteration")

// Each visits every stored event, archives first in rotation order, then
// the active file. Malformed lines are skipped, not fatal. The read lock is
// held for the whole scan, so fn must not call Append, Sweep, or Close.
func (fs *FileStore) Each(ctx context.Context, fn func(ev *event.LogEvent) error) error {
	fs.mu.RLock()
	defer fs.mu.RUnlock()
	for _, path := range fs.listFiles() {
		if err := ctx.Err(); err != nil {
			return err
		}
		events, err := decodeFile(path, fs.logger)
		if err != nil {
			return err
		}
		for _, ev := range events {
			if err := fn(ev); err != nil {
				return err
			}
		}
	}
	return nil
}

// listFiles returns archives sorted by name (their timestamps make that
// rotation order) followed by the active file. Callers hold mu in either
// mode.
func (fs *FileStore) listFiles() []string {
	entries, err := os.ReadDir(fs.dir)
	if err != nil {
		fs.logger.Error("reading log directory", "error", err)
		return nil
	}
	archives := make([]string, 0, len(entries))
	for _, entry := range entries {
		if !entry.IsDir() && strings.HasSuffix(entry.Name(), archiveSuffix) {
			archives = append(archives, filepath.Join(fs.dir, entry.Name()))
		}
	}
	sort.Strings(archives)
	active := filepath.Join(fs.dir, activeName)
	if _, err := os.Stat(active); err == nil {
		archives = append(archives, active)
	}
	return archives
}

func decodeFile(path string, logger *slog.Logger) ([]*event.LogEvent, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	if strings.HasSuffix(path, ".gz") {
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("opening archive %s: %w", path, err)
		}
		defer gz.Close()
		r = gz
	}

	var events []*event.LogEvent
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 4<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		ev := &event.LogEvent{}
		if err := json.Unmarshal(line, ev); err != nil {
			logger.Warn("skipping malformed log line", "file", filepath.Base(path), "error", err)
			continue
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scanning %s: %w", path, err)
	}
	return events, nil
}

// Sweep deletes archives older than the retention age and reports each
// contained event to the eviction handler. Returns the number of evicted
// events.
func (fs *FileStore) Sweep(ctx context.Context) (int, error) {
	if fs.retention <= 0 {
		return 0, nil
	}
	fs.mu.Lock()
	defer fs.mu.Unlock()
	cutoff := time.Now().Add(-fs.retention)
	evicted := 0
	for _, path := range fs.listFiles() {
		if filepath.Base(path) == activeName {
			continue
		}
		info, err := os.Stat(path)
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		if err := ctx.Err(); err != nil {
			return evicted, err
		}
		events, err := decodeFile(path, fs.logger)
		if err != nil {
			fs.logger.Error("reading expired archive", "file", filepath.Base(path), "error", err)
			continue
		}
		if err := os.Remove(path); err != nil {
			return evicted, fmt.Errorf("removing expired archive: %w", err)
		}
		for _, ev := range events {
			if fs.onEvict != nil {
				fs.onEvict(ev.ID)
			}
			evicted++
		}
		fs.logger.Info("expired archive removed", "file", filepath.Base(path), "events", len(events))
	}
	return evicted, nil
}

// StartSweepLoop runs Sweep on the given interval until ctx is cancelled.
func (fs *FileStore) StartSweepLoop(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				if _, err := fs.Sweep(ctx); err != nil {
					fs.logger.Error("retention sweep failed", "error", err)
				}
			}
		}
	}()
}

// Close flushes and closes the active file.
func (fs *FileStore) Close() error {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	if fs.current == nil {
		return nil
	}
	err := fs.current.Close()
	fs.current = nil
	return err
}
