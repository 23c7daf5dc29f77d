package source

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/bft-labs/batchship/internal/domain"
	"github.com/bft-labs/batchship/internal/ports"
	"github.com/bft-labs/batchship/pkg/log"
)

// Follower emits lines appended to a file, like tail -F.
type Follower struct {
	path   string
	logger ports.Logger

	file    *os.File
	reader  *bufio.Reader
	offset  int64
	partial strings.Builder
}

// NewFollower creates a follower for path.
func NewFollower(path string, logger ports.Logger) *Follower {
	if logger == nil {
		logger = log.NewNoopLogger()
	}
	return &Follower{path: path, logger: logger}
}

// Run emits the existing content of the file, then every line appended to
// it, until ctx is cancelled. A truncated or recreated file is read again
// from the start.
func (f *Follower) Run(ctx context.Context, emit Emit) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer watcher.Close()

	// Watch the directory so renames and recreation are seen.
	dir := filepath.Dir(f.path)
	if err := watcher.Add(dir); err != nil {
		return fmt.Errorf("watch %s: %w", dir, err)
	}

	if err := f.open(); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	defer f.closeFile()

	if err := f.readAvailable(emit); err != nil {
		return err
	}

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != filepath.Clean(f.path) {
				continue
			}
			switch {
			case event.Op&(fsnotify.Remove|fsnotify.Rename) != 0:
				f.logger.Info("followed file moved away", log.String("path", f.path))
				f.closeFile()
			case event.Op&fsnotify.Create != 0:
				f.closeFile()
				if err := f.open(); err != nil {
					f.logger.Warn("reopen failed", log.String("path", f.path), log.Err(err))
					continue
				}
				fallthrough
			case event.Op&fsnotify.Write != 0:
				if err := f.readAvailable(emit); err != nil {
					return err
				}
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			f.logger.Warn("watcher error", log.Err(err))
		}
	}
}

func (f *Follower) open() error {
	file, err := os.Open(f.path)
	if err != nil {
		return fmt.Errorf("open %s: %w", f.path, err)
	}
	f.file = file
	f.reader = bufio.NewReader(file)
	f.offset = 0
	f.partial.Reset()
	return nil
}

func (f *Follower) closeFile() {
	if f.file != nil {
		f.file.Close()
		f.file = nil
		f.reader = nil
	}
}

// readAvailable emits every complete line currently readable. A trailing
// line without newline is kept until the rest of it arrives.
func (f *Follower) readAvailable(emit Emit) error {
	if f.file == nil {
		if err := f.open(); err != nil {
			return nil
		}
	}

	if info, err := f.file.Stat(); err == nil && info.Size() < f.offset {
		f.logger.Info("followed file truncated", log.String("path", f.path))
		if _, err := f.file.Seek(0, io.SeekStart); err != nil {
			return fmt.Errorf("seek %s: %w", f.path, err)
		}
		f.reader.Reset(f.file)
		f.offset = 0
		f.partial.Reset()
	}

	for {
		chunk, err := f.reader.ReadString('\n')
		f.offset += int64(len(chunk))
		if err != nil {
			if errors.Is(err, io.EOF) {
				f.partial.WriteString(chunk)
				return nil
			}
			return fmt.Errorf("read %s: %w", f.path, err)
		}

		line := strings.TrimRight(f.partial.String()+chunk, "\r\n")
		f.partial.Reset()
		emit(domain.NewRecord(f.path, line))
	}
}
