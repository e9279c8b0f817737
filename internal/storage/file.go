package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"trainerbook/internal/domain"

	"go.uber.org/zap"
)

// fileFingerprint identifies one on-disk revision of the schedule file.
// A cached snapshot is valid only while the fingerprint is unchanged.
type fileFingerprint struct {
	modTime time.Time
	size    int64
}

// fileStore implements ScheduleStore on a single JSON document on disk.
//
// Writes go to a temporary file in the same directory followed by an
// os.Rename, so a crash mid-write never leaves a half-written document.
// A mutex serializes all writers in this process, and the version check
// under that mutex turns the write path into a real compare-and-swap.
// Writers in other processes are still only guarded by the version field,
// which narrows but does not close the cross-process race window.
type fileStore struct {
	path     string
	defaults domain.Settings
	logger   *zap.Logger

	mu          sync.Mutex
	cacheMu     sync.RWMutex
	cached      *domain.Schedule
	fingerprint fileFingerprint
}

// NewFileStore creates a store over the JSON document at path. The file
// does not need to exist yet; the first Load returns a default schedule
// built from the given settings.
func NewFileStore(path string, defaults domain.Settings, logger *zap.Logger) ScheduleStore {
	return &fileStore{path: path, defaults: defaults, logger: logger}
}

func (f *fileStore) Load(ctx context.Context) (domain.Schedule, error) {
	info, err := os.Stat(f.path)
	if errors.Is(err, os.ErrNotExist) {
		return domain.NewSchedule(f.defaults), nil
	}
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: stat %s: %v", ErrUnavailable, f.path, err)
	}

	current := fileFingerprint{modTime: info.ModTime(), size: info.Size()}

	f.cacheMu.RLock()
	if f.cached != nil && f.fingerprint == current {
		snapshot := f.cached.Clone()
		f.cacheMu.RUnlock()
		return snapshot, nil
	}
	f.cacheMu.RUnlock()

	schedule, err := f.readFile()
	if err != nil {
		return domain.Schedule{}, err
	}

	f.cacheMu.Lock()
	cached := schedule.Clone()
	f.cached = &cached
	f.fingerprint = current
	f.cacheMu.Unlock()

	return schedule, nil
}

func (f *fileStore) CompareAndSwap(ctx context.Context, expectedVersion int64, next domain.Schedule) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	// Re-read the authoritative file under the write lock; the cache is
	// never trusted on the write path.
	current := domain.NewSchedule(f.defaults)
	if _, err := os.Stat(f.path); err == nil {
		loaded, err := f.readFile()
		if err != nil {
			return err
		}
		current = loaded
	} else if !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("%w: stat %s: %v", ErrUnavailable, f.path, err)
	}

	if current.Version != expectedVersion {
		return fmt.Errorf("%w: have version %d, expected %d", ErrVersionConflict, current.Version, expectedVersion)
	}

	next.Version = expectedVersion + 1
	if err := f.writeFile(next); err != nil {
		return err
	}

	// Bust the read cache so the next Load observes the new state.
	f.cacheMu.Lock()
	f.cached = nil
	f.cacheMu.Unlock()

	f.logger.Debug("schedule persisted",
		zap.Int64("version", next.Version),
		zap.Int("bookings", len(next.Bookings)),
		zap.Int("blocked", len(next.Blocked)))
	return nil
}

func (f *fileStore) readFile() (domain.Schedule, error) {
	data, err := os.ReadFile(f.path)
	if err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: read %s: %v", ErrUnavailable, f.path, err)
	}
	schedule := domain.NewSchedule(f.defaults)
	if err := json.Unmarshal(data, &schedule); err != nil {
		return domain.Schedule{}, fmt.Errorf("%w: decode %s: %v", ErrUnavailable, f.path, err)
	}
	if schedule.Bookings == nil {
		schedule.Bookings = []domain.Booking{}
	}
	if schedule.Blocked == nil {
		schedule.Blocked = []string{}
	}
	return schedule, nil
}

func (f *fileStore) writeFile(schedule domain.Schedule) error {
	data, err := json.MarshalIndent(schedule, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: encode schedule: %v", ErrUnavailable, err)
	}

	dir := filepath.Dir(f.path)
	tmp, err := os.CreateTemp(dir, filepath.Base(f.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("%w: create temp file in %s: %v", ErrUnavailable, dir, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: write %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: close %s: %v", ErrUnavailable, tmpName, err)
	}
	if err := os.Rename(tmpName, f.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: replace %s: %v", ErrUnavailable, f.path, err)
	}
	return nil
}
