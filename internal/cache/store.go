// Package cache persists parsed records as one JSON file per key with a
// timestamp, so callers can decide whether the data is still fresh.
package cache

import (
	"EasyDockerDeploy/internal/logger"
	"context"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/docker/go-units"
	"github.com/gofrs/flock"
	"lukechampine.com/blake3"
)

const (
	recordExt = ".json"
	lockExt   = ".lock"
	maxKeyLen = 64
)

// Error reports a failed write or removal. Read failures never produce one.
type Error struct {
	Op  string
	Key string
	Err error
}

func (e *Error) Error() string {
	if e.Key == "" {
		return fmt.Sprintf("cache %s: %v", e.Op, e.Err)
	}
	return fmt.Sprintf("cache %s %q: %v", e.Op, e.Key, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// Entry is a loaded record.
type Entry[T any] struct {
	Timestamp    time.Time
	Applications []T
}

// record is the on-disk shape. Pointers detect missing fields.
type record[T any] struct {
	Timestamp    *float64 `json:"timestamp"`
	Applications *[]T     `json:"applications"`
}

// Store keeps records of T under a root directory.
type Store[T any] struct {
	root string
	now  func() time.Time
}

// Option configures a Store.
type Option func(*options)

type options struct {
	now func() time.Time
}

// WithClock replaces time.Now, mostly for tests.
func WithClock(now func() time.Time) Option {
	return func(o *options) {
		o.now = now
	}
}

// New creates a store rooted at dir. The directory is created on first Save.
func New[T any](dir string, opts ...Option) *Store[T] {
	o := options{now: time.Now}
	for _, opt := range opts {
		opt(&o)
	}
	return &Store[T]{root: dir, now: o.now}
}

// Root returns the directory holding the records.
func (s *Store[T]) Root() string {
	return s.root
}

// Path returns the file a key is stored in.
func (s *Store[T]) Path(key string) string {
	sum := blake3.Sum256([]byte(key))
	return filepath.Join(s.root, sanitizeKey(key)+"-"+hex.EncodeToString(sum[:8])+recordExt)
}

func sanitizeKey(key string) string {
	var b strings.Builder
	for _, r := range key {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-', r == '_', r == '.':
			b.WriteRune(r)
		default:
			b.WriteByte('_')
		}
		if b.Len() >= maxKeyLen {
			break
		}
	}
	if b.Len() == 0 {
		return "cache"
	}
	return b.String()
}

// Load returns the record for key, or nil when it is missing, unreadable or
// malformed. A nil result is an ordinary cache miss.
func (s *Store[T]) Load(key string) *Entry[T] {
	path := s.Path(key)
	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, os.ErrNotExist) {
			logger.Debug(context.Background(), "Cache read of {{_File_}}%s{{|-|}} failed: %v", path, err)
		}
		return nil
	}

	var rec record[T]
	if err := json.Unmarshal(data, &rec); err != nil {
		logger.Debug(context.Background(), "Cache file {{_File_}}%s{{|-|}} is corrupt: %v", path, err)
		return nil
	}
	if rec.Timestamp == nil || rec.Applications == nil || math.IsNaN(*rec.Timestamp) || math.IsInf(*rec.Timestamp, 0) {
		logger.Debug(context.Background(), "Cache file {{_File_}}%s{{|-|}} is missing fields", path)
		return nil
	}

	return &Entry[T]{
		Timestamp:    fromSeconds(*rec.Timestamp),
		Applications: *rec.Applications,
	}
}

// Save writes items for key, replacing any previous record. The file is
// written to a temporary name and renamed into place under a file lock.
func (s *Store[T]) Save(key string, items []T) error {
	if items == nil {
		items = []T{}
	}
	ts := toSeconds(s.now())
	data, err := json.Marshal(record[T]{Timestamp: &ts, Applications: &items})
	if err != nil {
		return &Error{Op: "encode", Key: key, Err: err}
	}

	if err := os.MkdirAll(s.root, 0755); err != nil {
		return &Error{Op: "save", Key: key, Err: err}
	}

	path := s.Path(key)
	lock := flock.New(path + lockExt)
	if err := lock.Lock(); err != nil {
		return &Error{Op: "lock", Key: key, Err: err}
	}
	defer func() { _ = lock.Unlock() }()

	tmp, err := os.CreateTemp(s.root, "."+filepath.Base(path)+".*.tmp")
	if err != nil {
		return &Error{Op: "save", Key: key, Err: err}
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return &Error{Op: "save", Key: key, Err: err}
	}
	if err := tmp.Sync(); err != nil {
		_ = tmp.Close()
		return &Error{Op: "save", Key: key, Err: err}
	}
	if err := tmp.Close(); err != nil {
		return &Error{Op: "save", Key: key, Err: err}
	}
	if err := os.Rename(tmpName, path); err != nil {
		return &Error{Op: "save", Key: key, Err: err}
	}
	return nil
}

// IsValid reports whether entry is younger than ttl. An entry exactly ttl old
// is expired.
func (s *Store[T]) IsValid(entry *Entry[T], ttl time.Duration) bool {
	if entry == nil {
		return false
	}
	return s.now().Sub(entry.Timestamp) < ttl
}

// Clear removes the records for the given keys, or every record under the
// root when no key is given. Missing records are not an error.
func (s *Store[T]) Clear(keys ...string) error {
	if len(keys) == 0 {
		return s.clearAll()
	}
	for _, key := range keys {
		path := s.Path(key)
		for _, p := range []string{path, path + lockExt} {
			if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
				return &Error{Op: "clear", Key: key, Err: err}
			}
		}
	}
	return nil
}

func (s *Store[T]) clearAll() error {
	entries, err := os.ReadDir(s.root)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return &Error{Op: "clear", Err: err}
	}
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !(strings.HasSuffix(name, recordExt) || strings.HasSuffix(name, lockExt) || strings.HasSuffix(name, ".tmp")) {
			continue
		}
		if err := os.Remove(filepath.Join(s.root, name)); err != nil && !errors.Is(err, os.ErrNotExist) {
			return &Error{Op: "clear", Err: err}
		}
	}
	return nil
}

// Status describes the record stored for a key.
type Status struct {
	Key       string
	Path      string
	Exists    bool
	Size      int64
	Timestamp time.Time
	Age       time.Duration
	Count     int
}

// Stat reports on the record for key without treating problems as errors:
// a missing or unreadable record has Exists false.
func (s *Store[T]) Stat(key string) Status {
	st := Status{Key: key, Path: s.Path(key)}
	info, err := os.Stat(st.Path)
	if err != nil {
		return st
	}
	entry := s.Load(key)
	if entry == nil {
		return st
	}
	st.Exists = true
	st.Size = info.Size()
	st.Timestamp = entry.Timestamp
	st.Age = s.now().Sub(entry.Timestamp)
	st.Count = len(entry.Applications)
	return st
}

// Describe renders the status for humans, e.g. "1234 entries, 2.1MB, 5 minutes old".
func (st Status) Describe() string {
	if !st.Exists {
		return "not cached"
	}
	return fmt.Sprintf("%d entries, %s, %s old", st.Count, units.HumanSize(float64(st.Size)), units.HumanDuration(st.Age))
}

func toSeconds(t time.Time) float64 {
	return float64(t.Unix()) + float64(t.Nanosecond())/float64(time.Second)
}

func fromSeconds(sec float64) time.Time {
	return time.UnixMicro(int64(math.Round(sec * 1e6)))
}
