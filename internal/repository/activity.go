package repository

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/templui/ecoscan/internal/model"
	"github.com/templui/ecoscan/internal/observability"
	"github.com/templui/ecoscan/internal/storage"
)

// SchemaVersion is the version written into every activity blob.
// Version 0 is the legacy bare JSON array.
const SchemaVersion = 1

const maxWriteAttempts = 5

var (
	ErrConcurrentWrite    = errors.New("activity log changed concurrently, giving up")
	ErrUnreadableLog      = errors.New("activity log is unreadable")
	ErrUnsupportedVersion = errors.New("activity log has an unsupported schema version")
)

type activityLog struct {
	SchemaVersion int              `json:"schema_version"`
	Activities    []model.Activity `json:"activities"`
}

// ActivityStore keeps each key's activities as one ordered, versioned JSON
// blob in the key/value table. Reads return the whole sequence; appends
// rewrite it.
type ActivityStore struct {
	kv      KVRepository
	archive storage.Storage
	locks   keyedMutex
	now     func() time.Time
}

// NewActivityStore creates a store. archive receives unreadable blobs before
// they are overwritten and may be nil.
func NewActivityStore(kv KVRepository, archive storage.Storage) *ActivityStore {
	return &ActivityStore{
		kv:      kv,
		archive: archive,
		locks:   keyedMutex{locks: map[string]*keyedLock{}},
		now:     time.Now,
	}
}

// All returns the stored activities in insertion order. A missing or
// unreadable log is returned as empty.
func (s *ActivityStore) All(ctx context.Context, key string) ([]model.Activity, error) {
	entry, err := s.kv.Get(ctx, key)
	if errors.Is(err, ErrKeyNotFound) {
		return []model.Activity{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read activity log: %w", err)
	}

	activities, _, err := decodeLog(entry.Value)
	if err != nil {
		slog.Warn("unreadable activity log treated as empty", "key", key, "revision", entry.Revision, "error", err)
		return []model.Activity{}, nil
	}

	return activities, nil
}

// Append adds a to the end of the log stored under key. When a.ID is empty
// or already taken, a unique ID is assigned and written back into a.
func (s *ActivityStore) Append(ctx context.Context, key string, a *model.Activity) error {
	unlock := s.locks.Lock(key)
	defer unlock()

	if a.Timestamp.IsZero() {
		a.Timestamp = s.now()
	}
	quarantined := false

	for attempt := 1; attempt <= maxWriteAttempts; attempt++ {
		var (
			activities []model.Activity
			revision   int64
		)

		entry, err := s.kv.Get(ctx, key)
		switch {
		case errors.Is(err, ErrKeyNotFound):
		case err != nil:
			return fmt.Errorf("read activity log: %w", err)
		default:
			revision = entry.Revision
			activities, _, err = decodeLog(entry.Value)
			if err != nil {
				slog.Warn("overwriting unreadable activity log", "key", key, "revision", revision, "error", err)
				if !quarantined {
					err = s.quarantine(ctx, key, entry.Value)
					if err != nil {
						return err
					}
					quarantined = true
				}
				activities = nil
			}
		}

		record := *a
		if record.ID == "" {
			record.ID = strconv.FormatInt(record.Timestamp.UnixMilli(), 10)
		}
		record.ID = uniqueID(activities, record.ID)

		blob, err := json.Marshal(activityLog{
			SchemaVersion: SchemaVersion,
			Activities:    append(activities, record),
		})
		if err != nil {
			return fmt.Errorf("encode activity log: %w", err)
		}

		_, err = s.kv.Put(ctx, key, string(blob), revision)
		if errors.Is(err, ErrRevisionConflict) {
			slog.Debug("activity log revision conflict, retrying", "key", key, "attempt", attempt)
			continue
		}
		if err != nil {
			return fmt.Errorf("write activity log: %w", err)
		}

		a.ID = record.ID
		return nil
	}

	return ErrConcurrentWrite
}

// quarantine copies an unreadable blob to the archive before it is replaced.
func (s *ActivityStore) quarantine(ctx context.Context, key, raw string) error {
	if s.archive == nil {
		return nil
	}

	path := fmt.Sprintf("quarantine/%s/%d.json", strings.ReplaceAll(key, ":", "/"), s.now().UnixNano())
	err := s.archive.Save(ctx, path, strings.NewReader(raw))
	if err != nil {
		return fmt.Errorf("quarantine unreadable activity log: %w", err)
	}

	observability.RecordLogQuarantined()
	slog.Info("quarantined unreadable activity log", "key", key, "path", path)
	return nil
}

// decodeLog parses a stored blob and reports its schema version.
func decodeLog(raw string) ([]model.Activity, int, error) {
	data := bytes.TrimSpace([]byte(raw))
	if len(data) == 0 {
		return []model.Activity{}, SchemaVersion, nil
	}

	switch data[0] {
	case '[':
		var activities []model.Activity
		err := json.Unmarshal(data, &activities)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnreadableLog, err)
		}
		return nonNil(activities), 0, nil
	case '{':
		var log activityLog
		err := json.Unmarshal(data, &log)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %v", ErrUnreadableLog, err)
		}
		if log.SchemaVersion != SchemaVersion {
			return nil, log.SchemaVersion, fmt.Errorf("%w: %d", ErrUnsupportedVersion, log.SchemaVersion)
		}
		return nonNil(log.Activities), log.SchemaVersion, nil
	default:
		return nil, 0, ErrUnreadableLog
	}
}

func nonNil(activities []model.Activity) []model.Activity {
	if activities == nil {
		return []model.Activity{}
	}
	return activities
}

// uniqueID returns id, or when it is taken, one more than the largest
// numeric ID in the log.
func uniqueID(existing []model.Activity, id string) string {
	taken := make(map[string]bool, len(existing))
	for _, a := range existing {
		taken[a.ID] = true
	}
	if !taken[id] {
		return id
	}

	next, err := strconv.ParseInt(id, 10, 64)
	if err != nil {
		next = 0
	}
	for _, a := range existing {
		n, err := strconv.ParseInt(a.ID, 10, 64)
		if err == nil && n > next {
			next = n
		}
	}

	for {
		next++
		candidate := strconv.FormatInt(next, 10)
		if !taken[candidate] {
			return candidate
		}
	}
}

// keyedMutex serialises writers per key within this process.
type keyedMutex struct {
	mu    sync.Mutex
	locks map[string]*keyedLock
}

type keyedLock struct {
	mu   sync.Mutex
	refs int
}

func (k *keyedMutex) Lock(key string) func() {
	k.mu.Lock()
	l, ok := k.locks[key]
	if !ok {
		l = &keyedLock{}
		k.locks[key] = l
	}
	l.refs++
	k.mu.Unlock()

	l.mu.Lock()

	return func() {
		l.mu.Unlock()

		k.mu.Lock()
		l.refs--
		if l.refs == 0 {
			delete(k.locks, key)
		}
		k.mu.Unlock()
	}
}
