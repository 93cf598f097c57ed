// Package backup keeps a local, best-effort copy of user documents as an
// append-only JSON lines log.
package backup

import (
	"bufio"
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"moodtoon/pkg/utils"
)

const (
	KindCharacter = "character"
	KindDiary     = "diary"
)

type entry struct {
	UserID string          `json:"userId"`
	Kind   string          `json:"kind"`
	At     time.Time       `json:"at"`
	Data   json.RawMessage `json:"data"`
}

// snapshot maps user id, then kind, to the latest document.
type snapshot map[string]map[string]json.RawMessage

// Log appends one line per save and folds the lines on read, so concurrent
// writers never lose each other's updates. Compact rewrites the folded state
// into a snapshot next to the log and empties the log.
type Log struct {
	mu       sync.Mutex
	path     string
	snapPath string
	now      func() time.Time
}

func Open(path string) (*Log, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	return &Log{
		path:     path,
		snapPath: path + ".snapshot.json",
		now:      time.Now,
	}, nil
}

// Append records v as the latest document of kind for userID.
func (l *Log) Append(userID, kind string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return err
	}
	line, err := json.Marshal(entry{UserID: userID, Kind: kind, At: l.now().UTC(), Data: data})
	if err != nil {
		return err
	}

	l.mu.Lock()
	defer l.mu.Unlock()
	f, err := os.OpenFile(l.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := f.Write(append(line, '\n')); err != nil {
		return errors.Join(err, f.Close())
	}
	return f.Close()
}

// Latest decodes the newest document of kind for userID into out. It reports
// false when there is none or it cannot be decoded.
func (l *Log) Latest(userID, kind string, out any) (bool, error) {
	l.mu.Lock()
	snap, err := l.fold()
	l.mu.Unlock()
	if err != nil {
		return false, err
	}
	raw, ok := snap[userID][kind]
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("decoding %s backup for %s: %w", kind, userID, err)
	}
	return true, nil
}

// Compact folds the log into the snapshot file and truncates the log.
func (l *Log) Compact() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	snap, err := l.fold()
	if err != nil {
		return err
	}
	if err := utils.Save(l.snapPath, snap); err != nil {
		return fmt.Errorf("writing backup snapshot: %w", err)
	}
	if err := os.Truncate(l.path, 0); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return err
	}
	return nil
}

// fold must be called with mu held.
func (l *Log) fold() (snapshot, error) {
	snap, err := utils.Load[snapshot](l.snapPath)
	if errors.Is(err, fs.ErrNotExist) {
		err = nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading backup snapshot: %w", err)
	}
	if snap == nil {
		snap = make(snapshot)
	}

	data, err := os.ReadFile(l.path)
	if errors.Is(err, fs.ErrNotExist) {
		return snap, nil
	}
	if err != nil {
		return nil, err
	}

	sc := bufio.NewScanner(bytes.NewReader(data))
	sc.Buffer(make([]byte, 0, 64*1024), 16<<20)
	for sc.Scan() {
		var e entry
		// A torn final line from a crashed writer is skipped.
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil || e.UserID == "" {
			continue
		}
		if snap[e.UserID] == nil {
			snap[e.UserID] = make(map[string]json.RawMessage)
		}
		snap[e.UserID][e.Kind] = e.Data
	}
	return snap, sc.Err()
}
