package backup

import (
	"crypto/sha256"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dshills/histshrink/internal/histfile"
)

var (
	// ErrNotFound is returned when no backup matches an ID.
	ErrNotFound = errors.New("backup not found")
	// ErrAmbiguousID is returned when an ID prefix matches several backups.
	ErrAmbiguousID = errors.New("backup ID prefix is ambiguous")
	// ErrChecksum is returned when a backup's content does not match its checksum.
	ErrChecksum = errors.New("backup checksum mismatch")
)

// Entry is a stored copy of a history file.
type Entry struct {
	ID        string    `json:"id"`
	Path      string    `json:"path"`
	Content   string    `json:"content"`
	Checksum  string    `json:"checksum"`
	CreatedAt time.Time `json:"createdAt"`
}

// Size returns the length of the backed-up content in bytes.
func (e Entry) Size() int {
	return len(e.Content)
}

// Store provides file-based backups of history files.
type Store struct {
	dir           string
	retentionDays int
	enabled       bool
}

// New creates a new Store. If dir is empty, uses the default state directory.
func New(enabled bool, dir string, retentionDays int) (*Store, error) {
	if !enabled {
		return &Store{enabled: false}, nil
	}
	if dir == "" {
		d, err := defaultBackupDir()
		if err != nil {
			return nil, err
		}
		dir = d
	}
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return nil, fmt.Errorf("creating backup directory: %w", err)
	}
	return &Store{
		dir:           dir,
		retentionDays: retentionDays,
		enabled:       true,
	}, nil
}

// Save stores content as a backup of path. Returns a zero Entry when disabled.
func (s *Store) Save(path, content string) (Entry, error) {
	if !s.enabled {
		return Entry{}, nil
	}
	abs, err := filepath.Abs(path)
	if err != nil {
		return Entry{}, fmt.Errorf("resolving backup path: %w", err)
	}
	entry := Entry{
		ID:        uuid.New().String(),
		Path:      abs,
		Content:   content,
		Checksum:  Checksum(content),
		CreatedAt: time.Now().UTC(),
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return Entry{}, fmt.Errorf("marshaling backup entry: %w", err)
	}
	if err := os.WriteFile(s.entryPath(entry.ID), data, 0o600); err != nil {
		return Entry{}, fmt.Errorf("writing backup: %w", err)
	}
	return entry, nil
}

// List returns all backups, newest first. Unreadable entries are skipped.
func (s *Store) List() ([]Entry, error) {
	if !s.enabled || s.dir == "" {
		return nil, nil
	}
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading backup directory: %w", err)
	}
	var entries []Entry
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".json" {
			continue
		}
		entry, err := readEntry(filepath.Join(s.dir, f.Name()))
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	sort.Slice(entries, func(i, j int) bool {
		return entries[i].CreatedAt.After(entries[j].CreatedAt)
	})
	return entries, nil
}

// Get returns the backup with the given ID or unique ID prefix.
func (s *Store) Get(id string) (Entry, error) {
	if !s.enabled {
		return Entry{}, ErrNotFound
	}
	if _, err := uuid.Parse(id); err == nil {
		entry, err := readEntry(s.entryPath(id))
		if errors.Is(err, os.ErrNotExist) {
			return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
		}
		return entry, err
	}

	if id == "" {
		return Entry{}, fmt.Errorf("%w: empty ID", ErrNotFound)
	}
	entries, err := s.List()
	if err != nil {
		return Entry{}, err
	}
	var match []Entry
	for _, e := range entries {
		if strings.HasPrefix(e.ID, id) {
			match = append(match, e)
		}
	}
	switch len(match) {
	case 0:
		return Entry{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	case 1:
		return match[0], nil
	default:
		return Entry{}, fmt.Errorf("%w: %s matches %d backups", ErrAmbiguousID, id, len(match))
	}
}

// Restore writes a backup back to its original path, or to dest when set.
func (s *Store) Restore(id, dest string) (Entry, error) {
	entry, err := s.Get(id)
	if err != nil {
		return Entry{}, err
	}
	if Checksum(entry.Content) != entry.Checksum {
		return Entry{}, fmt.Errorf("%w: %s", ErrChecksum, entry.ID)
	}
	if dest == "" {
		dest = entry.Path
	}
	if err := histfile.WriteAtomic(dest, entry.Content); err != nil {
		return Entry{}, fmt.Errorf("restoring backup %s: %w", entry.ID, err)
	}
	return entry, nil
}

// Prune removes backups older than the retention period. A retention of 0
// keeps everything.
func (s *Store) Prune() (int, error) {
	if !s.enabled || s.retentionDays <= 0 {
		return 0, nil
	}
	entries, err := s.List()
	if err != nil {
		return 0, err
	}
	cutoff := time.Now().Add(-time.Duration(s.retentionDays) * 24 * time.Hour)
	removed := 0
	for _, e := range entries {
		if e.CreatedAt.Before(cutoff) {
			if err := os.Remove(s.entryPath(e.ID)); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Clear removes all backups and returns how many were deleted.
func (s *Store) Clear() (int, error) {
	if !s.enabled || s.dir == "" {
		return 0, nil
	}
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, fmt.Errorf("reading backup directory: %w", err)
	}
	var removed int
	for _, f := range files {
		if filepath.Ext(f.Name()) == ".json" {
			if err := os.Remove(filepath.Join(s.dir, f.Name())); err == nil {
				removed++
			}
		}
	}
	return removed, nil
}

// Stats returns backup statistics.
type Stats struct {
	Dir        string `json:"dir"`
	Entries    int    `json:"entries"`
	TotalBytes int64  `json:"totalBytes"`
	Expired    int    `json:"expired"`
}

// GetStats returns information about the store.
func (s *Store) GetStats() (Stats, error) {
	stats := Stats{Dir: s.dir}
	if !s.enabled || s.dir == "" {
		return stats, nil
	}
	files, err := os.ReadDir(s.dir)
	if err != nil {
		if os.IsNotExist(err) {
			return stats, nil
		}
		return stats, fmt.Errorf("reading backup directory: %w", err)
	}
	cutoff := time.Now().Add(-time.Duration(s.retentionDays) * 24 * time.Hour)
	for _, f := range files {
		if filepath.Ext(f.Name()) != ".json" {
			continue
		}
		info, err := f.Info()
		if err != nil {
			continue
		}
		stats.Entries++
		stats.TotalBytes += info.Size()

		entry, err := readEntry(filepath.Join(s.dir, f.Name()))
		if err != nil {
			continue
		}
		if s.retentionDays > 0 && entry.CreatedAt.Before(cutoff) {
			stats.Expired++
		}
	}
	return stats, nil
}

// Dir returns the backup directory path.
func (s *Store) Dir() string {
	return s.dir
}

// Enabled returns whether backups are enabled.
func (s *Store) Enabled() bool {
	return s.enabled
}

// Checksum returns the SHA-256 of content as hex.
func Checksum(content string) string {
	h := sha256.Sum256([]byte(content))
	return fmt.Sprintf("%x", h)
}

func (s *Store) entryPath(id string) string {
	return filepath.Join(s.dir, id+".json")
}

func readEntry(path string) (Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Entry{}, err
	}
	var entry Entry
	if err := json.Unmarshal(data, &entry); err != nil {
		return Entry{}, fmt.Errorf("decoding backup %s: %w", filepath.Base(path), err)
	}
	return entry, nil
}

func defaultBackupDir() (string, error) {
	if xdg := os.Getenv("XDG_STATE_HOME"); xdg != "" {
		return filepath.Join(xdg, "histshrink", "backups"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("cannot determine home directory: %w", err)
	}
	switch runtime.GOOS {
	case "darwin":
		return filepath.Join(home, "Library", "Application Support", "histshrink", "backups"), nil
	case "windows":
		if localAppData := os.Getenv("LOCALAPPDATA"); localAppData != "" {
			return filepath.Join(localAppData, "histshrink", "backups"), nil
		}
		return filepath.Join(home, "AppData", "Local", "histshrink", "backups"), nil
	default:
		return filepath.Join(home, ".local", "state", "histshrink", "backups"), nil
	}
}
