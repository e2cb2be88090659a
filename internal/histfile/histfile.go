package histfile

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
)

// ErrNoHistoryFile is returned when no candidate path can be resolved.
var ErrNoHistoryFile = errors.New("no history file: set --input, history.file or $HISTFILE")

// ResolvePath picks the history file: the first non-empty of flag and
// configured, then $HISTFILE, then ~/.bash_history. A leading "~/" is expanded.
func ResolvePath(flag, configured string) (string, error) {
	for _, p := range []string{flag, configured, os.Getenv("HISTFILE")} {
		if p != "" {
			return expandHome(p)
		}
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", ErrNoHistoryFile
	}
	return filepath.Join(home, ".bash_history"), nil
}

func expandHome(p string) (string, error) {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("expanding %s: %w", p, err)
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~")), nil
}

// Read returns the content of the history file.
func Read(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("reading history file: %w", err)
	}
	return string(data), nil
}

// WriteAtomic replaces path with content. The data is written to a temporary
// file in the same directory, synced and renamed over the destination, so
// readers see either the old or the new file. An existing file keeps its
// permissions; a new file is created 0600. Symlinks are followed so the link
// itself survives.
func WriteAtomic(path, content string) error {
	target := path
	if resolved, err := filepath.EvalSymlinks(path); err == nil {
		target = resolved
	} else if !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("resolving %s: %w", path, err)
	}

	mode := fs.FileMode(0o600)
	if info, err := os.Stat(target); err == nil {
		mode = info.Mode().Perm()
	}

	tmp, err := os.CreateTemp(filepath.Dir(target), "."+filepath.Base(target)+".*.tmp")
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()
	cleanup := func() {
		tmp.Close()
		os.Remove(tmpPath)
	}

	if _, err := tmp.WriteString(content); err != nil {
		cleanup()
		return fmt.Errorf("writing temp file: %w", err)
	}
	if err := tmp.Chmod(mode); err != nil {
		cleanup()
		return fmt.Errorf("setting permissions: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		cleanup()
		return fmt.Errorf("syncing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, target); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("replacing %s: %w", target, err)
	}
	return nil
}
