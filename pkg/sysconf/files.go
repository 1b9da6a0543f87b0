// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package sysconf edits the system configuration touched by the setup
// commands: config files with timestamped backups, key/value files, apt
// packages and systemd units.
package sysconf

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"

	"github.com/google/renameio"
	"github.com/rs/zerolog/log"
)

const (
	DefaultKeep     = 5
	backupTimestamp = "20060102-150405"
)

// Writer replaces config files. The previous content of a changed file is
// kept as <path>.bak.<timestamp>; only the Keep newest backups survive.
type Writer struct {
	Keep    int // 0 means DefaultKeep, negative disables backups
	LockDir string
	DryRun  bool
	Now     func() time.Time
}

func (w Writer) now() time.Time {
	if w.Now != nil {
		return w.Now()
	}
	return time.Now()
}

func (w Writer) keep() int {
	if w.Keep == 0 {
		return DefaultKeep
	}
	return w.Keep
}

// WriteFile atomically replaces path with data. It reports whether the file
// changed; identical content is left alone and no backup is taken.
func (w Writer) WriteFile(path string, data []byte, perm os.FileMode) (bool, error) {
	lock := NewFileLock(w.LockDir, path)
	if !w.DryRun {
		if err := lock.Lock(); err != nil {
			return false, err
		}
		defer lock.Unlock()
	}

	old, err := os.ReadFile(path)
	exists := err == nil
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return false, fmt.Errorf("reading %s: %w", path, err)
	}
	if exists && bytes.Equal(old, data) {
		log.Debug().Str("path", path).Msg("config unchanged")
		return false, nil
	}

	if w.DryRun {
		log.Info().Str("path", path).Int("bytes", len(data)).Msg("dry-run: would write config")
		return true, nil
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return false, fmt.Errorf("creating directory for %s: %w", path, err)
	}

	if exists && w.keep() > 0 {
		backup, err := w.backup(path, old)
		if err != nil {
			return false, err
		}
		log.Info().Str("path", path).Str("backup", backup).Msg("backed up config")
		if err := PruneBackups(path, w.keep()); err != nil {
			log.Warn().Err(err).Str("path", path).Msg("failed to prune old backups")
		}
	}

	if err := renameio.WriteFile(path, data, perm); err != nil {
		return false, fmt.Errorf("writing %s: %w", path, err)
	}
	// renameio honours the umask
	if err := os.Chmod(path, perm); err != nil {
		return false, fmt.Errorf("chmod %s: %w", path, err)
	}

	log.Info().Str("path", path).Msg("wrote config")
	return true, nil
}

func (w Writer) backup(path string, content []byte) (string, error) {
	mode := os.FileMode(0644)
	if info, err := os.Stat(path); err == nil {
		mode = info.Mode().Perm()
	}

	base := fmt.Sprintf("%s.bak.%s", path, w.now().Format(backupTimestamp))
	backup := base
	for i := 1; ; i++ {
		if _, err := os.Stat(backup); errors.Is(err, os.ErrNotExist) {
			break
		}
		backup = fmt.Sprintf("%s-%d", base, i)
	}

	if err := os.WriteFile(backup, content, mode); err != nil {
		return "", fmt.Errorf("backing up %s: %w", path, err)
	}
	return backup, nil
}

// Backups lists the backups of path, oldest first.
func Backups(path string) ([]string, error) {
	matches, err := filepath.Glob(path + ".bak.*")
	if err != nil {
		return nil, err
	}
	sort.Strings(matches)
	return matches, nil
}

// PruneBackups removes all but the keep newest backups of path.
func PruneBackups(path string, keep int) error {
	backups, err := Backups(path)
	if err != nil {
		return err
	}
	if len(backups) <= keep {
		return nil
	}

	var errs []error
	for _, b := range backups[:len(backups)-keep] {
		if err := os.Remove(b); err != nil {
			errs = append(errs, err)
			continue
		}
		log.Debug().Str("backup", b).Msg("removed old backup")
	}
	return errors.Join(errs...)
}
