// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package sysconf

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/gofrs/flock"
)

// DefaultLockDir holds the lock files guarding edits of system files.
const DefaultLockDir = "/run/lock/pvewarden"

// FileLock serialises edits of one file across pvewarden processes
// (cron runs overlapping an interactive setup, two installers).
type FileLock struct {
	path  string
	flock *flock.Flock
}

// NewFileLock returns the lock for target. The lock file lives in dir and is
// named after the target path.
func NewFileLock(dir, target string) *FileLock {
	if dir == "" {
		dir = DefaultLockDir
	}
	name := strings.ReplaceAll(strings.Trim(filepath.Clean(target), "/"), "/", "_") + ".lock"
	lockPath := filepath.Join(dir, name)
	return &FileLock{
		path:  lockPath,
		flock: flock.New(lockPath),
	}
}

// Lock blocks until the lock is held.
func (l *FileLock) Lock() error {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return fmt.Errorf("failed to create lock directory: %w", err)
	}
	if err := l.flock.Lock(); err != nil {
		return fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	return nil
}

// TryLock returns false when another process holds the lock.
func (l *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(l.path), 0755); err != nil {
		return false, fmt.Errorf("failed to create lock directory: %w", err)
	}
	acquired, err := l.flock.TryLock()
	if err != nil {
		return false, fmt.Errorf("failed to acquire lock %s: %w", l.path, err)
	}
	return acquired, nil
}

// Unlock is safe to call on a lock that is not held.
func (l *FileLock) Unlock() error {
	if !l.flock.Locked() {
		return nil
	}
	if err := l.flock.Unlock(); err != nil {
		return fmt.Errorf("failed to release lock %s: %w", l.path, err)
	}
	return nil
}

func (l *FileLock) Path() string {
	return l.path
}
