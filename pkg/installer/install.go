// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package installer puts the pvewarden binary in place and schedules its
// checks in cron.
package installer

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/renameio"
	"github.com/rs/zerolog/log"
)

const (
	DefaultBinDir = "/usr/bin"
	DefaultName   = "pvewarden"
)

// InstallBinary copies src to dir/name with mode 0755. An identical binary
// already in place is left alone.
func InstallBinary(src, dir, name string, dryRun bool) (string, bool, error) {
	if dir == "" {
		dir = DefaultBinDir
	}
	if name == "" {
		name = DefaultName
	}
	dst := filepath.Join(dir, name)

	data, err := os.ReadFile(src)
	if err != nil {
		return dst, false, fmt.Errorf("reading %s: %w", src, err)
	}

	if current, err := os.ReadFile(dst); err == nil && bytes.Equal(current, data) {
		if dryRun {
			return dst, false, nil
		}
		return dst, false, os.Chmod(dst, 0755)
	}

	if dryRun {
		log.Info().Str("src", src).Str("dst", dst).Msg("dry-run: would install binary")
		return dst, true, nil
	}

	if err := os.MkdirAll(dir, 0755); err != nil {
		return dst, false, err
	}
	// atomic so a running cron job never sees a half written binary
	if err := renameio.WriteFile(dst, data, 0755); err != nil {
		return dst, false, fmt.Errorf("installing %s: %w", dst, err)
	}
	if err := os.Chmod(dst, 0755); err != nil {
		return dst, false, err
	}

	log.Info().Str("dst", dst).Msg("installed binary")
	return dst, true, nil
}

// Options describe the scheduled checks.
type Options struct {
	Binary         string // absolute path of the installed binary
	Dest           []string
	PercentUsed    float64
	BackupDataset  string
	BackupRemote   string
	ConfigFile     string // schedule `run --config` instead of single checks
	ZFSSchedule    string
	SmartSchedule  string
	BackupSchedule string
	StatusSchedule string
}

func (o *Options) applyDefaults() {
	if o.ZFSSchedule == "" {
		o.ZFSSchedule = "0 * * * *"
	}
	if o.SmartSchedule == "" {
		o.SmartSchedule = "30 6 * * *"
	}
	if o.BackupSchedule == "" {
		o.BackupSchedule = "0 7 * * *"
	}
	if o.StatusSchedule == "" {
		o.StatusSchedule = "0 8 * * 1"
	}
}

func (o Options) command(args ...string) string {
	parts := append([]string{o.Binary}, args...)
	for _, d := range o.Dest {
		parts = append(parts, "--dest", d)
	}
	return strings.Join(parts, " ")
}

// DefaultEntries is the schedule installed by `pvewarden install`.
func DefaultEntries(o Options) []Entry {
	o.applyDefaults()

	if o.ConfigFile != "" {
		return []Entry{
			{Schedule: o.ZFSSchedule, Command: o.Binary + " run --config " + o.ConfigFile},
			{Schedule: "@reboot", Command: o.Binary + " notify boot --config " + o.ConfigFile},
		}
	}

	zfs := []string{"check", "zfs"}
	if o.PercentUsed > 0 {
		zfs = append(zfs, "--percent-used", fmt.Sprintf("%g", o.PercentUsed))
	}
	backups := []string{"check", "backups"}
	if o.BackupDataset != "" {
		backups = append(backups, "--dataset", o.BackupDataset)
	}
	if o.BackupRemote != "" {
		backups = append(backups, "--remote", o.BackupRemote)
	}

	return []Entry{
		{Schedule: o.ZFSSchedule, Command: o.command(zfs...)},
		{Schedule: o.SmartSchedule, Command: o.command("check", "smart")},
		{Schedule: o.BackupSchedule, Command: o.command(backups...)},
		{Schedule: "@reboot", Command: o.command("notify", "boot")},
		{Schedule: o.StatusSchedule, Command: o.command("notify", "status", "--always")},
	}
}

// Install puts the binary in place and applies entries to the crontab.
func Install(ctx context.Context, cron Crontab, src, dir string, entries []Entry) (bool, error) {
	_, binChanged, err := InstallBinary(src, dir, DefaultName, cron.DryRun)
	if err != nil {
		return false, err
	}
	cronChanged, err := cron.Apply(ctx, entries...)
	if err != nil {
		return binChanged, err
	}
	return binChanged || cronChanged, nil
}
