// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package configbackup

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

type Result struct {
	Archive string
	Stats   *ArchiveStats
	Size    int64
	Removed []string
}

// NewTarget builds the target named in cfg.
func NewTarget(ctx context.Context, r hostexec.Runner, cfg BackupConfig) (Target, error) {
	switch cfg.Target {
	case "rsync":
		return RsyncTarget{Runner: r, Remote: cfg.Remote}, nil
	case "s3":
		return NewS3Target(ctx, cfg.S3)
	case "local":
		return LocalTarget{Dir: cfg.LocalDir}, nil
	}
	return nil, fmt.Errorf("unknown backup target %q", cfg.Target)
}

// Run archives the configured paths, ships the archive to target and removes
// archives beyond the retention count.
func Run(ctx context.Context, cfg BackupConfig, target Target, now time.Time) (*Result, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	workDir := cfg.WorkDir
	if workDir == "" {
		workDir = os.TempDir()
	}
	name := ArchiveName(cfg.Hostname, now)
	file := filepath.Join(workDir, name)
	defer os.Remove(file)

	stats, err := CreateArchive(file, cfg.Paths, cfg.Progress)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	info, err := os.Stat(file)
	if err != nil {
		return nil, err
	}
	res := &Result{Archive: name, Stats: stats, Size: info.Size()}

	log.Info().Str("archive", name).Int("files", stats.Files).Str("size", humanize.IBytes(uint64(res.Size))).
		Str("target", target.Name()).Msg("uploading config backup")
	if err := target.Upload(ctx, file, name); err != nil {
		return nil, err
	}

	existing, err := target.List(ctx)
	if err != nil {
		// the upload succeeded, a failed rotation is retried next run
		log.Warn().Err(err).Msg("cannot list archives for rotation")
		PublishToPrometheus(res, cfg, now)
		return res, nil
	}
	res.Removed = Rotate(existing, cfg.Hostname, cfg.Keep)
	if len(res.Removed) > 0 {
		if err := target.Delete(ctx, res.Removed); err != nil {
			log.Warn().Err(err).Strs("archives", res.Removed).Msg("failed to delete old archives")
		} else {
			log.Info().Strs("archives", res.Removed).Msg("rotated old archives")
		}
	}

	PublishToPrometheus(res, cfg, now)
	return res, nil
}
