// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package configbackup

import (
	"archive/tar"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/schollz/progressbar/v3"
)

const archiveTimestamp = "20060102-150405"

// ArchiveName names the archive of host taken at t. Names of one host sort
// by time.
func ArchiveName(host string, t time.Time) string {
	return fmt.Sprintf("%s%s.tar.gz", archivePrefix(host), t.Format(archiveTimestamp))
}

func archivePrefix(host string) string {
	return "pve-config-" + host + "-"
}

type ArchiveStats struct {
	Files   int
	Bytes   int64
	Skipped []string
}

// CreateArchive writes a gzip compressed tarball of paths to dst. Paths that
// do not exist are skipped.
func CreateArchive(dst string, paths []string, progress bool) (*ArchiveStats, error) {
	stats := &ArchiveStats{}

	var existing []string
	var total int64
	for _, p := range paths {
		size, err := treeSize(p)
		if errors.Is(err, fs.ErrNotExist) {
			log.Info().Str("path", p).Msg("skipping missing path")
			stats.Skipped = append(stats.Skipped, p)
			continue
		}
		if err != nil {
			return nil, err
		}
		existing = append(existing, p)
		total += size
	}
	if len(existing) == 0 {
		return nil, errors.New("none of the configured paths exist")
	}

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return nil, fmt.Errorf("creating archive: %w", err)
	}
	defer out.Close()

	var bar *progressbar.ProgressBar
	if progress {
		bar = progressbar.DefaultBytes(total, "archiving config")
	} else {
		bar = progressbar.DefaultBytesSilent(total, "archiving config")
	}

	gz := gzip.NewWriter(out)
	tw := tar.NewWriter(gz)
	for _, p := range existing {
		if err := addTree(tw, p, bar, stats); err != nil {
			return nil, err
		}
	}

	if err := tw.Close(); err != nil {
		return nil, err
	}
	if err := gz.Close(); err != nil {
		return nil, err
	}
	if err := bar.Finish(); err != nil {
		log.Debug().Err(err).Msg("progress bar")
	}
	if err := out.Close(); err != nil {
		return nil, err
	}
	return stats, nil
}

func treeSize(root string) (int64, error) {
	var size int64
	err := filepath.WalkDir(root, func(_ string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.Type().IsRegular() {
			info, err := d.Info()
			if err != nil {
				return err
			}
			size += info.Size()
		}
		return nil
	})
	return size, err
}

func addTree(tw *tar.Writer, root string, bar io.Writer, stats *ArchiveStats) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}

		var link string
		if info.Mode()&fs.ModeSymlink != 0 {
			if link, err = os.Readlink(path); err != nil {
				return err
			}
		} else if !info.Mode().IsRegular() && !info.IsDir() {
			log.Debug().Str("path", path).Msg("skipping special file")
			return nil
		}

		hdr, err := tar.FileInfoHeader(info, link)
		if err != nil {
			return err
		}
		hdr.Name = strings.TrimPrefix(filepath.ToSlash(path), "/")
		if info.IsDir() {
			hdr.Name += "/"
		}
		if err := tw.WriteHeader(hdr); err != nil {
			return fmt.Errorf("archiving %s: %w", path, err)
		}
		if !info.Mode().IsRegular() {
			return nil
		}

		f, err := os.Open(path)
		if err != nil {
			return err
		}
		defer f.Close()
		n, err := io.Copy(io.MultiWriter(tw, bar), f)
		if err != nil {
			return fmt.Errorf("archiving %s: %w", path, err)
		}
		stats.Files++
		stats.Bytes += n
		return nil
	})
}
