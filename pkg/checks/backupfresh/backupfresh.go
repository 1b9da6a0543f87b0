// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package backupfresh

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

// Location is the outcome for one snapshot listing.
type Location struct {
	Name      string // "local" or the remote host
	Snapshots []Snapshot
	Fresh     bool
	Reachable bool
}

type Result struct {
	Locations []Location
	Warnings  checks.Warnings
}

// Check looks for a snapshot from the day before now, locally and on the
// optional remote host.
func Check(ctx context.Context, r hostexec.Runner, cfg BackupFreshConfig, now time.Time) (*Result, error) {
	if err := hostexec.Require(r, "zfs"); err != nil {
		return nil, err
	}

	yesterday := now.AddDate(0, 0, -1)
	res := &Result{}

	out, err := r.Run(ctx, "zfs", snapshotListArgs(cfg.Dataset)...)
	if err != nil {
		return nil, fmt.Errorf("listing local snapshots: %w", err)
	}
	local, err := ParseSnapshots(out)
	if err != nil {
		return nil, err
	}
	res.Locations = append(res.Locations, evaluate("local", scope(cfg.Dataset), local, yesterday, now, &res.Warnings))

	if cfg.RemoteHost != "" {
		res.Locations = append(res.Locations, checkRemote(ctx, r, cfg, yesterday, now, &res.Warnings))
	}

	PublishToPrometheus(res, cfg)
	return res, nil
}

func checkRemote(ctx context.Context, r hostexec.Runner, cfg BackupFreshConfig, yesterday, now time.Time, w *checks.Warnings) Location {
	if err := hostexec.Require(r, "ssh"); err != nil {
		w.Add("cannot check backups on %s: %v", cfg.RemoteHost, err)
		return Location{Name: cfg.RemoteHost}
	}

	args := sshArgs(cfg)
	args = append(args, "zfs")
	args = append(args, snapshotListArgs(cfg.RemoteDataset)...)

	out, err := r.Run(ctx, "ssh", args...)
	if err != nil {
		log.Error().Err(err).Str("host", cfg.RemoteHost).Msg("remote snapshot listing failed")
		w.Add("cannot reach backup host %s to list snapshots: %v", cfg.RemoteHost, err)
		return Location{Name: cfg.RemoteHost}
	}

	snaps, err := ParseSnapshots(out)
	if err != nil {
		w.Add("unexpected snapshot listing from %s: %v", cfg.RemoteHost, err)
		return Location{Name: cfg.RemoteHost, Reachable: true}
	}

	loc := evaluate(cfg.RemoteHost, scope(cfg.RemoteDataset), snaps, yesterday, now, w)
	loc.Reachable = true
	return loc
}

func evaluate(name, scope string, snaps []Snapshot, yesterday, now time.Time, w *checks.Warnings) Location {
	loc := Location{Name: name, Snapshots: snaps, Reachable: true}
	loc.Fresh = HasSnapshotFor(snaps, yesterday)
	if loc.Fresh {
		return loc
	}

	if latest, ok := Latest(snaps); ok {
		w.Add("no %s snapshot from %s on %s, latest is %s@%s from %s",
			scope, yesterday.Format("2006-01-02"), name, latest.Dataset, latest.Name, humanize.RelTime(latest.Created, now, "ago", "from now"))
	} else {
		w.Add("no %s snapshot from %s on %s, no snapshots found at all", scope, yesterday.Format("2006-01-02"), name)
	}
	return loc
}

func sshArgs(cfg BackupFreshConfig) []string {
	timeout := cfg.ConnectTimeout
	if timeout <= 0 {
		timeout = 10
	}
	args := []string{"-o", "BatchMode=yes", "-o", "ConnectTimeout=" + strconv.Itoa(timeout)}
	if cfg.SSHPort > 0 {
		args = append(args, "-p", strconv.Itoa(cfg.SSHPort))
	}
	return append(args, cfg.RemoteHost)
}

func scope(dataset string) string {
	if dataset == "" {
		return "ZFS"
	}
	return dataset
}
