// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package zfshealth

import (
	"context"
	"fmt"
	"slices"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/shirou/gopsutil/disk"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

// Result of one zfs check run.
type Result struct {
	Pools    []Pool
	Datasets []Dataset
	Warnings checks.Warnings
}

// kernelZFSMounts returns the datasets the kernel mount table knows as zfs
// mounts. Replaced in tests.
var kernelZFSMounts = func(ctx context.Context) (map[string]bool, error) {
	parts, err := disk.PartitionsWithContext(ctx, true)
	if err != nil {
		return nil, err
	}
	mounted := make(map[string]bool)
	for _, p := range parts {
		if p.Fstype == "zfs" {
			mounted[p.Device] = true
		}
	}
	return mounted, nil
}

// Check inspects pool capacity, pool health and dataset mount state.
func Check(ctx context.Context, r hostexec.Runner, cfg ZFSHealthConfig) (*Result, error) {
	if err := hostexec.Require(r, "zpool", "zfs"); err != nil {
		return nil, err
	}

	out, err := r.Run(ctx, "zpool", poolListArgs...)
	if err != nil {
		return nil, fmt.Errorf("listing pools: %w", err)
	}
	pools, err := ParsePoolList(out)
	if err != nil {
		return nil, err
	}

	res := &Result{}
	for _, pool := range pools {
		if len(cfg.Pools) > 0 && !slices.Contains(cfg.Pools, pool.Name) {
			continue
		}
		res.Pools = append(res.Pools, pool)
		checkPool(pool, cfg, &res.Warnings)
	}

	if len(cfg.Pools) > 0 {
		for _, name := range cfg.Pools {
			if !slices.ContainsFunc(res.Pools, func(p Pool) bool { return p.Name == name }) {
				res.Warnings.Add("pool %s is not imported", name)
			}
		}
	}

	if cfg.CheckMounts {
		out, err := r.Run(ctx, "zfs", datasetListArgs...)
		if err != nil {
			return nil, fmt.Errorf("listing datasets: %w", err)
		}
		datasets, err := ParseDatasetList(out)
		if err != nil {
			return nil, err
		}
		res.Datasets = datasets

		kernel, err := kernelZFSMounts(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("cannot read kernel mount table, relying on zfs output only")
			kernel = nil
		}
		checkMounts(datasets, kernel, cfg, &res.Warnings)
	}

	PublishToPrometheus(res, cfg)
	return res, nil
}

func checkPool(pool Pool, cfg ZFSHealthConfig, w *checks.Warnings) {
	if checks.Exceeds(pool.Capacity, cfg.PercentUsed) {
		w.Add("pool %s is %s%% full (threshold %s%%, %s of %s used)",
			pool.Name, pool.Capacity, checks.Known(cfg.PercentUsed),
			humanize.IBytes(pool.Allocated), humanize.IBytes(pool.SizeBytes))
	} else if !pool.Capacity.Valid {
		log.Warn().Str("pool", pool.Name).Msg("pool capacity unavailable")
	}

	if pool.Health != "ONLINE" {
		w.Add("pool %s health is %s", pool.Name, pool.Health)
	}
}

func checkMounts(datasets []Dataset, kernel map[string]bool, cfg ZFSHealthConfig, w *checks.Warnings) {
	for _, ds := range datasets {
		if slices.Contains(cfg.IgnoreDatasets, ds.Name) || !ds.ExpectsMount() {
			continue
		}
		if len(cfg.Pools) > 0 && !slices.Contains(cfg.Pools, poolOf(ds.Name)) {
			continue
		}
		switch {
		case !ds.Mounted:
			w.Add("dataset %s is not mounted at %s", ds.Name, ds.Mountpoint)
		case kernel != nil && !kernel[ds.Name]:
			w.Add("dataset %s reported mounted at %s but missing from the kernel mount table", ds.Name, ds.Mountpoint)
		}
	}
}

func poolOf(dataset string) string {
	for i, c := range dataset {
		if c == '/' {
			return dataset[:i]
		}
	}
	return dataset
}
