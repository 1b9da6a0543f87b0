// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package hoststatus

import (
	"context"
	"time"

	"github.com/shirou/gopsutil/disk"
	"github.com/shirou/gopsutil/host"
	"github.com/shirou/gopsutil/load"
	"github.com/shirou/gopsutil/mem"
)

type HostInfo struct {
	Hostname          string
	Platform          string
	KernelVersion     string
	BootTime          time.Time
	Uptime            time.Duration
	Load1             float64
	Load5             float64
	Load15            float64
	MemoryUsedPercent float64
	MemoryTotal       uint64
	RootUsedPercent   float64
	RootUsed          uint64
	RootTotal         uint64
}

// collectHost reads the host from /proc and /sys. Replaced in tests.
var collectHost = func(ctx context.Context) (*HostInfo, error) {
	info, err := host.InfoWithContext(ctx)
	if err != nil {
		return nil, err
	}

	avg, err := load.AvgWithContext(ctx)
	if err != nil {
		return nil, err
	}

	vm, err := mem.VirtualMemoryWithContext(ctx)
	if err != nil {
		return nil, err
	}

	root, err := disk.UsageWithContext(ctx, "/")
	if err != nil {
		return nil, err
	}

	return &HostInfo{
		Hostname:          info.Hostname,
		Platform:          info.Platform + " " + info.PlatformVersion,
		KernelVersion:     info.KernelVersion,
		BootTime:          time.Unix(int64(info.BootTime), 0),
		Uptime:            time.Duration(info.Uptime) * time.Second,
		Load1:             avg.Load1,
		Load5:             avg.Load5,
		Load15:            avg.Load15,
		MemoryUsedPercent: vm.UsedPercent,
		MemoryTotal:       vm.Total,
		RootUsedPercent:   root.UsedPercent,
		RootUsed:          root.Used,
		RootTotal:         root.Total,
	}, nil
}
