// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package hoststatus

import (
	"context"
	"fmt"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

type Report struct {
	Host     *HostInfo
	Services []ServiceState
	Lines    []string
	Warnings checks.Warnings
}

// Boot describes a freshly booted host.
func Boot(ctx context.Context) (*Report, error) {
	info, err := collectHost(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading host info: %w", err)
	}

	rep := &Report{Host: info}
	rep.Lines = append(rep.Lines,
		fmt.Sprintf("host %s booted at %s", info.Hostname, info.BootTime.Format(time.RFC1123)),
		fmt.Sprintf("uptime %s", info.Uptime.Round(time.Second)),
		fmt.Sprintf("%s, kernel %s", info.Platform, info.KernelVersion),
	)
	publishBoot(rep)
	return rep, nil
}

// Status summarises host resources and the state of the configured services.
func Status(ctx context.Context, r hostexec.Runner, cfg HostStatusConfig) (*Report, error) {
	info, err := collectHost(ctx)
	if err != nil {
		return nil, fmt.Errorf("reading host info: %w", err)
	}

	rep := &Report{Host: info}
	rep.Lines = append(rep.Lines,
		fmt.Sprintf("up %s since %s", humanize.RelTime(info.BootTime, time.Now(), "", ""), info.BootTime.Format(time.RFC1123)),
		fmt.Sprintf("load %.2f %.2f %.2f", info.Load1, info.Load5, info.Load15),
		fmt.Sprintf("memory %.1f%% of %s used", info.MemoryUsedPercent, humanize.IBytes(info.MemoryTotal)),
		fmt.Sprintf("root filesystem %.1f%% used (%s of %s)", info.RootUsedPercent, humanize.IBytes(info.RootUsed), humanize.IBytes(info.RootTotal)),
	)

	if cfg.RootPercentUsed > 0 && checks.Exceeds(checks.Known(info.RootUsedPercent), cfg.RootPercentUsed) {
		rep.Warnings.Add("root filesystem %.1f%% used exceeds %s%%", info.RootUsedPercent, checks.Known(cfg.RootPercentUsed))
	}
	if cfg.MemoryPercentUsed > 0 && checks.Exceeds(checks.Known(info.MemoryUsedPercent), cfg.MemoryPercentUsed) {
		rep.Warnings.Add("memory %.1f%% used exceeds %s%%", info.MemoryUsedPercent, checks.Known(cfg.MemoryPercentUsed))
	}

	if len(cfg.Services) > 0 {
		if err := hostexec.Require(r, "systemctl"); err != nil {
			return nil, err
		}
		states, errs := serviceStates(ctx, r, cfg.Services)
		for _, err := range errs {
			rep.Warnings.Add("cannot query %v", err)
		}
		rep.Services = states
		for _, s := range states {
			evaluateService(s, info.Uptime, cfg, rep)
		}
	}

	publishStatus(rep, cfg.NodeName)
	return rep, nil
}

func evaluateService(s ServiceState, hostUptime time.Duration, cfg HostStatusConfig, rep *Report) {
	if !s.Active() {
		rep.Warnings.Add("service %s is %s (%s)", s.Name, s.ActiveState, s.SubState)
		return
	}

	up, known := s.Uptime(hostUptime)
	if !known {
		rep.Lines = append(rep.Lines, fmt.Sprintf("service %s active", s.Name))
		return
	}
	rep.Lines = append(rep.Lines, fmt.Sprintf("service %s active for %s", s.Name, up.Round(time.Second)))

	// services restarted right after boot are not flapping
	if cfg.MinServiceUptime > 0 && up < cfg.MinServiceUptime && hostUptime > cfg.MinServiceUptime {
		rep.Warnings.Add("service %s restarted %s ago (minimum uptime %s)", s.Name, up.Round(time.Second), cfg.MinServiceUptime)
	}
}
