// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package harden

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

// Setup updates the host, installs the baseline packages and applies the
// sysctl and sshd settings.
func Setup(ctx context.Context, env setup.Env, cfg HardenConfig) (*setup.Result, error) {
	cfg.applyDefaults()
	res := &setup.Result{}

	if cfg.NoSubscription {
		if err := configureRepos(env, cfg, res); err != nil {
			return nil, fmt.Errorf("configuring apt repositories: %w", err)
		}
	}

	if err := env.APT.Update(ctx); err != nil {
		return nil, err
	}
	if cfg.DistUpgrade {
		if err := env.APT.DistUpgrade(ctx); err != nil {
			return nil, err
		}
	}
	if len(cfg.Packages) > 0 {
		if err := env.APT.Install(ctx, cfg.Packages...); err != nil {
			return nil, err
		}
	}

	if err := applySysctl(ctx, env, cfg, res); err != nil {
		return nil, err
	}

	if cfg.SSH {
		if err := hardenSSH(ctx, env, cfg, res); err != nil {
			return nil, err
		}
	}

	log.Info().Strs("changed", res.Changed).Strs("restarted", res.Restarted).Msg("host hardened")
	return res, nil
}

func applySysctl(ctx context.Context, env setup.Env, cfg HardenConfig, res *setup.Result) error {
	current, err := setup.ReadFile(cfg.SysctlPath)
	if err != nil {
		return err
	}
	changed, err := env.Write(res, cfg.SysctlPath, sysconf.SetKeys(current, cfg.Sysctl, sysconf.SysctlStyle), 0644)
	if err != nil || !changed {
		return err
	}
	if _, err := env.Runner.Run(ctx, "sysctl", "--system"); err != nil {
		return fmt.Errorf("applying sysctl settings: %w", err)
	}
	return nil
}

func hardenSSH(ctx context.Context, env setup.Env, cfg HardenConfig, res *setup.Result) error {
	current, err := setup.ReadFile(cfg.SSHDConfigPath)
	if err != nil {
		return err
	}
	updated := sysconf.SetKeys(current, sshdSettings, sysconf.SSHDStyle)
	if string(updated) == string(current) {
		return nil
	}

	// a broken sshd_config locks everyone out, validate before replacing
	if err := validateSSHD(ctx, env, filepath.Dir(cfg.SSHDConfigPath), updated); err != nil {
		return err
	}

	changed, err := env.Write(res, cfg.SSHDConfigPath, updated, 0644)
	if err != nil || !changed {
		return err
	}
	return reload(ctx, env, res, "ssh")
}

func validateSSHD(ctx context.Context, env setup.Env, dir string, content []byte) error {
	if env.Writer.DryRun {
		return nil
	}
	tmp, err := os.CreateTemp(dir, ".sshd_config.pvewarden-*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(content); err != nil {
		tmp.Close()
		return err
	}
	if err := tmp.Close(); err != nil {
		return err
	}

	if _, err := env.Runner.Run(ctx, "sshd", "-t", "-f", tmp.Name()); err != nil {
		return fmt.Errorf("sshd rejected the hardened configuration: %w", err)
	}
	return nil
}

func reload(ctx context.Context, env setup.Env, res *setup.Result, unit string) error {
	if err := env.Systemctl.Reload(ctx, unit); err != nil {
		return err
	}
	res.Restarted = append(res.Restarted, unit)
	return nil
}
