// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartd

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

const confTemplate = `# Managed by pvewarden setup smartd, local changes are overwritten.
{{- range .Devices }}
{{ . }} -a -o on -S on -n standby,q -s {{ $.Schedule }} -W {{ $.TempDiff }},{{ $.TempInfo }},{{ $.TempCrit }} -m {{ join $.Dest "," }} -M exec /usr/share/smartmontools/smartd-runner{{ if $.Test }} -M test{{ end }}
{{- end }}
`

type confData struct {
	SmartdConfig
	Devices []string
}

// RenderConf renders smartd.conf for cfg.
func RenderConf(cfg SmartdConfig) ([]byte, error) {
	cfg.applyDefaults()
	devices := cfg.Disks
	if len(devices) == 0 {
		devices = []string{"DEVICESCAN"}
	}
	return sysconf.Render("smartd.conf", confTemplate, confData{SmartdConfig: cfg, Devices: devices})
}

// Setup installs smartmontools, writes smartd.conf and restarts smartd when
// the configuration changed or a test mail was requested.
func Setup(ctx context.Context, env setup.Env, cfg SmartdConfig) (*setup.Result, error) {
	cfg.applyDefaults()
	if len(cfg.Dest) == 0 {
		return nil, errors.New("smartd needs at least one mail destination")
	}

	if err := env.APT.Install(ctx, "smartmontools"); err != nil {
		return nil, err
	}
	if err := hostexec.Require(env.Runner, "smartctl"); err != nil {
		return nil, err
	}

	conf, err := RenderConf(cfg)
	if err != nil {
		return nil, err
	}

	res := &setup.Result{}
	changed, err := env.Write(res, cfg.ConfPath, conf, 0644)
	if err != nil {
		return nil, err
	}

	if changed || cfg.Test {
		if err := env.Restart(ctx, res, cfg.Unit); err != nil {
			return nil, fmt.Errorf("smartd did not restart with the new configuration: %w", err)
		}
	}
	if err := env.Systemctl.Enable(ctx, cfg.Unit); err != nil {
		return nil, err
	}

	log.Info().Strs("dest", cfg.Dest).Strs("disks", cfg.Disks).Bool("changed", changed).Msg("smartd configured")
	return res, nil
}
