// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package fail2ban

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

const jailTemplate = `# Managed by pvewarden setup fail2ban, local changes are overwritten.
[DEFAULT]
bantime = {{ .BanTime }}
findtime = {{ .FindTime }}
maxretry = {{ .MaxRetry }}
ignoreip = {{ join .IgnoreIP " " }}
backend = systemd
{{- if .Dest }}
destemail = {{ join .Dest "," }}
{{- if .Sender }}
sender = {{ .Sender }}
{{- end }}
action = %(action_mwl)s
{{- end }}

[sshd]
enabled = true
port = ssh

[proxmox]
enabled = true
port = {{ .GUIPorts }}
filter = proxmox
journalmatch = _SYSTEMD_UNIT=pvedaemon.service
`

// pvedaemon logs failed GUI and API logins to the journal
const proxmoxFilter = `# Managed by pvewarden setup fail2ban, local changes are overwritten.
[Definition]
failregex = pvedaemon\[.*authentication (verification )?failure; rhost=<HOST> user=.* msg=.*
ignoreregex =
`

func RenderJail(cfg Fail2banConfig) ([]byte, error) {
	cfg.applyDefaults()
	return sysconf.Render("jail.local", jailTemplate, cfg)
}

// Setup installs fail2ban with jails for sshd and the Proxmox GUI.
func Setup(ctx context.Context, env setup.Env, cfg Fail2banConfig) (*setup.Result, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := env.APT.Install(ctx, "fail2ban"); err != nil {
		return nil, err
	}

	jail, err := RenderJail(cfg)
	if err != nil {
		return nil, err
	}

	res := &setup.Result{}
	if _, err := env.Write(res, cfg.FilterPath, []byte(proxmoxFilter), 0644); err != nil {
		return nil, err
	}
	if _, err := env.Write(res, cfg.JailPath, jail, 0644); err != nil {
		return nil, err
	}

	if res.Changes() {
		if err := env.Restart(ctx, res, "fail2ban"); err != nil {
			return nil, err
		}
	}
	if err := env.Systemctl.Enable(ctx, "fail2ban"); err != nil {
		return nil, err
	}

	log.Info().Str("bantime", cfg.BanTime).Int("maxretry", cfg.MaxRetry).Strs("changed", res.Changed).Msg("fail2ban configured")
	return res, nil
}
