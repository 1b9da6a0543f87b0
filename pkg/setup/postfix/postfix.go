// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package postfix

import (
	"context"
	"fmt"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

var packages = []string{"postfix", "libsasl2-modules", "mailutils"}

// MainSettings are the main.cf keys managed for cfg.
func MainSettings(cfg PostfixConfig) map[string]string {
	cfg.applyDefaults()
	settings := map[string]string{
		"relayhost":               cfg.relay(),
		"inet_interfaces":         "loopback-only",
		"smtp_tls_security_level": "encrypt",
		"smtp_tls_CAfile":         cfg.CAFile,
		"sender_canonical_maps":   "regexp:" + cfg.path("sender_canonical"),
		"smtp_header_checks":      "regexp:" + cfg.path("header_checks"),
	}
	if cfg.Username != "" {
		settings["smtp_sasl_auth_enable"] = "yes"
		settings["smtp_sasl_password_maps"] = "hash:" + cfg.path("sasl_passwd")
		settings["smtp_sasl_security_options"] = "noanonymous"
	} else {
		settings["smtp_sasl_auth_enable"] = "no"
	}
	return settings
}

// SenderCanonical maps every envelope sender to from.
func SenderCanonical(from string) []byte {
	return []byte(fmt.Sprintf("/.+/ %s\n", from))
}

// HeaderChecks rewrites the From header so Exchange accepts the message.
func HeaderChecks(hostname, from string) []byte {
	display := hostname
	if display == "" {
		display = "pvewarden"
	}
	return []byte(fmt.Sprintf("/^From:.*/ REPLACE From: %s <%s>\n", display, from))
}

// SASLPasswd is the sasl_passwd map line for the relay.
func SASLPasswd(cfg PostfixConfig) []byte {
	cfg.applyDefaults()
	return []byte(fmt.Sprintf("%s %s:%s\n", cfg.relay(), cfg.Username, cfg.Password))
}

// mapStale reports whether the hash table built from source is missing or
// older than source.
func mapStale(source string) bool {
	src, err := os.Stat(source)
	if err != nil {
		return true
	}
	db, err := os.Stat(source + ".db")
	if err != nil {
		return true
	}
	return db.ModTime().Before(src.ModTime())
}

// debconf answers so the postfix package installs without asking
func debconfSelections(hostname string) []byte {
	return []byte(fmt.Sprintf("postfix postfix/main_mailer_type select Satellite system\n"+
		"postfix postfix/mailname string %s\n", hostname))
}

// Setup installs Postfix and configures it as a relay.
func Setup(ctx context.Context, env setup.Env, cfg PostfixConfig) (*setup.Result, error) {
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if cfg.Hostname != "" {
		if _, err := env.Runner.RunInput(ctx, debconfSelections(cfg.Hostname), "debconf-set-selections"); err != nil {
			log.Warn().Err(err).Msg("failed to preseed postfix debconf answers")
		}
	}
	if err := env.APT.Install(ctx, packages...); err != nil {
		return nil, err
	}
	if err := hostexec.Require(env.Runner, "postmap", "postfix"); err != nil {
		return nil, err
	}

	res := &setup.Result{}

	mainPath := cfg.path("main.cf")
	current, err := setup.ReadFile(mainPath)
	if err != nil {
		return nil, err
	}
	if _, err := env.Write(res, mainPath, sysconf.SetKeys(current, MainSettings(cfg), sysconf.PostfixStyle), 0644); err != nil {
		return nil, err
	}

	if _, err := env.Write(res, cfg.path("sender_canonical"), SenderCanonical(cfg.From), 0644); err != nil {
		return nil, err
	}
	if _, err := env.Write(res, cfg.path("header_checks"), HeaderChecks(cfg.Hostname, cfg.From), 0644); err != nil {
		return nil, err
	}

	if cfg.Username != "" {
		saslPath := cfg.path("sasl_passwd")
		changed, err := env.Write(res, saslPath, SASLPasswd(cfg), 0600)
		if err != nil {
			return nil, err
		}
		if changed || mapStale(saslPath) {
			if _, err := env.Runner.Run(ctx, "postmap", "hash:"+saslPath); err != nil {
				return nil, fmt.Errorf("postmap %s: %w", saslPath, err)
			}
		}
	}

	// check and reload on every run, a previous run may have failed after
	// writing the files
	if _, err := env.Runner.Run(ctx, "postfix", "check"); err != nil {
		return nil, fmt.Errorf("postfix rejected the new configuration: %w", err)
	}
	if res.Changes() {
		if err := env.Restart(ctx, res, "postfix"); err != nil {
			return nil, err
		}
	} else if err := env.Systemctl.Reload(ctx, "postfix"); err != nil {
		return nil, err
	}

	log.Info().Str("relay", cfg.relay()).Str("from", cfg.From).Strs("changed", res.Changed).Msg("postfix relay configured")
	return res, nil
}
