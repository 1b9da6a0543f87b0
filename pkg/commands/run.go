// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks/backupfresh"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/smarthealth"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/zfshealth"
	"github.com/cobaltcore-dev/pvewarden/pkg/config"
)

var configFile string

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the checks listed in a config file",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := config.LoadConfig(configFile)
		if err != nil {
			log.Fatal().Err(err).Str("config", configFile).Msg("error loading config")
		}

		opts := alertOptionsFromGlobal(cfg.Global)
		logAlertOptions(opts, "run")
		validateAlertOptions(opts)

		if err := runChecks(cmd.Context(), cfg, opts); err != nil {
			log.Fatal().Err(err).Msg("one or more checks failed")
		}
	},
}

func alertOptionsFromGlobal(g config.GlobalConfig) alertOptions {
	o := alertOptions{
		Dest:           g.Dest,
		Test:           g.Test,
		From:           g.From,
		Transport:      g.Transport,
		SMTPAddr:       g.SMTPAddr,
		NatsURL:        g.NatsURL,
		NatsSubject:    g.NatsSubject,
		TextfileDir:    g.TextfileDir,
		PushgatewayURL: g.PushgatewayURL,
		NodeName:       g.NodeName,
	}
	if o.SMTPAddr == "" {
		o.SMTPAddr = "127.0.0.1:25"
	}
	if o.NatsSubject == "" {
		o.NatsSubject = "pve.alerts"
	}
	return o
}

// runChecks runs every configured check in order. A failing check does not
// stop the others.
func runChecks(ctx context.Context, cfg *config.Config, opts alertOptions) error {
	var errs []error
	for _, c := range cfg.Checks {
		log.Info().Str("name", c.Name).Str("type", c.Type).Msg("running check")

		var err error
		switch c.Type {
		case config.TypeZFS:
			_, err = executeCheck(ctx, opts, c.Name, zfsCheck(config.ZFSHealth(c, cfg.Global)), zfshealth.Registry)
		case config.TypeSmart:
			_, err = executeCheck(ctx, opts, c.Name, smartCheck(config.SmartHealth(c, cfg.Global)), smarthealth.Registry)
		case config.TypeBackups:
			_, err = executeCheck(ctx, opts, c.Name, backupsCheck(config.BackupFresh(c, cfg.Global)), backupfresh.Registry)
		case config.TypeStatus:
			_, err = executeStatus(ctx, opts, config.HostStatus(c, cfg.Global), config.Always(c))
		default:
			err = fmt.Errorf("unknown check type %q", c.Type)
		}

		if err != nil {
			log.Error().Err(err).Str("name", c.Name).Msg("check failed")
			errs = append(errs, fmt.Errorf("%s: %w", c.Name, err))
		}
	}
	return errors.Join(errs...)
}

func init() {
	runCmd.Flags().StringVarP(&configFile, "config", "c", "/etc/pvewarden.yaml", "Config file (YAML, TOML or JSON)")
}
