// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/setup/fail2ban"
)

var (
	f2bBanTime  string
	f2bFindTime string
	f2bMaxRetry int
	f2bIgnoreIP []string
	f2bGUIPorts string
)

var setupFail2banCmd = &cobra.Command{
	Use:   "fail2ban",
	Short: "Install fail2ban with jails for sshd and the Proxmox web interface",
	Run: func(cmd *cobra.Command, args []string) {
		opts := mergeAlertOptionsWithEnv(alertOpts)
		config := fail2ban.Fail2banConfig{
			BanTime:  getEnv("PVE_BANTIME", f2bBanTime),
			FindTime: getEnv("PVE_FINDTIME", f2bFindTime),
			MaxRetry: getEnvInt("PVE_MAXRETRY", f2bMaxRetry),
			Dest:     opts.Dest,
			Sender:   opts.From,
			IgnoreIP: getEnvSlice("PVE_IGNOREIP", f2bIgnoreIP),
			GUIPorts: f2bGUIPorts,
		}

		log.Info().
			Str("bantime", config.BanTime).
			Str("findtime", config.FindTime).
			Int("maxretry", config.MaxRetry).
			Strs("dest", config.Dest).
			Msg("configuration_loaded")

		requireRoot()

		res, err := fail2ban.Setup(cmd.Context(), setupEnv(), config)
		if err != nil {
			log.Fatal().Err(err).Msg("fail2ban setup failed")
		}
		logSetupResult("fail2ban", res)
	},
}

func init() {
	setupFail2banCmd.Flags().StringVar(&f2bBanTime, "bantime", fail2ban.DefaultBanTime, "How long an address stays banned (seconds or 10m, 1h, 1d)")
	setupFail2banCmd.Flags().StringVar(&f2bFindTime, "findtime", fail2ban.DefaultFindTime, "Window in which failures are counted")
	setupFail2banCmd.Flags().IntVar(&f2bMaxRetry, "maxretry", fail2ban.DefaultMaxRetry, "Failures within findtime before a ban")
	setupFail2banCmd.Flags().StringSliceVar(&f2bIgnoreIP, "ignoreip", nil, "Address or network never banned (repeatable)")
	setupFail2banCmd.Flags().StringVar(&f2bGUIPorts, "gui-ports", fail2ban.DefaultGUIPorts, "Ports blocked by the proxmox jail")
}
