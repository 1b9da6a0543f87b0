// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/setup/harden"
)

var (
	hardenPackages       []string
	hardenDistUpgrade    bool
	hardenSSH            bool
	hardenNoSubscription bool
)

var setupHardenCmd = &cobra.Command{
	Use:   "harden",
	Short: "Update the host, install baseline packages and apply sysctl and sshd hardening",
	Run: func(cmd *cobra.Command, args []string) {
		config := harden.HardenConfig{
			Packages:       getEnvSlice("PVE_PACKAGES", hardenPackages),
			DistUpgrade:    getEnvBool("PVE_DIST_UPGRADE", hardenDistUpgrade),
			SSH:            getEnvBool("PVE_HARDEN_SSH", hardenSSH),
			NoSubscription: getEnvBool("PVE_NO_SUBSCRIPTION", hardenNoSubscription),
		}

		log.Info().
			Strs("packages", config.Packages).
			Bool("dist_upgrade", config.DistUpgrade).
			Bool("ssh", config.SSH).
			Bool("no_subscription", config.NoSubscription).
			Msg("configuration_loaded")

		requireRoot()

		res, err := harden.Setup(cmd.Context(), setupEnv(), config)
		if err != nil {
			log.Fatal().Err(err).Msg("hardening failed")
		}
		logSetupResult("harden", res)
	},
}

func init() {
	setupHardenCmd.Flags().StringSliceVar(&hardenPackages, "package", harden.DefaultPackages, "Package to install (repeatable, replaces the default list)")
	setupHardenCmd.Flags().BoolVar(&hardenDistUpgrade, "dist-upgrade", false, "Run apt-get dist-upgrade")
	setupHardenCmd.Flags().BoolVar(&hardenSSH, "ssh", false, "Disable password logins and root password login in sshd")
	setupHardenCmd.Flags().BoolVar(&hardenNoSubscription, "no-subscription", false, "Switch from the enterprise to the no-subscription repository")
}
