// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/setup/smartd"
)

var (
	smartdDisks    []string
	smartdSchedule string
	smartdTempDiff int
	smartdTempInfo int
	smartdTempCrit int
	smartdConfPath string
)

var setupSmartdCmd = &cobra.Command{
	Use:   "smartd",
	Short: "Install smartmontools and configure smartd to mail disk problems",
	Run: func(cmd *cobra.Command, args []string) {
		opts := mergeAlertOptionsWithEnv(alertOpts)
		config := smartd.SmartdConfig{
			Dest:     opts.Dest,
			Disks:    getEnvSlice("DISKS", smartdDisks),
			Schedule: smartdSchedule,
			TempDiff: smartdTempDiff,
			TempInfo: smartdTempInfo,
			TempCrit: smartdTempCrit,
			Test:     opts.Test,
			ConfPath: smartdConfPath,
		}

		log.Info().
			Strs("dest", config.Dest).
			Strs("disks", config.Disks).
			Str("schedule", config.Schedule).
			Bool("test", config.Test).
			Msg("configuration_loaded")

		validateAlertOptions(opts)
		requireRoot()

		res, err := smartd.Setup(cmd.Context(), setupEnv(), config)
		if err != nil {
			log.Fatal().Err(err).Msg("smartd setup failed")
		}
		logSetupResult("smartd", res)
	},
}

func init() {
	setupSmartdCmd.Flags().StringSliceVar(&smartdDisks, "disk", nil, "Disk to monitor (repeatable, default DEVICESCAN)")
	setupSmartdCmd.Flags().StringVar(&smartdSchedule, "schedule", smartd.DefaultSchedule, "smartd -s self-test schedule")
	setupSmartdCmd.Flags().IntVar(&smartdTempDiff, "temp-diff", 4, "Report temperature changes of at least this many degrees")
	setupSmartdCmd.Flags().IntVar(&smartdTempInfo, "temp-info", 45, "Log temperatures reaching this value")
	setupSmartdCmd.Flags().IntVar(&smartdTempCrit, "temp-crit", 55, "Mail temperatures reaching this value")
	setupSmartdCmd.Flags().StringVar(&smartdConfPath, "conf", smartd.DefaultConfPath, "smartd configuration file")
}
