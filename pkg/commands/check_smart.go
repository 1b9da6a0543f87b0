// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/smarthealth"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

var (
	smartDisks                       []string
	smartWearPercent                 float64
	smartTemperatureCelsius          float64
	smartReallocatedSectorsThreshold int64
	smartPendingSectorsThreshold     int64
	smartGrownDefectsThreshold       int64
)

var checkSmartCmd = &cobra.Command{
	Use:   "smart",
	Short: "Check SMART health, SSD wear and sector counters of the disks",
	Run: func(cmd *cobra.Command, args []string) {
		config := smarthealth.SmartHealthConfig{
			Disks:                       smartDisks,
			WearPercent:                 smartWearPercent,
			TemperatureCelsius:          smartTemperatureCelsius,
			ReallocatedSectorsThreshold: smartReallocatedSectorsThreshold,
			PendingSectorsThreshold:     smartPendingSectorsThreshold,
			GrownDefectsThreshold:       smartGrownDefectsThreshold,
		}
		config = mergeSmartHealthConfigWithEnv(config)
		opts := mergeAlertOptionsWithEnv(alertOpts)
		config.NodeName = opts.NodeName

		log.Info().
			Strs("disks", config.Disks).
			Float64("wear_percent", config.WearPercent).
			Float64("temperature_celsius", config.TemperatureCelsius).
			Int64("reallocated_sectors_threshold", config.ReallocatedSectorsThreshold).
			Int64("pending_sectors_threshold", config.PendingSectorsThreshold).
			Msg("configuration_loaded")
		logAlertOptions(opts, "smart")

		validateAlertOptions(opts)

		runCheck(cmd.Context(), opts, "smart", smartCheck(config), smarthealth.Registry)
	},
}

func smartCheck(config smarthealth.SmartHealthConfig) checkFunc {
	return func(ctx context.Context, r hostexec.Runner) (checks.Warnings, error) {
		res, err := smarthealth.Check(ctx, r, config)
		if err != nil {
			return checks.Warnings{}, err
		}
		return res.Warnings, nil
	}
}

func mergeSmartHealthConfigWithEnv(cfg smarthealth.SmartHealthConfig) smarthealth.SmartHealthConfig {
	cfg.Disks = getEnvSlice("DISKS", cfg.Disks)
	cfg.WearPercent = getEnvFloat("PVE_WEAR_PERCENT", cfg.WearPercent)
	cfg.TemperatureCelsius = getEnvFloat("PVE_TEMPERATURE_CELSIUS", cfg.TemperatureCelsius)
	cfg.ReallocatedSectorsThreshold = getEnvInt64("REALLOCATED_SECTORS_THRESHOLD", cfg.ReallocatedSectorsThreshold)
	cfg.PendingSectorsThreshold = getEnvInt64("PENDING_SECTORS_THRESHOLD", cfg.PendingSectorsThreshold)
	cfg.GrownDefectsThreshold = getEnvInt64("GROWN_DEFECTS_THRESHOLD", cfg.GrownDefectsThreshold)
	return cfg
}

func init() {
	checkSmartCmd.Flags().StringSliceVar(&smartDisks, "disk", nil, "Disk to check (repeatable, default every disk smartctl finds)")
	checkSmartCmd.Flags().Float64Var(&smartWearPercent, "wear-percent", smarthealth.DefaultWearPercent, "Alert when an SSD has used more than this percent of its life")
	checkSmartCmd.Flags().Float64Var(&smartTemperatureCelsius, "temperature", smarthealth.DefaultTemperatureCelsius, "Alert above this temperature in Celsius, 0 disables")
	checkSmartCmd.Flags().Int64Var(&smartReallocatedSectorsThreshold, "reallocated-sectors-threshold", 0, "Alert when reallocated sectors exceed this count")
	checkSmartCmd.Flags().Int64Var(&smartPendingSectorsThreshold, "pending-sectors-threshold", 0, "Alert when pending sectors exceed this count")
	checkSmartCmd.Flags().Int64Var(&smartGrownDefectsThreshold, "grown-defects-threshold", smarthealth.DefaultGrownDefectsThreshold, "Alert when SCSI grown defects exceed this count")
}
