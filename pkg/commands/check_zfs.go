// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/zfshealth"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

var (
	zfsPercentUsed    float64
	zfsPools          []string
	zfsSkipMounts     bool
	zfsIgnoreDatasets []string
)

var checkZFSCmd = &cobra.Command{
	Use:   "zfs",
	Short: "Check ZFS pool capacity, pool health and dataset mounts",
	Run: func(cmd *cobra.Command, args []string) {
		config := zfshealth.ZFSHealthConfig{
			PercentUsed:    zfsPercentUsed,
			Pools:          zfsPools,
			CheckMounts:    !zfsSkipMounts,
			IgnoreDatasets: zfsIgnoreDatasets,
		}
		config = mergeZFSHealthConfigWithEnv(config)
		opts := mergeAlertOptionsWithEnv(alertOpts)
		config.NodeName = opts.NodeName

		log.Info().
			Float64("percent_used", config.PercentUsed).
			Strs("pools", config.Pools).
			Bool("check_mounts", config.CheckMounts).
			Msg("configuration_loaded")
		logAlertOptions(opts, "zfs")

		validateAlertOptions(opts)

		runCheck(cmd.Context(), opts, "zfs", zfsCheck(config), zfshealth.Registry)
	},
}

func zfsCheck(config zfshealth.ZFSHealthConfig) checkFunc {
	return func(ctx context.Context, r hostexec.Runner) (checks.Warnings, error) {
		res, err := zfshealth.Check(ctx, r, config)
		if err != nil {
			return checks.Warnings{}, err
		}
		return res.Warnings, nil
	}
}

func mergeZFSHealthConfigWithEnv(cfg zfshealth.ZFSHealthConfig) zfshealth.ZFSHealthConfig {
	cfg.PercentUsed = getEnvFloat("PVE_PERCENT_USED", cfg.PercentUsed)
	cfg.Pools = getEnvSlice("PVE_POOLS", cfg.Pools)
	cfg.CheckMounts = getEnvBool("PVE_CHECK_MOUNTS", cfg.CheckMounts)
	cfg.IgnoreDatasets = getEnvSlice("PVE_IGNORE_DATASETS", cfg.IgnoreDatasets)
	return cfg
}

func init() {
	checkZFSCmd.Flags().Float64Var(&zfsPercentUsed, "percent-used", zfshealth.DefaultPercentUsed, "Alert when a pool is more than this percent full")
	checkZFSCmd.Flags().StringSliceVar(&zfsPools, "pool", nil, "Pool to check (repeatable, default all imported pools)")
	checkZFSCmd.Flags().BoolVar(&zfsSkipMounts, "skip-mounts", false, "Do not check that datasets are mounted")
	checkZFSCmd.Flags().StringSliceVar(&zfsIgnoreDatasets, "ignore-dataset", nil, "Dataset excluded from the mount check (repeatable)")
}
