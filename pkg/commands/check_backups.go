// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/backupfresh"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

var (
	bfDataset        string
	bfRemoteHost     string
	bfRemoteDataset  string
	bfSSHPort        int
	bfConnectTimeout int
)

var checkBackupsCmd = &cobra.Command{
	Use:   "backups",
	Short: "Check that yesterday's ZFS snapshot exists locally and on the backup host",
	Run: func(cmd *cobra.Command, args []string) {
		config := backupfresh.BackupFreshConfig{
			Dataset:        bfDataset,
			RemoteHost:     bfRemoteHost,
			RemoteDataset:  bfRemoteDataset,
			SSHPort:        bfSSHPort,
			ConnectTimeout: bfConnectTimeout,
		}
		config = mergeBackupFreshConfigWithEnv(config)
		opts := mergeAlertOptionsWithEnv(alertOpts)
		config.NodeName = opts.NodeName

		log.Info().
			Str("dataset", config.Dataset).
			Str("remote_host", config.RemoteHost).
			Str("remote_dataset", config.RemoteDataset).
			Msg("configuration_loaded")
		logAlertOptions(opts, "backups")

		validateAlertOptions(opts)

		runCheck(cmd.Context(), opts, "backups", backupsCheck(config), backupfresh.Registry)
	},
}

func backupsCheck(config backupfresh.BackupFreshConfig) checkFunc {
	return func(ctx context.Context, r hostexec.Runner) (checks.Warnings, error) {
		res, err := backupfresh.Check(ctx, r, config, now())
		if err != nil {
			return checks.Warnings{}, err
		}
		return res.Warnings, nil
	}
}

func mergeBackupFreshConfigWithEnv(cfg backupfresh.BackupFreshConfig) backupfresh.BackupFreshConfig {
	cfg.Dataset = getEnv("PVE_BACKUP_DATASET", cfg.Dataset)
	cfg.RemoteHost = getEnv("PVE_BACKUP_REMOTE", cfg.RemoteHost)
	cfg.RemoteDataset = getEnv("PVE_BACKUP_REMOTE_DATASET", cfg.RemoteDataset)
	cfg.SSHPort = getEnvInt("PVE_BACKUP_SSH_PORT", cfg.SSHPort)
	return cfg
}

func init() {
	checkBackupsCmd.Flags().StringVar(&bfDataset, "dataset", "", "Only look at snapshots of this dataset and its children")
	checkBackupsCmd.Flags().StringVar(&bfRemoteHost, "remote", "", "[user@]host holding the replicated snapshots")
	checkBackupsCmd.Flags().StringVar(&bfRemoteDataset, "remote-dataset", "", "Dataset on the remote host (default all)")
	checkBackupsCmd.Flags().IntVar(&bfSSHPort, "ssh-port", 0, "SSH port of the remote host")
	checkBackupsCmd.Flags().IntVar(&bfConnectTimeout, "connect-timeout", backupfresh.DefaultConnectTimeout, "SSH connect timeout in seconds")
}
