// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/configbackup"
)

var (
	cbPaths       []string
	cbKeep        int
	cbTarget      string
	cbRemoteHost  string
	cbRemoteDir   string
	cbSSHPort     int
	cbLocalDir    string
	cbWorkDir     string
	cbS3Endpoint  string
	cbS3Region    string
	cbS3Bucket    string
	cbS3Prefix    string
	cbS3PathStyle bool
	cbProgress    bool
)

var backupConfigCmd = &cobra.Command{
	Use:   "backup-config",
	Short: "Archive the Proxmox configuration and copy it off the host",
	Run: func(cmd *cobra.Command, args []string) {
		opts := mergeAlertOptionsWithEnv(alertOpts)
		config := configbackup.BackupConfig{
			Paths:    cbPaths,
			Hostname: hostname(opts),
			WorkDir:  cbWorkDir,
			Keep:     cbKeep,
			Target:   cbTarget,
			Remote: configbackup.RemoteConfig{
				Host:    cbRemoteHost,
				Dir:     cbRemoteDir,
				SSHPort: cbSSHPort,
			},
			S3: configbackup.S3Config{
				Endpoint:  cbS3Endpoint,
				Region:    cbS3Region,
				Bucket:    cbS3Bucket,
				Prefix:    cbS3Prefix,
				PathStyle: cbS3PathStyle,
			},
			LocalDir: cbLocalDir,
			Progress: cbProgress,
			NodeName: opts.NodeName,
		}
		config = mergeBackupConfigWithEnv(config)

		log.Info().
			Strs("paths", config.Paths).
			Str("target", config.Target).
			Int("keep", config.Keep).
			Str("remote_host", config.Remote.Host).
			Str("s3_bucket", config.S3.Bucket).
			Msg("configuration_loaded")

		if err := config.Validate(); err != nil {
			fmt.Printf("Warning: %v\n", err)
			fmt.Println("One or more required parameters are missing. Please provide them through flags or environment variables.")
			os.Exit(1)
		}

		if err := executeConfigBackup(cmd.Context(), opts, config); err != nil {
			log.Fatal().Err(err).Msg("config backup failed")
		}
	},
}

// executeConfigBackup runs the backup and mails the failure when a
// destination is configured.
func executeConfigBackup(ctx context.Context, o alertOptions, config configbackup.BackupConfig) error {
	res, err := runConfigBackup(ctx, config)
	if err == nil {
		log.Info().
			Str("archive", res.Archive).
			Str("size", humanize.IBytes(uint64(res.Size))).
			Strs("removed", res.Removed).
			Msg("config backup finished")
		flushMetrics(o, "backup_config", configbackup.Registry)
		return nil
	}

	if len(o.Dest) > 0 {
		d, cleanup, derr := newDispatcher(o, newRunner(false))
		if derr != nil {
			log.Error().Err(derr).Msg("cannot mail backup failure")
			return err
		}
		defer cleanup()
		if serr := d.Send(ctx, alertContext(o, "backup-config"), "config backup failed", []string{err.Error()}); serr != nil {
			log.Error().Err(serr).Msg("cannot mail backup failure")
		}
	}
	return err
}

func runConfigBackup(ctx context.Context, config configbackup.BackupConfig) (*configbackup.Result, error) {
	if dryRun {
		log.Info().Str("target", config.Target).Msg("dry-run: config backup skipped")
		return &configbackup.Result{}, nil
	}
	target, err := configbackup.NewTarget(ctx, newRunner(false), config)
	if err != nil {
		return nil, err
	}
	return configbackup.Run(ctx, config, target, now())
}

func mergeBackupConfigWithEnv(cfg configbackup.BackupConfig) configbackup.BackupConfig {
	cfg.Paths = getEnvSlice("PVE_BACKUP_PATHS", cfg.Paths)
	cfg.Keep = getEnvInt("PVE_BACKUP_KEEP", cfg.Keep)
	cfg.Target = getEnv("PVE_BACKUP_TARGET", cfg.Target)
	cfg.Remote.Host = getEnv("PVE_BACKUP_REMOTE", cfg.Remote.Host)
	cfg.Remote.Dir = getEnv("PVE_BACKUP_REMOTE_DIR", cfg.Remote.Dir)
	cfg.Remote.SSHPort = getEnvInt("PVE_BACKUP_SSH_PORT", cfg.Remote.SSHPort)
	cfg.LocalDir = getEnv("PVE_BACKUP_DIR", cfg.LocalDir)
	cfg.S3.Endpoint = getEnv("S3_ENDPOINT", cfg.S3.Endpoint)
	cfg.S3.Region = getEnv("S3_REGION", cfg.S3.Region)
	cfg.S3.Bucket = getEnv("S3_BUCKET", cfg.S3.Bucket)
	cfg.S3.Prefix = getEnv("S3_PREFIX", cfg.S3.Prefix)
	cfg.S3.AccessKey = getEnv("ACCESS_KEY", cfg.S3.AccessKey)
	cfg.S3.SecretKey = getEnv("SECRET_KEY", cfg.S3.SecretKey)
	cfg.S3.PathStyle = getEnvBool("S3_PATH_STYLE", cfg.S3.PathStyle)
	return cfg
}

func init() {
	addAlertFlags(backupConfigCmd)
	backupConfigCmd.Flags().StringSliceVar(&cbPaths, "path", configbackup.DefaultPaths, "File or directory to archive (repeatable, replaces the default list)")
	backupConfigCmd.Flags().IntVar(&cbKeep, "keep", configbackup.DefaultKeep, "Archives kept on the target")
	backupConfigCmd.Flags().StringVar(&cbTarget, "target", "rsync", "Where archives go: rsync, s3 or local")
	backupConfigCmd.Flags().StringVar(&cbRemoteHost, "remote", "", "[user@]host for the rsync target")
	backupConfigCmd.Flags().StringVar(&cbRemoteDir, "remote-dir", "", "Directory on the remote host")
	backupConfigCmd.Flags().IntVar(&cbSSHPort, "ssh-port", 0, "SSH port of the remote host")
	backupConfigCmd.Flags().StringVar(&cbLocalDir, "dir", "", "Directory for the local target")
	backupConfigCmd.Flags().StringVar(&cbWorkDir, "work-dir", "", "Directory the archive is built in (default system temp dir)")
	backupConfigCmd.Flags().StringVar(&cbS3Endpoint, "s3-endpoint", "", "S3 endpoint URL for RGW or MinIO")
	backupConfigCmd.Flags().StringVar(&cbS3Region, "s3-region", "", "S3 region")
	backupConfigCmd.Flags().StringVar(&cbS3Bucket, "s3-bucket", "", "S3 bucket")
	backupConfigCmd.Flags().StringVar(&cbS3Prefix, "s3-prefix", "", "Key prefix inside the bucket")
	backupConfigCmd.Flags().BoolVar(&cbS3PathStyle, "s3-path-style", false, "Use path style bucket addressing")
	backupConfigCmd.Flags().BoolVar(&cbProgress, "progress", false, "Show a progress bar while archiving")
}
