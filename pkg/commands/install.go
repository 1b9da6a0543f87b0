// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/installer"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

var (
	instBinDir         string
	instDest           []string
	instPercentUsed    float64
	instBackupDataset  string
	instBackupRemote   string
	instConfigFile     string
	instSchedule       string
	instCommand        string
	instZFSSchedule    string
	instSmartSchedule  string
	instBackupSchedule string
	instStatusSchedule string
)

var installCmd = &cobra.Command{
	Use:   "install",
	Short: "Copy pvewarden to the bin directory and schedule the checks in cron",
	Run: func(cmd *cobra.Command, args []string) {
		binDir := getEnv("PVE_BIN_DIR", instBinDir)
		opts := installer.Options{
			Binary:         filepath.Join(binDir, installer.DefaultName),
			Dest:           getEnvSlice("PVE_DEST", instDest),
			PercentUsed:    getEnvFloat("PVE_PERCENT_USED", instPercentUsed),
			BackupDataset:  getEnv("PVE_BACKUP_DATASET", instBackupDataset),
			BackupRemote:   getEnv("PVE_BACKUP_REMOTE", instBackupRemote),
			ConfigFile:     instConfigFile,
			ZFSSchedule:    instZFSSchedule,
			SmartSchedule:  instSmartSchedule,
			BackupSchedule: instBackupSchedule,
			StatusSchedule: instStatusSchedule,
		}

		log.Info().
			Str("bin_dir", binDir).
			Strs("dest", opts.Dest).
			Str("config", opts.ConfigFile).
			Str("schedule", instSchedule).
			Str("command", instCommand).
			Msg("configuration_loaded")

		if opts.ConfigFile == "" && len(opts.Dest) == 0 {
			fmt.Println("Warning: --dest or PVE_DEST must be set unless --config is given")
			fmt.Println("One or more required parameters are missing. Please provide them through flags or environment variables.")
			os.Exit(1)
		}
		requireRoot()

		changed, err := executeInstall(cmd.Context(), binDir, installEntries(opts))
		if err != nil {
			log.Fatal().Err(err).Msg("install failed")
		}
		log.Info().Bool("changed", changed).Msg("install finished")
	},
}

// installEntries is the default schedule, or the single entry given with
// --schedule and --command.
func installEntries(opts installer.Options) []installer.Entry {
	if instSchedule == "" || instCommand == "" {
		return installer.DefaultEntries(opts)
	}
	command := opts.Binary + " " + instCommand
	for _, d := range opts.Dest {
		command += " --dest " + d
	}
	return []installer.Entry{{Schedule: instSchedule, Command: command}}
}

func executeInstall(ctx context.Context, binDir string, entries []installer.Entry) (bool, error) {
	self, err := os.Executable()
	if err != nil {
		return false, fmt.Errorf("locating the running binary: %w", err)
	}
	if resolved, err := filepath.EvalSymlinks(self); err == nil {
		self = resolved
	}

	cron := installer.Crontab{Runner: newRunner(dryRun), LockDir: sysconf.DefaultLockDir, DryRun: dryRun}
	if filepath.Clean(self) == filepath.Join(binDir, installer.DefaultName) {
		log.Info().Str("binary", self).Msg("already running the installed binary")
		return cron.Apply(ctx, entries...)
	}
	return installer.Install(ctx, cron, self, binDir, entries)
}

func init() {
	installCmd.Flags().StringVar(&instBinDir, "bin-dir", installer.DefaultBinDir, "Directory the binary is copied to")
	installCmd.Flags().StringSliceVarP(&instDest, "dest", "d", nil, "Alert destination passed to every scheduled check (repeatable)")
	installCmd.Flags().Float64Var(&instPercentUsed, "percent-used", 0, "Pool capacity threshold for the scheduled zfs check")
	installCmd.Flags().StringVar(&instBackupDataset, "backup-dataset", "", "Dataset for the scheduled backup check")
	installCmd.Flags().StringVar(&instBackupRemote, "backup-remote", "", "Remote host for the scheduled backup check")
	installCmd.Flags().StringVar(&instConfigFile, "config", "", "Schedule `run --config <file>` instead of the single checks")
	installCmd.Flags().StringVar(&instSchedule, "schedule", "", "Cron schedule of a single entry, used with --command")
	installCmd.Flags().StringVar(&instCommand, "command", "", "pvewarden arguments of a single entry, e.g. \"check zfs --percent-used 75\"")
	installCmd.Flags().StringVar(&instZFSSchedule, "zfs-schedule", "", "Schedule of the zfs check")
	installCmd.Flags().StringVar(&instSmartSchedule, "smart-schedule", "", "Schedule of the smart check")
	installCmd.Flags().StringVar(&instBackupSchedule, "backup-schedule", "", "Schedule of the backup check")
	installCmd.Flags().StringVar(&instStatusSchedule, "status-schedule", "", "Schedule of the status report")
}
