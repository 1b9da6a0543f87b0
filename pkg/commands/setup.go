// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"fmt"
	"os"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

var (
	setupKeepBackups int
	setupLockDir     string
)

var setupCmd = &cobra.Command{
	Use:   "setup",
	Short: "Install and configure host services",
}

func init() {
	addAlertFlags(setupCmd)
	setupCmd.PersistentFlags().IntVar(&setupKeepBackups, "keep-backups", sysconf.DefaultKeep, "Timestamped backups kept per rewritten config file")
	setupCmd.PersistentFlags().StringVar(&setupLockDir, "lock-dir", sysconf.DefaultLockDir, "Directory for the config file locks")

	setupCmd.AddCommand(setupSmartdCmd)
	setupCmd.AddCommand(setupPostfixCmd)
	setupCmd.AddCommand(setupFail2banCmd)
	setupCmd.AddCommand(setupHardenCmd)
}

func setupEnv() setup.Env {
	return setup.NewEnv(newRunner(dryRun), sysconf.Writer{
		Keep:    getEnvInt("PVE_KEEP_BACKUPS", setupKeepBackups),
		LockDir: setupLockDir,
		DryRun:  dryRun,
	})
}

// requireRoot exits unless the process may write /etc.
func requireRoot() {
	if dryRun || os.Geteuid() == 0 {
		return
	}
	fmt.Println("This command changes system configuration and must run as root.")
	os.Exit(1)
}

func logSetupResult(name string, res *setup.Result) {
	log.Info().
		Str("setup", name).
		Strs("changed", res.Changed).
		Strs("restarted", res.Restarted).
		Bool("dry_run", dryRun).
		Msg("setup finished")
}
