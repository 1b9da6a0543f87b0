// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Run a host check and mail its warnings",
}

func init() {
	addAlertFlags(checkCmd)

	checkCmd.AddCommand(checkZFSCmd)
	checkCmd.AddCommand(checkSmartCmd)
	checkCmd.AddCommand(checkBackupsCmd)
}
