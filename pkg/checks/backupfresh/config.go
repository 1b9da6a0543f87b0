// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package backupfresh

const DefaultConnectTimeout = 10

type BackupFreshConfig struct {
	Dataset        string // restricts the local listing, recursive
	RemoteHost     string // [user@]host reachable with key based ssh, empty disables the remote check
	RemoteDataset  string
	SSHPort        int
	ConnectTimeout int // seconds
	NodeName       string
}
