// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package configbackup

import "fmt"

const DefaultKeep = 7

// DefaultPaths is what a node needs to be rebuilt: cluster filesystem,
// network setup and everything pvewarden configures.
var DefaultPaths = []string{
	"/etc/pve",
	"/etc/network/interfaces",
	"/etc/hosts",
	"/etc/hostname",
	"/etc/resolv.conf",
	"/etc/postfix",
	"/etc/smartd.conf",
	"/etc/fail2ban/jail.local",
	"/etc/fail2ban/filter.d/proxmox.conf",
	"/etc/sysctl.d",
	"/etc/ssh/sshd_config",
	"/var/spool/cron/crontabs",
}

type RemoteConfig struct {
	Host    string
	Dir     string
	SSHPort int
}

type S3Config struct {
	Endpoint  string
	Region    string
	Bucket    string
	Prefix    string
	AccessKey string
	SecretKey string
	PathStyle bool
}

type BackupConfig struct {
	Paths    []string
	Hostname string
	WorkDir  string
	Keep     int
	Target   string // rsync, s3 or local
	Remote   RemoteConfig
	S3       S3Config
	LocalDir string
	Progress bool
	NodeName string
}

func (c *BackupConfig) applyDefaults() {
	if len(c.Paths) == 0 {
		c.Paths = DefaultPaths
	}
	if c.Keep == 0 {
		c.Keep = DefaultKeep
	}
	if c.Target == "" {
		c.Target = "rsync"
	}
}

func (c BackupConfig) Validate() error {
	if c.Hostname == "" {
		return fmt.Errorf("hostname is required to name the archive")
	}
	if c.Keep < 1 {
		return fmt.Errorf("keep must be at least 1, got %d", c.Keep)
	}
	switch c.Target {
	case "rsync":
		if c.Remote.Host == "" || c.Remote.Dir == "" {
			return fmt.Errorf("rsync target needs a remote host and directory")
		}
	case "s3":
		if c.S3.Bucket == "" {
			return fmt.Errorf("s3 target needs a bucket")
		}
	case "local":
		if c.LocalDir == "" {
			return fmt.Errorf("local target needs a directory")
		}
	default:
		return fmt.Errorf("unknown backup target %q", c.Target)
	}
	return nil
}
