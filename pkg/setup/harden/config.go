// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package harden

const (
	DefaultSysctlPath     = "/etc/sysctl.d/99-pvewarden.conf"
	DefaultSSHDConfigPath = "/etc/ssh/sshd_config"
	DefaultAptSourcesDir  = "/etc/apt/sources.list.d"
	DefaultOSReleasePath  = "/etc/os-release"
)

// DefaultPackages is the baseline tool set of a node.
var DefaultPackages = []string{
	"chrony",
	"curl",
	"htop",
	"iotop",
	"lsof",
	"rsync",
	"smartmontools",
	"sysstat",
	"tmux",
	"unattended-upgrades",
	"vim",
}

// DefaultSysctl keeps the network settings a hypervisor needs (forwarding,
// bridges) and tightens the rest.
var DefaultSysctl = map[string]string{
	"kernel.kptr_restrict":                      "2",
	"kernel.dmesg_restrict":                     "1",
	"fs.protected_hardlinks":                    "1",
	"fs.protected_symlinks":                     "1",
	"net.ipv4.tcp_syncookies":                   "1",
	"net.ipv4.conf.all.accept_redirects":        "0",
	"net.ipv4.conf.default.accept_redirects":    "0",
	"net.ipv4.conf.all.send_redirects":          "0",
	"net.ipv4.conf.all.accept_source_route":     "0",
	"net.ipv4.conf.default.accept_source_route": "0",
	"net.ipv4.conf.all.log_martians":            "1",
	"net.ipv4.icmp_echo_ignore_broadcasts":      "1",
	"net.ipv6.conf.all.accept_redirects":        "0",
	"net.ipv6.conf.default.accept_redirects":    "0",
}

var sshdSettings = map[string]string{
	"PermitRootLogin":        "prohibit-password",
	"PasswordAuthentication": "no",
	"X11Forwarding":          "no",
	"MaxAuthTries":           "4",
}

type HardenConfig struct {
	Packages    []string
	DistUpgrade bool
	Sysctl      map[string]string
	SSH         bool
	// switch from the enterprise repository to pve-no-subscription
	NoSubscription bool

	SysctlPath     string
	SSHDConfigPath string
	AptSourcesDir  string
	OSReleasePath  string
}

func (c *HardenConfig) applyDefaults() {
	if c.Packages == nil {
		c.Packages = DefaultPackages
	}
	if c.Sysctl == nil {
		c.Sysctl = DefaultSysctl
	}
	if c.SysctlPath == "" {
		c.SysctlPath = DefaultSysctlPath
	}
	if c.SSHDConfigPath == "" {
		c.SSHDConfigPath = DefaultSSHDConfigPath
	}
	if c.AptSourcesDir == "" {
		c.AptSourcesDir = DefaultAptSourcesDir
	}
	if c.OSReleasePath == "" {
		c.OSReleasePath = DefaultOSReleasePath
	}
}
