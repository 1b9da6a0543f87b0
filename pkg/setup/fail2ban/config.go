// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package fail2ban

import (
	"fmt"
	"regexp"
)

const (
	DefaultJailPath   = "/etc/fail2ban/jail.local"
	DefaultFilterPath = "/etc/fail2ban/filter.d/proxmox.conf"
	DefaultBanTime    = "1h"
	DefaultFindTime   = "10m"
	DefaultMaxRetry   = 5
	DefaultGUIPorts   = "https,http,8006"
)

// seconds or fail2ban time abbreviations such as 1h, 30m or 1d12h
var durationPattern = regexp.MustCompile(`^(-1|\d+|(\d+(s|m|h|d|w|mo|y))+)$`)

type Fail2banConfig struct {
	BanTime    string
	FindTime   string
	MaxRetry   int
	Dest       []string
	Sender     string
	IgnoreIP   []string
	GUIPorts   string
	JailPath   string
	FilterPath string
}

func (c *Fail2banConfig) applyDefaults() {
	if c.BanTime == "" {
		c.BanTime = DefaultBanTime
	}
	if c.FindTime == "" {
		c.FindTime = DefaultFindTime
	}
	if c.MaxRetry == 0 {
		c.MaxRetry = DefaultMaxRetry
	}
	if c.GUIPorts == "" {
		c.GUIPorts = DefaultGUIPorts
	}
	if len(c.IgnoreIP) == 0 {
		c.IgnoreIP = []string{"127.0.0.1/8", "::1"}
	}
	if c.JailPath == "" {
		c.JailPath = DefaultJailPath
	}
	if c.FilterPath == "" {
		c.FilterPath = DefaultFilterPath
	}
}

func (c Fail2banConfig) Validate() error {
	if !durationPattern.MatchString(c.BanTime) {
		return fmt.Errorf("invalid bantime %q", c.BanTime)
	}
	if !durationPattern.MatchString(c.FindTime) {
		return fmt.Errorf("invalid findtime %q", c.FindTime)
	}
	if c.MaxRetry < 1 {
		return fmt.Errorf("maxretry must be positive, got %d", c.MaxRetry)
	}
	return nil
}
