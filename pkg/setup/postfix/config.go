// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package postfix

import (
	"errors"
	"fmt"
	"path/filepath"
)

const (
	DefaultDir       = "/etc/postfix"
	DefaultRelayPort = 587
	DefaultCAFile    = "/etc/ssl/certs/ca-certificates.crt"
)

// PostfixConfig describes a satellite Postfix relaying all mail through an
// authenticated Exchange (or Exchange Online) submission endpoint.
type PostfixConfig struct {
	RelayHost string
	RelayPort int
	Username  string
	Password  string
	// every local sender is rewritten to this address, Exchange refuses
	// envelopes that do not match the authenticated mailbox
	From     string
	Hostname string
	Dir      string
	CAFile   string
}

func (c *PostfixConfig) applyDefaults() {
	if c.RelayPort == 0 {
		c.RelayPort = DefaultRelayPort
	}
	if c.Dir == "" {
		c.Dir = DefaultDir
	}
	if c.CAFile == "" {
		c.CAFile = DefaultCAFile
	}
}

func (c PostfixConfig) Validate() error {
	if c.RelayHost == "" {
		return errors.New("relay host is required")
	}
	if c.From == "" {
		return errors.New("sender address is required")
	}
	if c.Username != "" && c.Password == "" {
		return fmt.Errorf("password for %s is required", c.Username)
	}
	return nil
}

func (c PostfixConfig) relay() string {
	return fmt.Sprintf("[%s]:%d", c.RelayHost, c.RelayPort)
}

func (c PostfixConfig) path(name string) string {
	return filepath.Join(c.Dir, name)
}
