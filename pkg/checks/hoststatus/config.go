// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package hoststatus

import "time"

// DefaultServices are the Proxmox daemons a healthy node runs.
var DefaultServices = []string{"pve-cluster", "pvedaemon", "pveproxy", "pvestatd"}

const (
	DefaultMinServiceUptime = 10 * time.Minute
	DefaultRootPercentUsed  = 90
)

type HostStatusConfig struct {
	Services          []string
	MinServiceUptime  time.Duration // a service restarted more recently is reported as flapping
	RootPercentUsed   float64
	MemoryPercentUsed float64
	NodeName          string
}
