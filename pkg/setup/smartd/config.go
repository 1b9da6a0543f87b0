// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartd

const (
	DefaultConfPath = "/etc/smartd.conf"
	// short self-test daily at 02:00, long self-test Saturdays at 03:00
	DefaultSchedule = "(S/../.././02|L/../../6/03)"
	DefaultUnit     = "smartd"
)

type SmartdConfig struct {
	Dest     []string
	Disks    []string // empty monitors every device smartd finds
	Schedule string
	TempDiff int
	TempInfo int
	TempCrit int
	Test     bool // smartd sends a test mail per device on startup
	ConfPath string
	Unit     string
}

func (c *SmartdConfig) applyDefaults() {
	if c.ConfPath == "" {
		c.ConfPath = DefaultConfPath
	}
	if c.Schedule == "" {
		c.Schedule = DefaultSchedule
	}
	if c.Unit == "" {
		c.Unit = DefaultUnit
	}
	if c.TempDiff == 0 {
		c.TempDiff = 4
	}
	if c.TempInfo == 0 {
		c.TempInfo = 45
	}
	if c.TempCrit == 0 {
		c.TempCrit = 55
	}
}
