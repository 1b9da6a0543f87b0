// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smarthealth

// Defaults shared by the command line flags and config files.
const (
	DefaultWearPercent           = 80
	DefaultTemperatureCelsius    = 60
	DefaultGrownDefectsThreshold = 10
)

type SmartHealthConfig struct {
	Disks    []string // "*" or empty: every device smartctl --scan-open reports
	NodeName string

	// Alert thresholds
	WearPercent                 float64 // SSD life used, percent
	TemperatureCelsius          float64
	ReallocatedSectorsThreshold int64
	PendingSectorsThreshold     int64
	GrownDefectsThreshold       int64
}
