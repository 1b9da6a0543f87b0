// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smarthealth

import (
	"strings"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
)

// Vendors report SSD wear under different attribute names and in both
// directions. Remaining-life attributes count their normalised value down
// from 100; used-life attributes carry the used percentage in the raw value.
var remainingLifeAttributes = []string{
	"media_wearout_indicator",
	"wear_leveling_count",
	"percent_lifetime_remain",
	"percent_life_remaining",
	"ssd_life_left",
	"remaining_lifetime_perc",
}

var usedLifeAttributes = []string{
	"percent_lifetime_used",
	"perc_rated_life_used",
	"percentage_used",
	"lifetime_used",
	"drive_life_used",
}

// ssdWear returns the percentage of rated SSD life used.
func ssdWear(data *SmartCtlOutput) checks.Reading {
	if data.NVMeSmartHealthInfoLog != nil {
		return checks.Known(float64(data.NVMeSmartHealthInfoLog.PercentageUsed))
	}
	if data.SCSIPercentageUsedIndic != nil {
		return checks.Known(float64(*data.SCSIPercentageUsedIndic))
	}
	if data.ATASMARTAttributes == nil {
		return checks.Unavailable()
	}

	byName := make(map[string]SmartCtlATASMARTEntry, len(data.ATASMARTAttributes.Table))
	for _, entry := range data.ATASMARTAttributes.Table {
		byName[strings.ToLower(entry.Name)] = entry
	}

	for _, name := range usedLifeAttributes {
		if entry, found := byName[name]; found {
			return checks.Known(float64(entry.Raw.Value))
		}
	}
	for _, name := range remainingLifeAttributes {
		if entry, found := byName[name]; found {
			return checks.Known(float64(calculatePercentageUsed(entry.Value)))
		}
	}
	return checks.Unavailable()
}

func calculatePercentageUsed(remaining int64) int64 {
	if remaining > 100 {
		return 0
	}
	return 100 - remaining
}

func findSmartAttributeByID(data *SmartCtlOutput, id int64) *SmartCtlATASMARTEntry {
	if data.ATASMARTAttributes == nil {
		return nil
	}
	for i := range data.ATASMARTAttributes.Table {
		if data.ATASMARTAttributes.Table[i].ID == id {
			return &data.ATASMARTAttributes.Table[i]
		}
	}
	return nil
}

func rawAttribute(data *SmartCtlOutput, id int64) checks.Reading {
	if attr := findSmartAttributeByID(data, id); attr != nil {
		return checks.Known(float64(attr.Raw.Value))
	}
	return checks.Unavailable()
}
