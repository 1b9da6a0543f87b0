// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smarthealth

import (
	"github.com/prometheus/client_golang/prometheus"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
)

var (
	smartPassedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_smart_passed",
			Help: "1 if the SMART overall-health self-assessment passed",
		},
		[]string{"disk", "serial", "node"},
	)

	ssdWearGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "ssd_life_used_percentage",
			Help: "Percentage of SSD life used",
		},
		[]string{"disk", "serial", "node"},
	)

	temperatureGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_temperature_celsius",
			Help: "Disk temperature in Celsius",
		},
		[]string{"disk", "serial", "node"},
	)

	reallocatedSectorsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_reallocated_sectors",
			Help: "Number of reallocated sectors",
		},
		[]string{"disk", "serial", "node"},
	)

	pendingSectorsGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_pending_sectors",
			Help: "Number of pending sectors",
		},
		[]string{"disk", "serial", "node"},
	)

	powerOnHoursGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "disk_power_on_hours",
			Help: "Number of hours the disk has been powered on",
		},
		[]string{"disk", "serial", "node"},
	)
)

// Registry holds only the series of this check, exported after each run.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(smartPassedGauge)
	Registry.MustRegister(ssdWearGauge)
	Registry.MustRegister(temperatureGauge)
	Registry.MustRegister(reallocatedSectorsGauge)
	Registry.MustRegister(pendingSectorsGauge)
	Registry.MustRegister(powerOnHoursGauge)
}

// PublishToPrometheus sets gauges for every reading that is available.
// Series of disks from an earlier run are dropped.
func PublishToPrometheus(reports []DiskReport, cfg SmartHealthConfig) {
	for _, g := range []*prometheus.GaugeVec{smartPassedGauge, ssdWearGauge, temperatureGauge, reallocatedSectorsGauge, pendingSectorsGauge, powerOnHoursGauge} {
		g.Reset()
	}
	for _, rep := range reports {
		labels := prometheus.Labels{
			"disk":   rep.Device,
			"serial": rep.Serial,
			"node":   cfg.NodeName,
		}

		if rep.Passed != nil {
			passed := 0.0
			if *rep.Passed {
				passed = 1
			}
			smartPassedGauge.With(labels).Set(passed)
		}

		setIfValid(ssdWearGauge, labels, rep.Wear)
		setIfValid(temperatureGauge, labels, rep.Temperature)
		setIfValid(reallocatedSectorsGauge, labels, rep.Reallocated)
		setIfValid(pendingSectorsGauge, labels, rep.Pending)
		setIfValid(powerOnHoursGauge, labels, rep.PowerOnHours)
	}
}

func setIfValid(g *prometheus.GaugeVec, labels prometheus.Labels, r checks.Reading) {
	if r.Valid {
		g.With(labels).Set(r.Value)
	}
}
