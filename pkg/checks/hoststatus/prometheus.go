// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package hoststatus

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	bootTimeGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_host_boot_timestamp_seconds",
			Help: "Unix time the host booted",
		},
		[]string{"node"},
	)

	serviceActiveGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_service_active",
			Help: "1 if the systemd unit is active",
		},
		[]string{"service", "node"},
	)

	serviceUptimeGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_service_uptime_seconds",
			Help: "Seconds since the unit last became active",
		},
		[]string{"service", "node"},
	)
)

// BootRegistry and StatusRegistry hold the series of `notify boot` and
// `notify status`. They are exported to separate files.
var (
	BootRegistry   = prometheus.NewRegistry()
	StatusRegistry = prometheus.NewRegistry()
)

func init() {
	BootRegistry.MustRegister(bootTimeGauge)
	StatusRegistry.MustRegister(serviceActiveGauge)
	StatusRegistry.MustRegister(serviceUptimeGauge)
}

func publishBoot(rep *Report) {
	bootTimeGauge.Reset()
	bootTimeGauge.WithLabelValues(rep.Host.Hostname).Set(float64(rep.Host.BootTime.Unix()))
}

func publishStatus(rep *Report, node string) {
	if node == "" {
		node = rep.Host.Hostname
	}
	serviceActiveGauge.Reset()
	serviceUptimeGauge.Reset()
	for _, s := range rep.Services {
		active := 0.0
		if s.Active() {
			active = 1
		}
		serviceActiveGauge.WithLabelValues(s.Name, node).Set(active)
		if up, ok := s.Uptime(rep.Host.Uptime); ok {
			serviceUptimeGauge.WithLabelValues(s.Name, node).Set(up.Seconds())
		}
	}
}
