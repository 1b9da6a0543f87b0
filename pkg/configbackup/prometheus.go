// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package configbackup

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

var (
	lastSuccessGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_config_backup_last_success_timestamp_seconds",
			Help: "Unix time of the last successful config backup",
		},
		[]string{"target", "node"},
	)

	sizeGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_config_backup_size_bytes",
			Help: "Size of the last config backup archive",
		},
		[]string{"target", "node"},
	)
)

// Registry holds only the series of this check, exported after each run.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(lastSuccessGauge)
	Registry.MustRegister(sizeGauge)
}

func PublishToPrometheus(res *Result, cfg BackupConfig, now time.Time) {
	node := cfg.NodeName
	if node == "" {
		node = cfg.Hostname
	}
	lastSuccessGauge.WithLabelValues(cfg.Target, node).Set(float64(now.Unix()))
	sizeGauge.WithLabelValues(cfg.Target, node).Set(float64(res.Size))
}
