// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package backupfresh

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	backupFreshGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_backup_snapshot_fresh",
			Help: "1 if a snapshot from yesterday exists at the location",
		},
		[]string{"location", "node"},
	)

	latestSnapshotGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_backup_latest_snapshot_timestamp_seconds",
			Help: "Creation time of the newest snapshot at the location",
		},
		[]string{"location", "node"},
	)
)

// Registry holds only the series of this check, exported after each run.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(backupFreshGauge)
	Registry.MustRegister(latestSnapshotGauge)
}

func PublishToPrometheus(res *Result, cfg BackupFreshConfig) {
	backupFreshGauge.Reset()
	latestSnapshotGauge.Reset()
	for _, loc := range res.Locations {
		labels := prometheus.Labels{"location": loc.Name, "node": cfg.NodeName}
		fresh := 0.0
		if loc.Fresh {
			fresh = 1
		}
		backupFreshGauge.With(labels).Set(fresh)

		if latest, ok := Latest(loc.Snapshots); ok {
			latestSnapshotGauge.With(labels).Set(float64(latest.Created.Unix()))
		}
	}
}
