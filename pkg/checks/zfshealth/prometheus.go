// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package zfshealth

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	poolCapacityGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_zpool_capacity_percent",
			Help: "Allocated share of the pool in percent",
		},
		[]string{"pool", "node"},
	)

	poolHealthyGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_zpool_healthy",
			Help: "1 if the pool health is ONLINE",
		},
		[]string{"pool", "node"},
	)

	datasetMountedGauge = prometheus.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "pve_zfs_dataset_mounted",
			Help: "1 if a dataset that should be mounted is mounted",
		},
		[]string{"dataset", "node"},
	)
)

// Registry holds only the series of this check, exported after each run.
var Registry = prometheus.NewRegistry()

func init() {
	Registry.MustRegister(poolCapacityGauge)
	Registry.MustRegister(poolHealthyGauge)
	Registry.MustRegister(datasetMountedGauge)
}

func PublishToPrometheus(res *Result, cfg ZFSHealthConfig) {
	poolCapacityGauge.Reset()
	poolHealthyGauge.Reset()
	datasetMountedGauge.Reset()
	for _, pool := range res.Pools {
		labels := prometheus.Labels{"pool": pool.Name, "node": cfg.NodeName}
		if pool.Capacity.Valid {
			poolCapacityGauge.With(labels).Set(pool.Capacity.Value)
		}
		healthy := 0.0
		if pool.Health == "ONLINE" {
			healthy = 1
		}
		poolHealthyGauge.With(labels).Set(healthy)
	}

	for _, ds := range res.Datasets {
		if !ds.ExpectsMount() {
			continue
		}
		mounted := 0.0
		if ds.Mounted {
			mounted = 1
		}
		datasetMountedGauge.With(prometheus.Labels{"dataset": ds.Name, "node": cfg.NodeName}).Set(mounted)
	}
}
