// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package metrics

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/push"
	"github.com/rs/zerolog/log"
)

// Config selects where gauges collected during a run end up. Checks are
// short-lived cron jobs, so there is no scrape endpoint: gauges are written
// for the node_exporter textfile collector and/or pushed to a Pushgateway.
type Config struct {
	TextfileDir    string
	PushgatewayURL string
	Instance       string
}

func (c Config) Enabled() bool {
	return c.TextfileDir != "" || c.PushgatewayURL != ""
}

type run struct {
	at       time.Time
	warnings int
}

var (
	mu   sync.Mutex
	runs = map[string]run{}
)

// RecordRun marks a finished check run.
func RecordRun(check string, warnings int) {
	mu.Lock()
	defer mu.Unlock()
	runs[check] = run{at: time.Now(), warnings: warnings}
}

// runGatherer holds the run gauges of a single check, labelled with its name.
func runGatherer(check string) prometheus.Gatherer {
	reg := prometheus.NewRegistry()

	mu.Lock()
	r, ok := runs[check]
	mu.Unlock()
	if !ok {
		return reg
	}

	labels := prometheus.Labels{"check": check}
	lastRun := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "pvewarden_last_run_timestamp_seconds",
		Help:        "Unix time of the last completed check run",
		ConstLabels: labels,
	})
	lastRun.Set(float64(r.at.UnixNano()) / 1e9)
	warnings := prometheus.NewGauge(prometheus.GaugeOpts{
		Name:        "pvewarden_warnings",
		Help:        "Number of warnings raised by the last check run",
		ConstLabels: labels,
	})
	warnings.Set(float64(r.warnings))

	reg.MustRegister(lastRun, warnings)
	return reg
}

// Flush exports the run gauges of one check together with the check's own
// series. Nothing from other checks or the Go runtime ends up in the file.
func Flush(cfg Config, check string, series ...prometheus.Gatherer) error {
	gatherers := prometheus.Gatherers{runGatherer(check)}
	for _, g := range series {
		if g != nil {
			gatherers = append(gatherers, g)
		}
	}
	return FlushFrom(cfg, check, gatherers)
}

func FlushFrom(cfg Config, check string, g prometheus.Gatherer) error {
	if cfg.TextfileDir != "" {
		if err := os.MkdirAll(cfg.TextfileDir, 0755); err != nil {
			return fmt.Errorf("creating textfile directory: %w", err)
		}
		path := filepath.Join(cfg.TextfileDir, fmt.Sprintf("pvewarden_%s.prom", check))
		if err := prometheus.WriteToTextfile(path, g); err != nil {
			return fmt.Errorf("writing %s: %w", path, err)
		}
		log.Debug().Str("path", path).Msg("metrics written")
	}

	if cfg.PushgatewayURL != "" {
		p := push.New(cfg.PushgatewayURL, "pvewarden_"+check).Gatherer(g)
		if cfg.Instance != "" {
			p = p.Grouping("instance", cfg.Instance)
		}
		if err := p.Push(); err != nil {
			return fmt.Errorf("pushing metrics to %s: %w", cfg.PushgatewayURL, err)
		}
		log.Debug().Str("pushgateway", cfg.PushgatewayURL).Msg("metrics pushed")
	}
	return nil
}
