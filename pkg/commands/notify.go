// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks/hoststatus"
	"github.com/cobaltcore-dev/pvewarden/pkg/config"
	"github.com/cobaltcore-dev/pvewarden/pkg/metrics"
)

var (
	notifyConfigFile string
	bootSettle       time.Duration

	statusAlways            bool
	statusServices          []string
	statusMinServiceUptime  time.Duration
	statusRootPercentUsed   float64
	statusMemoryPercentUsed float64
)

// statusReport is replaced in tests.
var statusReport = hoststatus.Status

var notifyCmd = &cobra.Command{
	Use:   "notify",
	Short: "Mail boot and status reports",
}

var notifyBootCmd = &cobra.Command{
	Use:   "boot",
	Short: "Mail a notice that the host booted (run from @reboot cron)",
	Run: func(cmd *cobra.Command, args []string) {
		opts := notifyAlertOptions()
		settle := getEnvDuration("PVE_SETTLE", bootSettle)

		log.Info().Dur("settle", settle).Msg("configuration_loaded")
		logAlertOptions(opts, "boot")
		validateAlertOptions(opts)

		if err := executeBoot(cmd.Context(), opts, settle); err != nil {
			log.Fatal().Err(err).Msg("boot notification failed")
		}
	},
}

var notifyStatusCmd = &cobra.Command{
	Use:   "status",
	Short: "Mail host status, warn about stopped or flapping Proxmox services",
	Run: func(cmd *cobra.Command, args []string) {
		config := hoststatus.HostStatusConfig{
			Services:          statusServices,
			MinServiceUptime:  statusMinServiceUptime,
			RootPercentUsed:   statusRootPercentUsed,
			MemoryPercentUsed: statusMemoryPercentUsed,
		}
		config = mergeHostStatusConfigWithEnv(config)
		opts := notifyAlertOptions()
		config.NodeName = opts.NodeName
		always := getEnvBool("PVE_STATUS_ALWAYS", statusAlways)

		log.Info().
			Strs("services", config.Services).
			Dur("min_service_uptime", config.MinServiceUptime).
			Bool("always", always).
			Msg("configuration_loaded")
		logAlertOptions(opts, "status")
		validateAlertOptions(opts)

		sent, err := executeStatus(cmd.Context(), opts, config, always)
		if err != nil {
			log.Fatal().Err(err).Msg("status notification failed")
		}
		log.Info().Bool("alert_sent", sent).Msg("status finished")
	},
}

// notifyAlertOptions reads the alert settings from --config when given, so
// `notify boot` scheduled next to `run --config` mails the same recipients.
func notifyAlertOptions() alertOptions {
	opts := mergeAlertOptionsWithEnv(alertOpts)
	if notifyConfigFile == "" {
		return opts
	}
	merged, err := alertOptionsFromFile(notifyConfigFile, opts)
	if err != nil {
		log.Fatal().Err(err).Str("config", notifyConfigFile).Msg("error loading config")
	}
	return merged
}

// alertOptionsFromFile takes the global section of a config file. A
// destination given on the command line wins.
func alertOptionsFromFile(path string, cli alertOptions) (alertOptions, error) {
	cfg, err := config.LoadConfig(path)
	if err != nil {
		return alertOptions{}, err
	}
	o := alertOptionsFromGlobal(cfg.Global)
	if len(cli.Dest) > 0 {
		o.Dest = cli.Dest
	}
	o.Test = o.Test || cli.Test
	return o, nil
}

// executeBoot waits for the services to settle and mails the boot notice.
func executeBoot(ctx context.Context, o alertOptions, settle time.Duration) error {
	if settle > 0 {
		log.Info().Dur("settle", settle).Msg("waiting before sending boot notice")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(settle):
		}
	}

	rep, err := hoststatus.Boot(ctx)
	if err != nil {
		return err
	}
	metrics.RecordRun("boot", 0)
	flushMetrics(o, "boot", hoststatus.BootRegistry)

	d, cleanup, err := newDispatcher(o, newRunner(false))
	if err != nil {
		return err
	}
	defer cleanup()

	ac := alertContext(o, "boot")
	return d.Send(ctx, ac, fmt.Sprintf("%s booted", ac.Hostname), rep.Lines)
}

// executeStatus mails the status report when something is wrong, or always
// when requested.
func executeStatus(ctx context.Context, o alertOptions, config hoststatus.HostStatusConfig, always bool) (bool, error) {
	r := newRunner(false)
	rep, err := statusReport(ctx, r, config)
	if err != nil {
		return false, err
	}
	metrics.RecordRun("status", rep.Warnings.Len())
	flushMetrics(o, "status", hoststatus.StatusRegistry)

	d, cleanup, err := newDispatcher(o, r)
	if err != nil {
		return false, err
	}
	defer cleanup()

	ac := alertContext(o, "status")
	if !always && !o.Test {
		return d.Dispatch(ctx, rep.Warnings, ac)
	}

	lines := make([]string, 0, rep.Warnings.Len()+len(rep.Lines))
	for _, w := range rep.Warnings.Lines() {
		lines = append(lines, "WARNING: "+w)
	}
	lines = append(lines, rep.Lines...)

	summary := fmt.Sprintf("status of %s", ac.Hostname)
	if n := rep.Warnings.Len(); n > 0 {
		summary = fmt.Sprintf("status of %s, %d warning(s)", ac.Hostname, n)
	}
	if err := d.Send(ctx, ac, summary, lines); err != nil {
		return false, err
	}
	return true, nil
}

func mergeHostStatusConfigWithEnv(cfg hoststatus.HostStatusConfig) hoststatus.HostStatusConfig {
	cfg.Services = getEnvSlice("PVE_SERVICES", cfg.Services)
	cfg.MinServiceUptime = getEnvDuration("PVE_MIN_SERVICE_UPTIME", cfg.MinServiceUptime)
	cfg.RootPercentUsed = getEnvFloat("PVE_ROOT_PERCENT_USED", cfg.RootPercentUsed)
	cfg.MemoryPercentUsed = getEnvFloat("PVE_MEMORY_PERCENT_USED", cfg.MemoryPercentUsed)
	return cfg
}

func init() {
	addAlertFlags(notifyCmd)
	notifyCmd.PersistentFlags().StringVar(&notifyConfigFile, "config", "", "Take the alert settings from the global section of this config file")
	notifyCmd.AddCommand(notifyBootCmd)
	notifyCmd.AddCommand(notifyStatusCmd)

	notifyBootCmd.Flags().DurationVar(&bootSettle, "settle", 60*time.Second, "Wait this long after start before reporting")

	notifyStatusCmd.Flags().BoolVar(&statusAlways, "always", false, "Mail the report even when there are no warnings")
	notifyStatusCmd.Flags().StringSliceVar(&statusServices, "service", hoststatus.DefaultServices, "systemd unit that must be active (repeatable)")
	notifyStatusCmd.Flags().DurationVar(&statusMinServiceUptime, "min-service-uptime", hoststatus.DefaultMinServiceUptime, "Warn when a service restarted more recently than this")
	notifyStatusCmd.Flags().Float64Var(&statusRootPercentUsed, "root-percent-used", hoststatus.DefaultRootPercentUsed, "Warn when the root filesystem is fuller than this percent, 0 disables")
	notifyStatusCmd.Flags().Float64Var(&statusMemoryPercentUsed, "memory-percent-used", 0, "Warn when memory use exceeds this percent, 0 disables")
}
