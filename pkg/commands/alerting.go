// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/cobaltcore-dev/pvewarden/pkg/alert"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/metrics"
)

// alertOptions are the flags shared by every command that mails.
type alertOptions struct {
	Dest           []string
	Test           bool
	From           string
	Transport      string
	SMTPAddr       string
	NatsURL        string
	NatsSubject    string
	TextfileDir    string
	PushgatewayURL string
	NodeName       string
}

var alertOpts alertOptions

var (
	newRunner = func(dry bool) hostexec.Runner {
		return hostexec.System{DryRun: dry}
	}
	newTransport = defaultTransport
	now          = time.Now
)

func addAlertFlags(cmd *cobra.Command) {
	f := cmd.PersistentFlags()
	f.StringSliceVarP(&alertOpts.Dest, "dest", "d", nil, "Alert mail destination (repeatable)")
	f.BoolVarP(&alertOpts.Test, "test", "t", false, "Send a TEST alert even when nothing is wrong")
	f.StringVar(&alertOpts.From, "from", "", "Sender address (default root@<hostname>)")
	f.StringVar(&alertOpts.Transport, "mail-transport", "smtp", "How mail is handed to the MTA: smtp or sendmail")
	f.StringVar(&alertOpts.SMTPAddr, "smtp-addr", "127.0.0.1:25", "SMTP address of the local MTA")
	f.StringVar(&alertOpts.NatsURL, "nats-url", "", "NATS server URL to publish alert events to")
	f.StringVar(&alertOpts.NatsSubject, "nats-subject", "pve.alerts", "NATS subject for alert events")
	f.StringVar(&alertOpts.TextfileDir, "textfile-dir", "", "node_exporter textfile collector directory")
	f.StringVar(&alertOpts.PushgatewayURL, "pushgateway-url", "", "Prometheus Pushgateway URL")
	f.StringVar(&alertOpts.NodeName, "node-name", "", "Host name used in alerts (default: system hostname)")
}

func mergeAlertOptionsWithEnv(o alertOptions) alertOptions {
	o.Dest = getEnvSlice("PVE_DEST", o.Dest)
	o.Test = getEnvBool("PVE_TEST", o.Test)
	o.From = getEnv("PVE_FROM", o.From)
	o.Transport = getEnv("PVE_MAIL_TRANSPORT", o.Transport)
	o.SMTPAddr = getEnv("PVE_SMTP_ADDR", o.SMTPAddr)
	o.NatsURL = getEnv("NATS_URL", o.NatsURL)
	o.NatsSubject = getEnv("NATS_SUBJECT", o.NatsSubject)
	o.TextfileDir = getEnv("PVE_TEXTFILE_DIR", o.TextfileDir)
	o.PushgatewayURL = getEnv("PVE_PUSHGATEWAY_URL", o.PushgatewayURL)
	o.NodeName = getEnv("NODE_NAME", o.NodeName)
	return o
}

func logAlertOptions(o alertOptions, check string) {
	event := log.Info().
		Str("check", check).
		Strs("dest", o.Dest).
		Bool("test", o.Test).
		Str("mail_transport", o.Transport).
		Bool("use_nats", o.NatsURL != "")
	if o.NatsURL != "" {
		event.Str("nats_url", o.NatsURL).Str("nats_subject", o.NatsSubject)
	}
	event.Bool("metrics", o.TextfileDir != "" || o.PushgatewayURL != "")
	event.Msg("configuration_loaded")
}

func missingAlertParams(o alertOptions) []string {
	var missing []string
	if len(o.Dest) == 0 {
		missing = append(missing, "Warning: --dest or PVE_DEST must be set")
	}
	switch o.Transport {
	case "smtp", "sendmail":
	default:
		missing = append(missing, fmt.Sprintf("Warning: unknown --mail-transport %q, use smtp or sendmail", o.Transport))
	}
	return missing
}

func validateAlertOptions(o alertOptions) {
	missing := missingAlertParams(o)
	if len(missing) == 0 {
		return
	}
	for _, m := range missing {
		fmt.Println(m)
	}
	fmt.Println("One or more required parameters are missing. Please provide them through flags or environment variables.")
	os.Exit(1)
}

func hostname(o alertOptions) string {
	if o.NodeName != "" {
		return o.NodeName
	}
	h, err := os.Hostname()
	if err != nil {
		log.Warn().Err(err).Msg("cannot determine hostname")
		return "localhost"
	}
	return h
}

func defaultTransport(o alertOptions, r hostexec.Runner) (alert.Transport, error) {
	if dryRun {
		return dryRunTransport{}, nil
	}
	switch o.Transport {
	case "", "smtp":
		return alert.SMTPTransport{Addr: o.SMTPAddr, LocalName: hostname(o)}, nil
	case "sendmail":
		return alert.SendmailTransport{Runner: r}, nil
	}
	return nil, fmt.Errorf("unknown mail transport %q", o.Transport)
}

type dryRunTransport struct{}

func (dryRunTransport) Send(_ context.Context, from string, to []string, msg []byte) error {
	log.Info().Str("from", from).Strs("to", to).Int("bytes", len(msg)).Msg("dry-run: alert not sent")
	fmt.Println(string(msg))
	return nil
}

func newDispatcher(o alertOptions, r hostexec.Runner) (*alert.Dispatcher, func(), error) {
	transport, err := newTransport(o, r)
	if err != nil {
		return nil, nil, err
	}

	cleanup := func() {}
	var publishers []alert.Publisher
	if o.NatsURL != "" {
		p, err := alert.ConnectNATS(o.NatsURL, o.NatsSubject)
		if err != nil {
			log.Error().Err(err).Str("nats_url", o.NatsURL).Msg("error connecting to NATS, alerts are mailed only")
		} else {
			publishers = append(publishers, p)
			cleanup = p.Close
		}
	}

	return alert.NewDispatcher(alert.Config{From: o.From, To: o.Dest, Test: o.Test}, transport, publishers...), cleanup, nil
}

func alertContext(o alertOptions, check string) alert.Context {
	return alert.Context{Check: check, Hostname: hostname(o), Time: now()}
}

func flushMetrics(o alertOptions, check string, series ...prometheus.Gatherer) {
	cfg := metrics.Config{TextfileDir: o.TextfileDir, PushgatewayURL: o.PushgatewayURL, Instance: hostname(o)}
	if !cfg.Enabled() {
		return
	}
	if err := metrics.Flush(cfg, check, series...); err != nil {
		log.Error().Err(err).Str("check", check).Msg("error exporting metrics")
	}
}

type checkFunc func(ctx context.Context, r hostexec.Runner) (checks.Warnings, error)

// executeCheck runs one check and mails its warnings. In test mode a clean
// run still produces a mail so the delivery path can be verified. series
// holds the gauges the check sets, exported next to the run gauges.
func executeCheck(ctx context.Context, o alertOptions, check string, fn checkFunc, series prometheus.Gatherer) (bool, error) {
	r := newRunner(false)
	warnings, err := fn(ctx, r)
	if err != nil {
		return false, fmt.Errorf("%s check: %w", check, err)
	}

	metrics.RecordRun(check, warnings.Len())
	flushMetrics(o, check, series)

	if o.Test && warnings.Empty() {
		warnings.Add("test alert from the %s check, no problems found", check)
	}

	d, cleanup, err := newDispatcher(o, r)
	if err != nil {
		return false, err
	}
	defer cleanup()

	return d.Dispatch(ctx, warnings, alertContext(o, check))
}

func runCheck(ctx context.Context, o alertOptions, check string, fn checkFunc, series prometheus.Gatherer) {
	sent, err := executeCheck(ctx, o, check, fn, series)
	if err != nil {
		log.Fatal().Err(err).Str("check", check).Msg("check failed")
	}
	log.Info().Str("check", check).Bool("alert_sent", sent).Msg("check finished")
}
