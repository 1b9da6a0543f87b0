// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
)

// Transport delivers a fully composed RFC 5322 message.
type Transport interface {
	Send(ctx context.Context, from string, to []string, msg []byte) error
}

// Publisher receives a copy of every alert that was sent. Publisher errors
// are logged and never fail the dispatch.
type Publisher interface {
	Publish(ctx context.Context, event Event) error
}

type Config struct {
	From string
	To   []string
	Test bool
}

// Context describes where and when a check ran.
type Context struct {
	Check    string
	Hostname string
	Time     time.Time
}

type Dispatcher struct {
	cfg        Config
	transport  Transport
	publishers []Publisher
}

func NewDispatcher(cfg Config, transport Transport, publishers ...Publisher) *Dispatcher {
	if cfg.Test {
		log.Info().Msg("test mode: alert subject and body are prefixed with TEST")
	}
	return &Dispatcher{cfg: cfg, transport: transport, publishers: publishers}
}

// Dispatch sends one message containing every warning. Nothing is sent for an
// empty list; the boolean reports whether a message went out.
func (d *Dispatcher) Dispatch(ctx context.Context, warnings checks.Warnings, ac Context) (bool, error) {
	if warnings.Empty() {
		log.Info().Str("check", ac.Check).Msg("no warnings, no alert sent")
		return false, nil
	}

	summary := fmt.Sprintf("%d warning(s) on %s", warnings.Len(), ac.Hostname)
	if warnings.Len() == 1 {
		summary = fmt.Sprintf("1 warning on %s", ac.Hostname)
	}
	if err := d.Send(ctx, ac, summary, warnings.Lines()); err != nil {
		return false, err
	}
	return true, nil
}

// Send delivers a report unconditionally. Boot and status notifications use it
// directly.
func (d *Dispatcher) Send(ctx context.Context, ac Context, summary string, lines []string) error {
	if len(d.cfg.To) == 0 {
		return fmt.Errorf("no alert destination configured")
	}
	if ac.Time.IsZero() {
		ac.Time = time.Now()
	}

	subject := Subject(ac.Check, summary, d.cfg.Test)
	body := Body(ac, lines, d.cfg.Test)

	from := d.cfg.From
	if from == "" {
		from = DefaultSender(ac.Hostname)
	}

	msg, err := Compose(from, d.cfg.To, subject, body, ac)
	if err != nil {
		return fmt.Errorf("composing alert: %w", err)
	}

	if err := d.transport.Send(ctx, from, d.cfg.To, msg); err != nil {
		return fmt.Errorf("sending alert to %s: %w", strings.Join(d.cfg.To, ","), err)
	}

	log.Info().
		Str("check", ac.Check).
		Strs("to", d.cfg.To).
		Int("warnings", len(lines)).
		Bool("test", d.cfg.Test).
		Msg("alert sent")

	event := NewEvent(ac, subject, lines, d.cfg.Test)
	for _, p := range d.publishers {
		if err := p.Publish(ctx, event); err != nil {
			log.Error().Err(err).Str("check", ac.Check).Msg("error publishing alert event")
		}
	}
	return nil
}

func Subject(check, summary string, test bool) string {
	s := fmt.Sprintf("[%s] %s", check, summary)
	if test {
		s = "TEST " + s
	}
	return s
}

func Body(ac Context, lines []string, test bool) string {
	var b strings.Builder
	if test {
		b.WriteString("TEST message, no action required.\n\n")
	}
	fmt.Fprintf(&b, "Host:  %s\n", ac.Hostname)
	fmt.Fprintf(&b, "Time:  %s\n", ac.Time.Format(time.RFC1123))
	fmt.Fprintf(&b, "Check: %s\n\n", ac.Check)
	for _, line := range lines {
		fmt.Fprintf(&b, "- %s\n", line)
	}
	return b.String()
}

func DefaultSender(hostname string) string {
	if hostname == "" {
		hostname = "localhost"
	}
	return "root@" + hostname
}
