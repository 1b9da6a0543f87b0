// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/nats-io/nats.go"
)

const DefaultNatsSubject = "pve.alerts"

// Event is the JSON document published for every alert sent.
type Event struct {
	ID       string    `json:"id"`
	Hostname string    `json:"hostname"`
	Check    string    `json:"check"`
	Severity string    `json:"severity"` // "warning", or "info" for test messages
	Subject  string    `json:"subject"`
	Warnings []string  `json:"warnings"`
	Test     bool      `json:"test"`
	Time     time.Time `json:"time"`
}

func NewEvent(ac Context, subject string, lines []string, test bool) Event {
	severity := "warning"
	if test {
		severity = "info"
	}
	return Event{
		ID:       uuid.NewString(),
		Hostname: ac.Hostname,
		Check:    ac.Check,
		Severity: severity,
		Subject:  subject,
		Warnings: lines,
		Test:     test,
		Time:     ac.Time.UTC(),
	}
}

type NATSPublisher struct {
	conn    *nats.Conn
	subject string
}

// ConnectNATS opens a connection for alert fan-out. Callers close it with Close.
func ConnectNATS(url, subject string) (*NATSPublisher, error) {
	nc, err := nats.Connect(url, nats.Name("pvewarden"), nats.Timeout(5*time.Second))
	if err != nil {
		return nil, err
	}
	if subject == "" {
		subject = DefaultNatsSubject
	}
	return &NATSPublisher{conn: nc, subject: subject}, nil
}

func (p *NATSPublisher) Publish(_ context.Context, event Event) error {
	data, err := json.Marshal(event)
	if err != nil {
		return err
	}
	if err := p.conn.Publish(p.subject, data); err != nil {
		return err
	}
	return p.conn.FlushTimeout(5 * time.Second)
}

func (p *NATSPublisher) Close() {
	p.conn.Close()
}
