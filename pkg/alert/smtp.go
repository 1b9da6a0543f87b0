// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"bytes"
	"context"
	"fmt"
	"io"

	"github.com/emersion/go-smtp"
)

// DefaultSMTPAddr is the local Postfix instance that relays to Exchange.
const DefaultSMTPAddr = "127.0.0.1:25"

// SMTPTransport talks plain SMTP to the local MTA.
type SMTPTransport struct {
	Addr      string
	LocalName string
}

func (t SMTPTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	addr := t.Addr
	if addr == "" {
		addr = DefaultSMTPAddr
	}

	c, err := smtp.Dial(addr)
	if err != nil {
		return fmt.Errorf("connecting to %s: %w", addr, err)
	}
	defer c.Close()

	// cancel a stuck session from the caller's context
	done := make(chan struct{})
	defer close(done)
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-done:
		}
	}()

	if t.LocalName != "" {
		if err := c.Hello(t.LocalName); err != nil {
			return fmt.Errorf("HELO: %w", err)
		}
	}
	if err := c.Mail(from, nil); err != nil {
		return fmt.Errorf("MAIL FROM: %w", err)
	}
	for _, rcpt := range to {
		if err := c.Rcpt(rcpt, nil); err != nil {
			return fmt.Errorf("RCPT TO %s: %w", rcpt, err)
		}
	}

	w, err := c.Data()
	if err != nil {
		return fmt.Errorf("DATA: %w", err)
	}
	if _, err := io.Copy(w, bytes.NewReader(msg)); err != nil {
		return fmt.Errorf("writing message: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("closing DATA: %w", err)
	}
	return c.Quit()
}
