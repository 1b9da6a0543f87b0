// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"context"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

const DefaultSendmailPath = "/usr/sbin/sendmail"

// SendmailTransport hands the message to the local MTA's sendmail binary.
type SendmailTransport struct {
	Runner hostexec.Runner
	Path   string
}

func (t SendmailTransport) Send(ctx context.Context, from string, to []string, msg []byte) error {
	path := t.Path
	if path == "" {
		path = DefaultSendmailPath
	}
	args := append([]string{"-i", "-f", from, "--"}, to...)
	_, err := t.Runner.RunInput(ctx, msg, path, args...)
	return err
}
