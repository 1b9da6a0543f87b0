// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"bytes"
	"io"

	"github.com/emersion/go-message/mail"
	"github.com/google/uuid"
)

// Compose renders a single part text/plain message.
func Compose(from string, to []string, subject, body string, ac Context) ([]byte, error) {
	var h mail.Header
	h.SetDate(ac.Time)
	h.SetAddressList("From", []*mail.Address{{Address: from}})
	rcpts := make([]*mail.Address, 0, len(to))
	for _, addr := range to {
		rcpts = append(rcpts, &mail.Address{Address: addr})
	}
	h.SetAddressList("To", rcpts)
	h.SetSubject(subject)

	host := ac.Hostname
	if host == "" {
		host = "localhost"
	}
	h.SetMessageID(uuid.NewString() + "@" + host)
	h.Set("X-Mailer", "pvewarden")
	h.Set("X-Pvewarden-Check", ac.Check)
	h.SetContentType("text/plain", map[string]string{"charset": "utf-8"})
	h.Set("Content-Transfer-Encoding", "quoted-printable")

	var buf bytes.Buffer
	w, err := mail.CreateSingleInlineWriter(&buf, h)
	if err != nil {
		return nil, err
	}
	if _, err := io.WriteString(w, body); err != nil {
		return nil, err
	}
	if err := w.Close(); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
