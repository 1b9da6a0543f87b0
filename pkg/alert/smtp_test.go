// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package alert

import (
	"context"
	"io"
	"net"
	"sync"
	"testing"

	"github.com/emersion/go-smtp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
)

type memoryBackend struct {
	mu       sync.Mutex
	from     string
	rcpts    []string
	messages [][]byte
}

func (b *memoryBackend) NewSession(_ *smtp.Conn) (smtp.Session, error) {
	return &memorySession{backend: b}, nil
}

type memorySession struct {
	backend *memoryBackend
}

func (s *memorySession) Mail(from string, _ *smtp.MailOptions) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.from = from
	return nil
}

func (s *memorySession) Rcpt(to string, _ *smtp.RcptOptions) error {
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.rcpts = append(s.backend.rcpts, to)
	return nil
}

func (s *memorySession) Data(r io.Reader) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	s.backend.mu.Lock()
	defer s.backend.mu.Unlock()
	s.backend.messages = append(s.backend.messages, data)
	return nil
}

func (s *memorySession) Reset() {}

func (s *memorySession) Logout() error { return nil }

func startSMTPServer(t *testing.T) (*memoryBackend, string) {
	t.Helper()

	be := &memoryBackend{}
	srv := smtp.NewServer(be)
	srv.Domain = "localhost"
	srv.AllowInsecureAuth = true

	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)

	go func() {
		_ = srv.Serve(l)
	}()
	t.Cleanup(func() { srv.Close() })

	return be, l.Addr().String()
}

func TestSMTPTransportDeliversAlert(t *testing.T) {
	be, addr := startSMTPServer(t)

	d := NewDispatcher(Config{To: []string{"ops@example.com", "oncall@example.com"}}, SMTPTransport{Addr: addr, LocalName: "pve1"})

	var w checks.Warnings
	w.Add("pool rpool capacity 80%% exceeds 75%%")

	sent, err := d.Dispatch(context.Background(), w, testContext)
	require.NoError(t, err)
	assert.True(t, sent)

	be.mu.Lock()
	defer be.mu.Unlock()
	assert.Equal(t, "root@pve1", be.from)
	assert.Equal(t, []string{"ops@example.com", "oncall@example.com"}, be.rcpts)
	require.Len(t, be.messages, 1)
	assert.Contains(t, string(be.messages[0]), "[zfs] 1 warning on pve1")
}

func TestSMTPTransportConnectionRefused(t *testing.T) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	require.NoError(t, err)
	addr := l.Addr().String()
	l.Close()

	err = SMTPTransport{Addr: addr}.Send(context.Background(), "a@b", []string{"c@d"}, []byte("x"))
	assert.Error(t, err)
}
