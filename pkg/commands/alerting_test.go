// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"context"
	"errors"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/pvewarden/pkg/alert"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/config"
	"github.com/cobaltcore-dev/pvewarden/pkg/configbackup"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/installer"
)

type recordingTransport struct {
	messages []string
}

func (t *recordingTransport) Send(_ context.Context, _ string, _ []string, msg []byte) error {
	t.messages = append(t.messages, string(msg))
	return nil
}

// withFakes swaps the runner and transport for the duration of a test.
func withFakes(t *testing.T, fake *hostexec.Fake) *recordingTransport {
	t.Helper()
	rec := &recordingTransport{}

	oldRunner, oldTransport, oldNow := newRunner, newTransport, now
	newRunner = func(bool) hostexec.Runner { return fake }
	newTransport = func(alertOptions, hostexec.Runner) (alert.Transport, error) { return rec, nil }
	now = func() time.Time { return time.Date(2025, 3, 10, 7, 0, 0, 0, time.UTC) }
	t.Cleanup(func() {
		newRunner, newTransport, now = oldRunner, oldTransport, oldNow
	})
	return rec
}

func testOptions() alertOptions {
	return alertOptions{Dest: []string{"ops@example.com"}, Transport: "smtp", NodeName: "pve1"}
}

func TestExecuteCheckSendsWarnings(t *testing.T) {
	rec := withFakes(t, hostexec.NewFake())

	sent, err := executeCheck(context.Background(), testOptions(), "zfs", func(context.Context, hostexec.Runner) (checks.Warnings, error) {
		var w checks.Warnings
		w.Add("pool rpool is 91%% full")
		return w, nil
	}, nil)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, rec.messages, 1)
	assert.Contains(t, rec.messages[0], "pool rpool is 91% full")
	assert.Contains(t, rec.messages[0], "[zfs] 1 warning on pve1")
}

func TestExecuteCheckQuietWhenHealthy(t *testing.T) {
	rec := withFakes(t, hostexec.NewFake())

	sent, err := executeCheck(context.Background(), testOptions(), "smart", func(context.Context, hostexec.Runner) (checks.Warnings, error) {
		return checks.Warnings{}, nil
	}, nil)
	require.NoError(t, err)
	assert.False(t, sent)
	assert.Empty(t, rec.messages)
}

func TestExecuteCheckTestModeAlwaysMails(t *testing.T) {
	rec := withFakes(t, hostexec.NewFake())
	o := testOptions()
	o.Test = true

	sent, err := executeCheck(context.Background(), o, "backups", func(context.Context, hostexec.Runner) (checks.Warnings, error) {
		return checks.Warnings{}, nil
	}, nil)
	require.NoError(t, err)
	assert.True(t, sent)
	require.Len(t, rec.messages, 1)
	assert.Contains(t, rec.messages[0], "TEST")
	assert.Contains(t, rec.messages[0], "no problems found")
}

func TestExecuteCheckError(t *testing.T) {
	rec := withFakes(t, hostexec.NewFake())

	_, err := executeCheck(context.Background(), testOptions(), "zfs", func(context.Context, hostexec.Runner) (checks.Warnings, error) {
		return checks.Warnings{}, errors.New("zpool not found")
	}, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "zfs check")
	assert.Empty(t, rec.messages)
}

func TestConfigBackupFailureIsMailed(t *testing.T) {
	rec := withFakes(t, hostexec.NewFake())

	cfg := configbackup.BackupConfig{
		Paths:    []string{t.TempDir() + "/missing"},
		Hostname: "pve1",
		WorkDir:  t.TempDir(),
		Keep:     3,
		Target:   "local",
		LocalDir: t.TempDir(),
	}
	err := executeConfigBackup(context.Background(), testOptions(), cfg)
	require.Error(t, err)
	require.Len(t, rec.messages, 1)
	assert.Contains(t, rec.messages[0], "config backup failed")
}

func TestConfigBackupToLocalTarget(t *testing.T) {
	rec := withFakes(t, hostexec.NewFake())

	src := t.TempDir()
	require.NoError(t, writeTestFile(src+"/storage.cfg", "dir: local\n"))
	dest := t.TempDir()

	cfg := configbackup.BackupConfig{
		Paths:    []string{src},
		Hostname: "pve1",
		WorkDir:  t.TempDir(),
		Keep:     3,
		Target:   "local",
		LocalDir: dest,
	}
	require.NoError(t, executeConfigBackup(context.Background(), testOptions(), cfg))
	assert.Empty(t, rec.messages)

	names, err := configbackup.LocalTarget{Dir: dest}.List(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{configbackup.ArchiveName("pve1", now())}, names)
}

func TestAlertOptionsFromGlobal(t *testing.T) {
	o := alertOptionsFromGlobal(config.GlobalConfig{Dest: []string{"ops@example.com"}, Transport: "sendmail"})
	assert.Equal(t, "127.0.0.1:25", o.SMTPAddr)
	assert.Equal(t, "pve.alerts", o.NatsSubject)
	assert.Equal(t, "sendmail", o.Transport)
	assert.Empty(t, missingAlertParams(o))
}

func TestInstallEntriesSingleCommand(t *testing.T) {
	oldSchedule, oldCommand := instSchedule, instCommand
	t.Cleanup(func() { instSchedule, instCommand = oldSchedule, oldCommand })

	opts := installer.Options{Binary: "/usr/bin/pvewarden", Dest: []string{"ops@example.com"}}

	instSchedule, instCommand = "", ""
	assert.Equal(t, installer.DefaultEntries(opts), installEntries(opts))

	instSchedule, instCommand = "*/15 * * * *", "check zfs --percent-used 75"
	entries := installEntries(opts)
	require.Len(t, entries, 1)
	assert.Equal(t, "*/15 * * * *", entries[0].Schedule)
	assert.True(t, strings.HasPrefix(entries[0].Command, "/usr/bin/pvewarden check zfs --percent-used 75"))
	assert.Contains(t, entries[0].Command, "--dest ops@example.com")
}

func writeTestFile(path, content string) error {
	return os.WriteFile(path, []byte(content), 0600)
}
