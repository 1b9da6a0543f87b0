// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package postfix

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

func testConfig(dir string) PostfixConfig {
	return PostfixConfig{
		RelayHost: "smtp.office365.com",
		Username:  "pve@example.com",
		Password:  "s3cret",
		From:      "pve@example.com",
		Hostname:  "pve1",
		Dir:       dir,
	}
}

func TestValidate(t *testing.T) {
	assert.Error(t, PostfixConfig{From: "a@b"}.Validate())
	assert.Error(t, PostfixConfig{RelayHost: "h"}.Validate())
	assert.Error(t, PostfixConfig{RelayHost: "h", From: "a@b", Username: "u"}.Validate())
	assert.NoError(t, PostfixConfig{RelayHost: "h", From: "a@b"}.Validate())
}

func TestMainSettings(t *testing.T) {
	settings := MainSettings(testConfig("/etc/postfix"))
	assert.Equal(t, "[smtp.office365.com]:587", settings["relayhost"])
	assert.Equal(t, "yes", settings["smtp_sasl_auth_enable"])
	assert.Equal(t, "hash:/etc/postfix/sasl_passwd", settings["smtp_sasl_password_maps"])
	assert.Equal(t, "noanonymous", settings["smtp_sasl_security_options"])
	assert.Equal(t, "encrypt", settings["smtp_tls_security_level"])

	anon := MainSettings(PostfixConfig{RelayHost: "exch.local", RelayPort: 25, From: "a@b"})
	assert.Equal(t, "[exch.local]:25", anon["relayhost"])
	assert.Equal(t, "no", anon["smtp_sasl_auth_enable"])
	assert.NotContains(t, anon, "smtp_sasl_password_maps")
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "main.cf"),
		[]byte("myhostname = pve1.example.com\nrelayhost =\n"), 0644))

	r := hostexec.NewFake()
	env := setup.NewEnv(r, sysconf.Writer{LockDir: dir})

	res, err := Setup(context.Background(), env, testConfig(dir))
	require.NoError(t, err)
	assert.Len(t, res.Changed, 4)
	assert.Equal(t, []string{"postfix"}, res.Restarted)

	main, err := os.ReadFile(filepath.Join(dir, "main.cf"))
	require.NoError(t, err)
	assert.Contains(t, string(main), "myhostname = pve1.example.com\nrelayhost = [smtp.office365.com]:587\n")

	sasl, err := os.ReadFile(filepath.Join(dir, "sasl_passwd"))
	require.NoError(t, err)
	assert.Equal(t, "[smtp.office365.com]:587 pve@example.com:s3cret\n", string(sasl))
	info, err := os.Stat(filepath.Join(dir, "sasl_passwd"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0600), info.Mode().Perm())

	canonical, err := os.ReadFile(filepath.Join(dir, "sender_canonical"))
	require.NoError(t, err)
	assert.Equal(t, "/.+/ pve@example.com\n", string(canonical))

	assert.True(t, r.Called("debconf-set-selections"))
	assert.True(t, r.Called("postmap hash:"+filepath.Join(dir, "sasl_passwd")))
	assert.True(t, r.Called("postfix check"))

	// rerun with the map built changes nothing and only reloads
	buildMap(t, filepath.Join(dir, "sasl_passwd"))
	r.Calls = nil
	res, err = Setup(context.Background(), env, testConfig(dir))
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.False(t, r.Called("postmap"))
	assert.False(t, r.Called("systemctl restart postfix"))
	assert.True(t, r.Called("postfix check"))
	assert.True(t, r.Called("systemctl reload postfix"))
}

// buildMap stands in for postmap creating the hash table.
func buildMap(t *testing.T, source string) {
	t.Helper()
	db := source + ".db"
	require.NoError(t, os.WriteFile(db, []byte("db"), 0600))
	later := time.Now().Add(time.Minute)
	require.NoError(t, os.Chtimes(db, later, later))
}

func TestSetupRecoversAfterFailedPostmap(t *testing.T) {
	dir := t.TempDir()
	saslPath := filepath.Join(dir, "sasl_passwd")
	r := hostexec.NewFake().Fail("postmap hash:"+saslPath, errors.New("postmap: fatal: open database"))
	env := setup.NewEnv(r, sysconf.Writer{LockDir: dir})

	_, err := Setup(context.Background(), env, testConfig(dir))
	require.ErrorContains(t, err, "postmap")
	assert.False(t, r.Called("postfix check"))

	// files are already in place, the table is still missing
	delete(r.Errors, "postmap hash:"+saslPath)
	r.Calls = nil
	res, err := Setup(context.Background(), env, testConfig(dir))
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.True(t, r.Called("postmap hash:"+saslPath))
	assert.True(t, r.Called("postfix check"))
	assert.True(t, r.Called("systemctl reload postfix"))
}

func TestSetupRejectedConfig(t *testing.T) {
	dir := t.TempDir()
	r := hostexec.NewFake().Fail("postfix check", errors.New("fatal: bad map"))
	env := setup.NewEnv(r, sysconf.Writer{LockDir: dir})

	_, err := Setup(context.Background(), env, testConfig(dir))
	assert.ErrorContains(t, err, "postfix rejected")
	assert.False(t, r.Called("systemctl restart postfix"))
}

func TestSetupMissingPostmap(t *testing.T) {
	dir := t.TempDir()
	r := hostexec.NewFake()
	r.Missing["postmap"] = true

	_, err := Setup(context.Background(), setup.NewEnv(r, sysconf.Writer{LockDir: dir}), testConfig(dir))
	assert.ErrorIs(t, err, hostexec.ErrMissingBinary)
}
