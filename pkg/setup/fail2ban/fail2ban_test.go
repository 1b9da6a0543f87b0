// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package fail2ban

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

func TestValidate(t *testing.T) {
	for _, ok := range []string{"600", "-1", "1h", "10m", "1d12h", "2w"} {
		cfg := Fail2banConfig{BanTime: ok}
		cfg.applyDefaults()
		assert.NoError(t, cfg.Validate(), ok)
	}
	for _, bad := range []string{"1 hour", "h", "10x", "1.5h"} {
		cfg := Fail2banConfig{BanTime: bad}
		cfg.applyDefaults()
		assert.Error(t, cfg.Validate(), bad)
	}
}

func TestRenderJail(t *testing.T) {
	jail, err := RenderJail(Fail2banConfig{BanTime: "2h", Dest: []string{"ops@example.com"}, Sender: "root@pve1"})
	require.NoError(t, err)

	s := string(jail)
	assert.Contains(t, s, "bantime = 2h\nfindtime = 10m\nmaxretry = 5\n")
	assert.Contains(t, s, "ignoreip = 127.0.0.1/8 ::1\n")
	assert.Contains(t, s, "destemail = ops@example.com\nsender = root@pve1\naction = %(action_mwl)s\n")
	assert.Contains(t, s, "[proxmox]\nenabled = true\nport = https,http,8006\n")
}

func TestRenderJailWithoutMail(t *testing.T) {
	jail, err := RenderJail(Fail2banConfig{})
	require.NoError(t, err)
	assert.NotContains(t, string(jail), "destemail")
	assert.NotContains(t, string(jail), "action")
}

func TestSetup(t *testing.T) {
	dir := t.TempDir()
	r := hostexec.NewFake()
	env := setup.NewEnv(r, sysconf.Writer{LockDir: dir})
	cfg := Fail2banConfig{
		BanTime:    "1d",
		JailPath:   filepath.Join(dir, "jail.local"),
		FilterPath: filepath.Join(dir, "filter.d", "proxmox.conf"),
	}

	res, err := Setup(context.Background(), env, cfg)
	require.NoError(t, err)
	assert.Len(t, res.Changed, 2)
	assert.Equal(t, []string{"fail2ban"}, res.Restarted)
	assert.True(t, r.Called("systemctl enable --now fail2ban"))

	filter, err := os.ReadFile(cfg.FilterPath)
	require.NoError(t, err)
	assert.Contains(t, string(filter), "rhost=<HOST>")

	res, err = Setup(context.Background(), env, cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Restarted)
}

func TestSetupInvalidBanTime(t *testing.T) {
	r := hostexec.NewFake()
	_, err := Setup(context.Background(), setup.NewEnv(r, sysconf.Writer{}), Fail2banConfig{BanTime: "forever"})
	assert.ErrorContains(t, err, "invalid bantime")
	assert.Empty(t, r.Calls)
}
