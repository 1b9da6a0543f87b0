// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smartd

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

func testEnv(t *testing.T) (setup.Env, *hostexec.Fake, string) {
	t.Helper()
	dir := t.TempDir()
	r := hostexec.NewFake()
	return setup.NewEnv(r, sysconf.Writer{LockDir: dir}), r, dir
}

func TestRenderConfDeviceScan(t *testing.T) {
	conf, err := RenderConf(SmartdConfig{Dest: []string{"ops@example.com"}})
	require.NoError(t, err)
	assert.Equal(t, "# Managed by pvewarden setup smartd, local changes are overwritten.\n"+
		"DEVICESCAN -a -o on -S on -n standby,q -s (S/../.././02|L/../../6/03) -W 4,45,55 -m ops@example.com -M exec /usr/share/smartmontools/smartd-runner\n",
		string(conf))
}

func TestRenderConfDisksAndTest(t *testing.T) {
	conf, err := RenderConf(SmartdConfig{
		Dest:  []string{"a@example.com", "b@example.com"},
		Disks: []string{"/dev/sda", "/dev/nvme0"},
		Test:  true,
	})
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSuffix(string(conf), "\n"), "\n")
	require.Len(t, lines, 3)
	assert.Contains(t, lines[1], "/dev/sda -a")
	assert.Contains(t, lines[1], "-m a@example.com,b@example.com")
	assert.Contains(t, lines[1], "-M test")
	assert.Contains(t, lines[2], "/dev/nvme0 -a")
}

func TestSetup(t *testing.T) {
	env, r, dir := testEnv(t)
	path := filepath.Join(dir, "smartd.conf")
	cfg := SmartdConfig{Dest: []string{"ops@example.com"}, ConfPath: path}

	res, err := Setup(context.Background(), env, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{path}, res.Changed)
	assert.Equal(t, []string{"smartd"}, res.Restarted)
	assert.True(t, r.Called("env DEBIAN_FRONTEND=noninteractive apt-get -q -y install --no-install-recommends smartmontools"))
	assert.True(t, r.Called("systemctl enable --now smartd"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "DEVICESCAN")

	// second run changes nothing and does not restart
	res, err = Setup(context.Background(), env, cfg)
	require.NoError(t, err)
	assert.Empty(t, res.Changed)
	assert.Empty(t, res.Restarted)
}

func TestSetupRequiresDest(t *testing.T) {
	env, _, _ := testEnv(t)
	_, err := Setup(context.Background(), env, SmartdConfig{})
	assert.Error(t, err)
}

func TestSetupMissingSmartctl(t *testing.T) {
	env, r, dir := testEnv(t)
	r.Missing["smartctl"] = true

	_, err := Setup(context.Background(), env, SmartdConfig{Dest: []string{"x@example.com"}, ConfPath: filepath.Join(dir, "c")})
	assert.ErrorIs(t, err, hostexec.ErrMissingBinary)
}
