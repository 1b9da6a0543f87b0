// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package harden

import (
	"context"
	"errors"
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

func testConfig(dir string) HardenConfig {
	return HardenConfig{
		Packages:       []string{"vim"},
		SysctlPath:     filepath.Join(dir, "sysctl.d", "99-pvewarden.conf"),
		SSHDConfigPath: filepath.Join(dir, "sshd_config"),
		AptSourcesDir:  filepath.Join(dir, "sources.list.d"),
		OSReleasePath:  filepath.Join(dir, "os-release"),
	}
}

func TestCodename(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "os-release")
	require.NoError(t, os.WriteFile(path, []byte("PRETTY_NAME=\"Debian GNU/Linux 12 (bookworm)\"\nVERSION_CODENAME=bookworm\n"), 0644))

	name, err := Codename(path)
	require.NoError(t, err)
	assert.Equal(t, "bookworm", name)

	require.NoError(t, os.WriteFile(path, []byte("ID=debian\n"), 0644))
	_, err = Codename(path)
	assert.Error(t, err)
}

func TestDisableDebLines(t *testing.T) {
	out := DisableDebLines([]byte("deb https://enterprise.proxmox.com/debian/pve bookworm pve-enterprise\n# note\n"))
	assert.Equal(t, "# deb https://enterprise.proxmox.com/debian/pve bookworm pve-enterprise\n# note\n", string(out))
}

func TestSetupSysctlAndPackages(t *testing.T) {
	dir := t.TempDir()
	r := hostexec.NewFake()
	env := setup.NewEnv(r, sysconf.Writer{LockDir: dir})
	cfg := testConfig(dir)
	cfg.DistUpgrade = true
	cfg.Sysctl = map[string]string{"kernel.kptr_restrict": "2"}

	res, err := Setup(context.Background(), env, cfg)
	require.NoError(t, err)
	assert.Equal(t, []string{cfg.SysctlPath}, res.Changed)

	assert.Equal(t, []string{
		"env DEBIAN_FRONTEND=noninteractive apt-get -q -y update",
		"env DEBIAN_FRONTEND=noninteractive apt-get -q -y -o Dpkg::Options::=--force-confold dist-upgrade",
		"dpkg-query -W -f=${Status} vim",
		"env DEBIAN_FRONTEND=noninteractive apt-get -q -y install --no-install-recommends vim",
		"sysctl --system",
	}, r.Calls)

	data, err := os.ReadFile(cfg.SysctlPath)
	require.NoError(t, err)
	assert.Equal(t, "kernel.kptr_restrict = 2\n", string(data))

	r.Calls = nil
	_, err = Setup(context.Background(), env, cfg)
	require.NoError(t, err)
	assert.False(t, r.Called("sysctl"))
}

func TestSetupSSH(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.SSH = true
	require.NoError(t, os.WriteFile(cfg.SSHDConfigPath, []byte("PermitRootLogin yes\nUsePAM yes\n"), 0644))

	r := hostexec.NewFake()
	env := setup.NewEnv(r, sysconf.Writer{LockDir: dir})

	res, err := Setup(context.Background(), env, cfg)
	require.NoError(t, err)
	assert.Contains(t, res.Changed, cfg.SSHDConfigPath)
	assert.Equal(t, []string{"ssh"}, res.Restarted)
	assert.True(t, r.Called("sshd -t -f "+dir))
	assert.True(t, r.Called("systemctl reload ssh"))

	data, err := os.ReadFile(cfg.SSHDConfigPath)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(data), "PermitRootLogin prohibit-password\nUsePAM yes\n"))
	assert.Contains(t, string(data), "PasswordAuthentication no\n")
}

func TestSetupSSHRejected(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.SSH = true
	original := "PermitRootLogin yes\n"
	require.NoError(t, os.WriteFile(cfg.SSHDConfigPath, []byte(original), 0644))

	r := &rejectingSSHD{Fake: hostexec.NewFake()}
	env := setup.NewEnv(r, sysconf.Writer{LockDir: dir})

	_, err := Setup(context.Background(), env, cfg)
	assert.ErrorContains(t, err, "sshd rejected")

	data, err := os.ReadFile(cfg.SSHDConfigPath)
	require.NoError(t, err)
	assert.Equal(t, original, string(data))
}

func TestSetupNoSubscription(t *testing.T) {
	dir := t.TempDir()
	cfg := testConfig(dir)
	cfg.NoSubscription = true
	require.NoError(t, os.MkdirAll(cfg.AptSourcesDir, 0755))
	require.NoError(t, os.WriteFile(cfg.OSReleasePath, []byte("VERSION_CODENAME=bookworm\n"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.AptSourcesDir, "pve-enterprise.list"),
		[]byte("deb https://enterprise.proxmox.com/debian/pve bookworm pve-enterprise\n"), 0644))

	env := setup.NewEnv(hostexec.NewFake(), sysconf.Writer{LockDir: dir})
	_, err := Setup(context.Background(), env, cfg)
	require.NoError(t, err)

	enterprise, err := os.ReadFile(filepath.Join(cfg.AptSourcesDir, "pve-enterprise.list"))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(enterprise), "# deb"))

	nosub, err := os.ReadFile(filepath.Join(cfg.AptSourcesDir, "pve-no-subscription.list"))
	require.NoError(t, err)
	assert.Equal(t, "deb http://download.proxmox.com/debian/pve bookworm pve-no-subscription\n", string(nosub))
}

// rejectingSSHD fails every sshd -t invocation, whatever the temp file name.
type rejectingSSHD struct {
	*hostexec.Fake
}

func (r *rejectingSSHD) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	if name == "sshd" {
		return nil, errors.New("line 1: Bad configuration option")
	}
	return r.Fake.Run(ctx, name, args...)
}
