// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package hoststatus

import (
	"context"
	"errors"
	"strconv"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

func showCmd(svc string) string {
	return hostexec.CommandLine("systemctl", "show", svc, serviceProperties)
}

func fakeHost(t *testing.T, info *HostInfo, err error) {
	t.Helper()
	orig := collectHost
	collectHost = func(context.Context) (*HostInfo, error) { return info, err }
	t.Cleanup(func() { collectHost = orig })
}

func testHost() *HostInfo {
	boot := time.Now().Add(-48 * time.Hour)
	return &HostInfo{
		Hostname:          "pve1",
		Platform:          "debian 12.7",
		KernelVersion:     "6.8.12-2-pve",
		BootTime:          boot,
		Uptime:            48 * time.Hour,
		Load1:             0.5,
		Load5:             0.4,
		Load15:            0.3,
		MemoryUsedPercent: 42,
		MemoryTotal:       64 << 30,
		RootUsedPercent:   30,
		RootUsed:          30 << 30,
		RootTotal:         100 << 30,
	}
}

func TestParseServiceShow(t *testing.T) {
	out := "ActiveState=active\nSubState=running\nActiveEnterTimestampMonotonic=12000000\n"
	s, err := ParseServiceShow("pveproxy", []byte(out))
	require.NoError(t, err)
	assert.True(t, s.Active())
	assert.Equal(t, "running", s.SubState)
	assert.Equal(t, 12*time.Second, s.ActiveSinceBoot)
	up, ok := s.Uptime(time.Minute)
	assert.True(t, ok)
	assert.Equal(t, time.Minute-12*time.Second, up)
}

func TestParseServiceShowErrors(t *testing.T) {
	_, err := ParseServiceShow("x", []byte("SubState=dead\n"))
	assert.Error(t, err)

	_, err = ParseServiceShow("x", []byte("ActiveState=active\nActiveEnterTimestampMonotonic=abc\n"))
	assert.Error(t, err)
}

func TestServiceUptimeUnknown(t *testing.T) {
	_, ok := ServiceState{Name: "x", ActiveState: "failed", ActiveSinceBoot: time.Second}.Uptime(time.Hour)
	assert.False(t, ok)

	_, ok = ServiceState{Name: "x", ActiveState: "active"}.Uptime(time.Hour)
	assert.False(t, ok)
}

func TestStatusMissingActivationTimestampIsNotARestart(t *testing.T) {
	fakeHost(t, testHost(), nil)
	r := hostexec.NewFake().
		On(showCmd("pveproxy"), "ActiveState=active\nSubState=running\nActiveEnterTimestampMonotonic=0\n")

	rep, err := Status(context.Background(), r, HostStatusConfig{
		Services:         []string{"pveproxy"},
		MinServiceUptime: time.Hour,
	})
	require.NoError(t, err)
	assert.True(t, rep.Warnings.Empty(), rep.Warnings.Lines())
	assert.Contains(t, rep.Lines, "service pveproxy active")
}

func metricNames(t *testing.T, g prometheus.Gatherer) []string {
	t.Helper()
	families, err := g.Gather()
	require.NoError(t, err)
	var names []string
	for _, f := range families {
		names = append(names, f.GetName())
	}
	return names
}

func TestBootAndStatusSeriesAreSeparate(t *testing.T) {
	fakeHost(t, testHost(), nil)
	r := hostexec.NewFake().
		On(showCmd("pveproxy"), "ActiveState=active\nSubState=running\nActiveEnterTimestampMonotonic=30000000\n")

	_, err := Boot(context.Background())
	require.NoError(t, err)
	_, err = Status(context.Background(), r, HostStatusConfig{Services: []string{"pveproxy"}})
	require.NoError(t, err)

	assert.Equal(t, []string{"pve_host_boot_timestamp_seconds"}, metricNames(t, BootRegistry))
	assert.Equal(t, []string{"pve_service_active", "pve_service_uptime_seconds"}, metricNames(t, StatusRegistry))
}

func TestBoot(t *testing.T) {
	fakeHost(t, testHost(), nil)

	rep, err := Boot(context.Background())
	require.NoError(t, err)
	require.Len(t, rep.Lines, 3)
	assert.Contains(t, rep.Lines[0], "host pve1 booted at")
	assert.Equal(t, "uptime 48h0m0s", rep.Lines[1])
	assert.Contains(t, rep.Lines[2], "6.8.12-2-pve")
	assert.True(t, rep.Warnings.Empty())
}

func TestBootHostError(t *testing.T) {
	fakeHost(t, nil, errors.New("no /proc"))

	_, err := Boot(context.Background())
	assert.ErrorContains(t, err, "no /proc")
}

func TestStatusHealthy(t *testing.T) {
	fakeHost(t, testHost(), nil)
	r := hostexec.NewFake().
		On(showCmd("pveproxy"), "ActiveState=active\nSubState=running\nActiveEnterTimestampMonotonic=30000000\n")

	rep, err := Status(context.Background(), r, HostStatusConfig{
		Services:          []string{"pveproxy"},
		MinServiceUptime:  time.Hour,
		RootPercentUsed:   90,
		MemoryPercentUsed: 90,
	})
	require.NoError(t, err)
	assert.True(t, rep.Warnings.Empty(), rep.Warnings.Lines())
	require.Len(t, rep.Services, 1)
	assert.Contains(t, rep.Lines, "load 0.50 0.40 0.30")
}

func TestStatusWarnings(t *testing.T) {
	info := testHost()
	info.RootUsedPercent = 95
	fakeHost(t, info, nil)

	restarted := int64((info.Uptime - 5*time.Minute) / time.Microsecond)
	r := hostexec.NewFake().
		On(showCmd("pvedaemon"), "ActiveState=failed\nSubState=failed\nActiveEnterTimestampMonotonic=0\n").
		On(showCmd("pveproxy"), "ActiveState=active\nSubState=running\nActiveEnterTimestampMonotonic="+itoa(restarted)+"\n").
		Fail(showCmd("pvestatd"), errors.New("exit status 1"))

	rep, err := Status(context.Background(), r, HostStatusConfig{
		Services:         []string{"pvedaemon", "pveproxy", "pvestatd"},
		MinServiceUptime: time.Hour,
		RootPercentUsed:  90,
	})
	require.NoError(t, err)

	lines := rep.Warnings.Lines()
	require.Len(t, lines, 4)
	assert.Contains(t, lines[0], "root filesystem 95.0% used exceeds 90%")
	assert.Contains(t, lines[1], "pvestatd")
	assert.Equal(t, "service pvedaemon is failed (failed)", lines[2])
	assert.Contains(t, lines[3], "service pveproxy restarted 5m0s ago")
}

func TestStatusIgnoresRestartsRightAfterBoot(t *testing.T) {
	info := testHost()
	info.Uptime = 10 * time.Minute
	fakeHost(t, info, nil)

	r := hostexec.NewFake().
		On(showCmd("pveproxy"), "ActiveState=active\nSubState=running\nActiveEnterTimestampMonotonic=20000000\n")

	rep, err := Status(context.Background(), r, HostStatusConfig{
		Services:         []string{"pveproxy"},
		MinServiceUptime: time.Hour,
	})
	require.NoError(t, err)
	assert.True(t, rep.Warnings.Empty())
}

func TestStatusRequiresSystemctl(t *testing.T) {
	fakeHost(t, testHost(), nil)
	r := hostexec.NewFake()
	r.Missing["systemctl"] = true

	_, err := Status(context.Background(), r, HostStatusConfig{Services: DefaultServices})
	assert.ErrorIs(t, err, hostexec.ErrMissingBinary)
}

func itoa(v int64) string {
	return strconv.FormatInt(v, 10)
}
