// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package zfshealth

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

const zpoolListCmd = "zpool list -H -p -o name,size,alloc,free,cap,health"
const zfsListCmd = "zfs list -H -t filesystem -o name,mountpoint,mounted,canmount"

func fakeKernelMounts(t *testing.T, mounted map[string]bool, err error) {
	t.Helper()
	orig := kernelZFSMounts
	kernelZFSMounts = func(context.Context) (map[string]bool, error) { return mounted, err }
	t.Cleanup(func() { kernelZFSMounts = orig })
}

func TestParsePoolList(t *testing.T) {
	out := "rpool\t1000000\t800000\t200000\t80\tONLINE\n" +
		"tank\t2000000\t-\t-\t-\tFAULTED\n"

	pools, err := ParsePoolList([]byte(out))
	require.NoError(t, err)
	require.Len(t, pools, 2)

	assert.Equal(t, "rpool", pools[0].Name)
	assert.Equal(t, uint64(1000000), pools[0].SizeBytes)
	assert.Equal(t, uint64(800000), pools[0].Allocated)
	assert.True(t, pools[0].Capacity.Valid)
	assert.Equal(t, 80.0, pools[0].Capacity.Value)
	assert.Equal(t, "ONLINE", pools[0].Health)

	assert.False(t, pools[1].Capacity.Valid)
	assert.Equal(t, "FAULTED", pools[1].Health)
}

func TestParsePoolListRejectsShortLines(t *testing.T) {
	_, err := ParsePoolList([]byte("rpool\t1000\n"))
	assert.Error(t, err)
}

func TestParseDatasetList(t *testing.T) {
	out := "rpool\t/rpool\tyes\ton\n" +
		"rpool/ROOT\tnone\tno\ton\n" +
		"rpool/data\t/rpool/data\tno\ton\n" +
		"rpool/legacy\tlegacy\tno\ton\n" +
		"tank/noauto\t/tank/noauto\tno\tnoauto\n"

	datasets, err := ParseDatasetList([]byte(out))
	require.NoError(t, err)
	require.Len(t, datasets, 5)

	assert.True(t, datasets[0].Mounted)
	assert.True(t, datasets[0].ExpectsMount())
	assert.False(t, datasets[1].ExpectsMount())
	assert.True(t, datasets[2].ExpectsMount())
	assert.False(t, datasets[2].Mounted)
	assert.False(t, datasets[3].ExpectsMount())
	assert.False(t, datasets[4].ExpectsMount())
}

func TestCheckCapacityOverThreshold(t *testing.T) {
	f := hostexec.NewFake().On(zpoolListCmd, "rpool\t1000\t800\t200\t80\tONLINE\n")

	res, err := Check(context.Background(), f, ZFSHealthConfig{PercentUsed: 75})
	require.NoError(t, err)
	require.Equal(t, 1, res.Warnings.Len())
	assert.Contains(t, res.Warnings.Lines()[0], "pool rpool is 80% full (threshold 75%")
}

func TestCheckCapacityUnderThreshold(t *testing.T) {
	f := hostexec.NewFake().On(zpoolListCmd, "rpool\t1000\t500\t500\t50\tONLINE\n")

	res, err := Check(context.Background(), f, ZFSHealthConfig{PercentUsed: 75})
	require.NoError(t, err)
	assert.True(t, res.Warnings.Empty())
}

func TestCheckUnavailableCapacityAndDegradedPool(t *testing.T) {
	f := hostexec.NewFake().On(zpoolListCmd, "tank\t1000\t-\t-\t-\tDEGRADED\n")

	res, err := Check(context.Background(), f, ZFSHealthConfig{PercentUsed: 0})
	require.NoError(t, err)
	assert.Equal(t, []string{"pool tank health is DEGRADED"}, res.Warnings.Lines())
}

func TestCheckPoolFilterReportsMissingPool(t *testing.T) {
	f := hostexec.NewFake().On(zpoolListCmd, "rpool\t1000\t100\t900\t10\tONLINE\n")

	res, err := Check(context.Background(), f, ZFSHealthConfig{PercentUsed: 75, Pools: []string{"rpool", "backup"}})
	require.NoError(t, err)
	assert.Equal(t, []string{"pool backup is not imported"}, res.Warnings.Lines())
}

func TestCheckMounts(t *testing.T) {
	f := hostexec.NewFake().
		On(zpoolListCmd, "rpool\t1000\t100\t900\t10\tONLINE\n").
		On(zfsListCmd, "rpool\t/rpool\tyes\ton\n"+
			"rpool/data\t/rpool/data\tno\ton\n"+
			"rpool/ghost\t/rpool/ghost\tyes\ton\n"+
			"rpool/ignored\t/rpool/ignored\tno\ton\n")
	fakeKernelMounts(t, map[string]bool{"rpool": true}, nil)

	res, err := Check(context.Background(), f, ZFSHealthConfig{
		PercentUsed:    75,
		CheckMounts:    true,
		IgnoreDatasets: []string{"rpool/ignored"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{
		"dataset rpool/data is not mounted at /rpool/data",
		"dataset rpool/ghost reported mounted at /rpool/ghost but missing from the kernel mount table",
	}, res.Warnings.Lines())
}

func TestCheckMountsWithoutKernelTable(t *testing.T) {
	f := hostexec.NewFake().
		On(zpoolListCmd, "rpool\t1000\t100\t900\t10\tONLINE\n").
		On(zfsListCmd, "rpool\t/rpool\tyes\ton\n")
	fakeKernelMounts(t, nil, errors.New("permission denied"))

	res, err := Check(context.Background(), f, ZFSHealthConfig{PercentUsed: 75, CheckMounts: true})
	require.NoError(t, err)
	assert.True(t, res.Warnings.Empty())
}

func TestCheckMissingBinary(t *testing.T) {
	f := hostexec.NewFake()
	f.Missing["zpool"] = true

	_, err := Check(context.Background(), f, ZFSHealthConfig{PercentUsed: 75})
	assert.ErrorIs(t, err, hostexec.ErrMissingBinary)
}

func TestCheckZpoolFailure(t *testing.T) {
	f := hostexec.NewFake().Fail(zpoolListCmd, errors.New("no pools available"))

	_, err := Check(context.Background(), f, ZFSHealthConfig{PercentUsed: 75})
	assert.ErrorContains(t, err, "listing pools")
}
