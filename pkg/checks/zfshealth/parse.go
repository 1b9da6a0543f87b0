// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package zfshealth

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
)

// Pool is one line of `zpool list -H -p -o name,size,alloc,free,cap,health`.
type Pool struct {
	Name      string
	SizeBytes uint64
	Allocated uint64
	Free      uint64
	Capacity  checks.Reading
	Health    string
}

// Dataset is one line of `zfs list -H -o name,mountpoint,mounted,canmount`.
type Dataset struct {
	Name       string
	Mountpoint string
	Mounted    bool
	CanMount   string
}

// ExpectsMount reports whether the dataset should be mounted at a path.
func (d Dataset) ExpectsMount() bool {
	if d.CanMount != "on" {
		return false
	}
	return strings.HasPrefix(d.Mountpoint, "/")
}

var poolListArgs = []string{"list", "-H", "-p", "-o", "name,size,alloc,free,cap,health"}

var datasetListArgs = []string{"list", "-H", "-t", "filesystem", "-o", "name,mountpoint,mounted,canmount"}

func ParsePoolList(out []byte) ([]Pool, error) {
	var pools []Pool
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 6 {
			fields = strings.Fields(line)
		}
		if len(fields) < 6 {
			return nil, fmt.Errorf("zpool list line %d: expected 6 fields, got %d", n, len(fields))
		}
		pools = append(pools, Pool{
			Name:      fields[0],
			SizeBytes: parseBytes(fields[1]),
			Allocated: parseBytes(fields[2]),
			Free:      parseBytes(fields[3]),
			Capacity:  checks.ParseReading(fields[4]),
			Health:    fields[5],
		})
	}
	return pools, scanner.Err()
}

func ParseDatasetList(out []byte) ([]Dataset, error) {
	var datasets []Dataset
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		fields := strings.Split(line, "\t")
		if len(fields) < 4 {
			fields = strings.Fields(line)
		}
		if len(fields) < 4 {
			return nil, fmt.Errorf("zfs list line %d: expected 4 fields, got %d", n, len(fields))
		}
		datasets = append(datasets, Dataset{
			Name:       fields[0],
			Mountpoint: fields[1],
			Mounted:    fields[2] == "yes",
			CanMount:   fields[3],
		})
	}
	return datasets, scanner.Err()
}

func parseBytes(s string) uint64 {
	v, err := strconv.ParseUint(strings.TrimSpace(s), 10, 64)
	if err != nil {
		return 0
	}
	return v
}
