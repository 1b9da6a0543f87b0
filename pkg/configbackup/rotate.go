// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package configbackup

import (
	"path"
	"sort"
	"strings"
	"time"
)

// Rotate returns the archives of host to delete so that only the keep
// newest remain. Names that are not archives of host are never returned.
func Rotate(names []string, host string, keep int) []string {
	prefix := archivePrefix(host)
	var archives []string
	for _, n := range names {
		base := path.Base(n)
		if !strings.HasPrefix(base, prefix) || !strings.HasSuffix(base, ".tar.gz") {
			continue
		}
		stamp := strings.TrimSuffix(strings.TrimPrefix(base, prefix), ".tar.gz")
		if _, err := time.Parse(archiveTimestamp, stamp); err != nil {
			continue
		}
		archives = append(archives, n)
	}
	if keep < 0 {
		keep = 0
	}
	if len(archives) <= keep {
		return nil
	}

	sort.Slice(archives, func(i, j int) bool {
		return path.Base(archives[i]) < path.Base(archives[j])
	})
	return archives[:len(archives)-keep]
}
