// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package backupfresh

import (
	"bufio"
	"bytes"
	"fmt"
	"strconv"
	"strings"
	"time"
)

type Snapshot struct {
	Dataset string
	Name    string
	Created time.Time
}

// snapshot names written by the common snapshot tools carry the date in one
// of these layouts
var nameDateLayouts = []string{"2006-01-02", "2006_01_02", "20060102"}

func snapshotListArgs(dataset string) []string {
	args := []string{"list", "-H", "-p", "-t", "snapshot", "-o", "name,creation"}
	if dataset != "" {
		args = append(args, "-r", dataset)
	}
	return args
}

// ParseSnapshots parses `zfs list -H -p -t snapshot -o name,creation`.
func ParseSnapshots(out []byte) ([]Snapshot, error) {
	var snaps []Snapshot
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for n := 1; scanner.Scan(); n++ {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "no datasets available") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 {
			return nil, fmt.Errorf("snapshot list line %d: expected 2 fields, got %d", n, len(fields))
		}
		dataset, name, ok := strings.Cut(fields[0], "@")
		if !ok {
			return nil, fmt.Errorf("snapshot list line %d: %q is not a snapshot", n, fields[0])
		}
		secs, err := strconv.ParseInt(fields[1], 10, 64)
		if err != nil {
			return nil, fmt.Errorf("snapshot list line %d: creation %q: %w", n, fields[1], err)
		}
		snaps = append(snaps, Snapshot{Dataset: dataset, Name: name, Created: time.Unix(secs, 0)})
	}
	return snaps, scanner.Err()
}

// HasSnapshotFor reports whether any snapshot belongs to the calendar day of
// day, in day's location: created that day or dated that day in its name.
func HasSnapshotFor(snaps []Snapshot, day time.Time) bool {
	y, m, d := day.Date()
	stamps := make([]string, 0, len(nameDateLayouts))
	for _, layout := range nameDateLayouts {
		stamps = append(stamps, day.Format(layout))
	}

	for _, s := range snaps {
		cy, cm, cd := s.Created.In(day.Location()).Date()
		if cy == y && cm == m && cd == d {
			return true
		}
		for _, stamp := range stamps {
			if strings.Contains(s.Name, stamp) {
				return true
			}
		}
	}
	return false
}

// Latest returns the most recently created snapshot.
func Latest(snaps []Snapshot) (Snapshot, bool) {
	var latest Snapshot
	for _, s := range snaps {
		if s.Created.After(latest.Created) {
			latest = s
		}
	}
	return latest, !latest.Created.IsZero()
}
