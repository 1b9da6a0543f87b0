// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package sysconf

import (
	"sort"
	"strings"
)

// KeyStyle describes how a config format spells a setting.
type KeyStyle struct {
	Assign          string // written between key and value
	CaseInsensitive bool
	// missing keys are inserted before the first line starting with this
	// keyword instead of at the end
	BlockKeyword string
}

var (
	PostfixStyle = KeyStyle{Assign: " = "}
	SysctlStyle  = KeyStyle{Assign: " = "}
	SSHDStyle    = KeyStyle{Assign: " ", CaseInsensitive: true, BlockKeyword: "Match"}
)

func (s KeyStyle) key(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}

	var key string
	if sep := strings.TrimSpace(s.Assign); sep != "" {
		k, _, ok := strings.Cut(trimmed, sep)
		if !ok {
			return "", false
		}
		key = strings.TrimSpace(k)
	} else {
		key = strings.Fields(trimmed)[0]
	}

	if s.CaseInsensitive {
		key = strings.ToLower(key)
	}
	return key, true
}

func (s KeyStyle) isBlockStart(line string) bool {
	if s.BlockKeyword == "" {
		return false
	}
	fields := strings.Fields(line)
	return len(fields) > 0 && strings.EqualFold(fields[0], s.BlockKeyword)
}

// SetKeys sets every key in settings. The first occurrence of a key is
// replaced in place and later occurrences are dropped; keys not present yet
// are appended in sorted order. Comments and unrelated lines are kept.
func SetKeys(content []byte, settings map[string]string, style KeyStyle) []byte {
	wanted := make(map[string]string, len(settings))
	for k, v := range settings {
		if style.CaseInsensitive {
			k = strings.ToLower(k)
		}
		wanted[k] = v
	}
	spelled := make(map[string]string, len(settings))
	for k := range settings {
		norm := k
		if style.CaseInsensitive {
			norm = strings.ToLower(k)
		}
		spelled[norm] = k
	}

	text := strings.TrimRight(string(content), "\n")
	var lines []string
	if text != "" {
		lines = strings.Split(text, "\n")
	}

	seen := map[string]bool{}
	out := make([]string, 0, len(lines)+len(settings))
	blockAt := -1
	for _, line := range lines {
		if blockAt < 0 && style.isBlockStart(line) {
			blockAt = len(out)
		}
		key, ok := style.key(line)
		if !ok || blockAt >= 0 {
			out = append(out, line)
			continue
		}
		value, managed := wanted[key]
		if !managed {
			out = append(out, line)
			continue
		}
		if seen[key] {
			continue
		}
		seen[key] = true
		out = append(out, spelled[key]+style.Assign+value)
	}

	var missing []string
	for k := range wanted {
		if !seen[k] {
			missing = append(missing, k)
		}
	}
	sort.Strings(missing)

	added := make([]string, 0, len(missing))
	for _, k := range missing {
		added = append(added, spelled[k]+style.Assign+wanted[k])
	}

	if blockAt >= 0 {
		out = append(out[:blockAt], append(added, out[blockAt:]...)...)
	} else {
		out = append(out, added...)
	}
	return []byte(strings.Join(out, "\n") + "\n")
}
