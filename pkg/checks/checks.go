// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package checks holds the pieces shared by every host check: typed readings
// scraped from command output, the threshold comparison and the per-run
// warning accumulator.
package checks

import (
	"fmt"
	"strconv"
	"strings"
)

// Reading is a scalar scraped from command output. Valid is false when the
// value was missing or not numeric.
type Reading struct {
	Value float64
	Valid bool
}

func Known(v float64) Reading {
	return Reading{Value: v, Valid: true}
}

func Unavailable() Reading {
	return Reading{}
}

// ParseReading accepts plain numbers and percentages ("83", "83%", "1.5x").
// Anything else, including "-" as printed by zpool for unknown values, is
// unavailable.
func ParseReading(s string) Reading {
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "%")
	s = strings.TrimSuffix(s, "x")
	if s == "" || s == "-" {
		return Unavailable()
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return Unavailable()
	}
	return Known(v)
}

func (r Reading) String() string {
	if !r.Valid {
		return "n/a"
	}
	return strconv.FormatFloat(r.Value, 'f', -1, 64)
}

// Exceeds reports whether an observed reading is strictly over the limit.
// Unavailable readings never alert.
func Exceeds(r Reading, limit float64) bool {
	return r.Valid && r.Value > limit
}

// Warnings collects human readable findings of one run in order.
type Warnings struct {
	lines []string
}

func (w *Warnings) Add(format string, args ...interface{}) {
	w.lines = append(w.lines, fmt.Sprintf(format, args...))
}

// Merge appends all findings of other.
func (w *Warnings) Merge(other Warnings) {
	w.lines = append(w.lines, other.lines...)
}

func (w Warnings) Len() int {
	return len(w.lines)
}

func (w Warnings) Empty() bool {
	return len(w.lines) == 0
}

// Lines returns a copy of the collected findings.
func (w Warnings) Lines() []string {
	out := make([]string, len(w.lines))
	copy(out, w.lines)
	return out
}
