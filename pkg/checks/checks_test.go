// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestExceeds(t *testing.T) {
	tests := []struct {
		name     string
		reading  Reading
		limit    float64
		expected bool
	}{
		{"over limit", Known(80), 75, true},
		{"under limit", Known(50), 75, false},
		{"equal is not over", Known(75), 75, false},
		{"just over", Known(75.01), 75, true},
		{"unavailable never alerts", Unavailable(), 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, Exceeds(tt.reading, tt.limit))
		})
	}
}

func TestExceedsMatchesStrictComparison(t *testing.T) {
	for v := 0; v <= 100; v += 5 {
		for limit := 0; limit <= 100; limit += 5 {
			assert.Equal(t, v > limit, Exceeds(Known(float64(v)), float64(limit)), "v=%d t=%d", v, limit)
		}
	}
}

func TestParseReading(t *testing.T) {
	assert.Equal(t, Known(83), ParseReading("83"))
	assert.Equal(t, Known(83), ParseReading(" 83% "))
	assert.Equal(t, Known(1.5), ParseReading("1.50x"))
	assert.False(t, ParseReading("-").Valid)
	assert.False(t, ParseReading("").Valid)
	assert.False(t, ParseReading("ONLINE").Valid)
}

func TestReadingString(t *testing.T) {
	assert.Equal(t, "n/a", Unavailable().String())
	assert.Equal(t, "42.5", Known(42.5).String())
}

func TestWarnings(t *testing.T) {
	var w Warnings
	assert.True(t, w.Empty())

	w.Add("pool %s at %d%%", "rpool", 80)
	var other Warnings
	other.Add("dataset %s not mounted", "tank/vm")
	w.Merge(other)

	assert.Equal(t, 2, w.Len())
	lines := w.Lines()
	assert.Equal(t, []string{"pool rpool at 80%", "dataset tank/vm not mounted"}, lines)

	lines[0] = "mutated"
	assert.Equal(t, "pool rpool at 80%", w.Lines()[0])
}
