// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package commands

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestGetEnv(t *testing.T) {
	key := "PVEWARDEN_TEST_KEY"
	fallback := "default_value"

	assert.Equal(t, fallback, getEnv(key, fallback))

	t.Setenv(key, "expected_value")
	assert.Equal(t, "expected_value", getEnv(key, fallback))
}

func TestGetEnvTyped(t *testing.T) {
	t.Setenv("PVEWARDEN_INT", "42")
	t.Setenv("PVEWARDEN_BAD_INT", "forty-two")
	t.Setenv("PVEWARDEN_FLOAT", "75.5")
	t.Setenv("PVEWARDEN_BOOL", "true")
	t.Setenv("PVEWARDEN_DURATION", "90s")

	assert.Equal(t, 42, getEnvInt("PVEWARDEN_INT", 1))
	assert.Equal(t, 1, getEnvInt("PVEWARDEN_BAD_INT", 1))
	assert.Equal(t, int64(42), getEnvInt64("PVEWARDEN_INT", 1))
	assert.InDelta(t, 75.5, getEnvFloat("PVEWARDEN_FLOAT", 80), 0.001)
	assert.True(t, getEnvBool("PVEWARDEN_BOOL", false))
	assert.Equal(t, 90*time.Second, getEnvDuration("PVEWARDEN_DURATION", time.Minute))
	assert.Equal(t, time.Minute, getEnvDuration("PVEWARDEN_UNSET_DURATION", time.Minute))
}

func TestGetEnvSlice(t *testing.T) {
	assert.Equal(t, []string{"a"}, getEnvSlice("PVEWARDEN_UNSET_SLICE", []string{"a"}))

	t.Setenv("PVEWARDEN_SLICE", "ops@example.com, admin@example.com")
	assert.Equal(t, []string{"ops@example.com", "admin@example.com"}, getEnvSlice("PVEWARDEN_SLICE", nil))
}

func TestMergeAlertOptionsWithEnv(t *testing.T) {
	t.Setenv("PVE_DEST", "ops@example.com")
	t.Setenv("PVE_TEST", "true")
	t.Setenv("NODE_NAME", "pve7")

	o := mergeAlertOptionsWithEnv(alertOptions{Transport: "smtp", SMTPAddr: "127.0.0.1:25"})
	assert.Equal(t, []string{"ops@example.com"}, o.Dest)
	assert.True(t, o.Test)
	assert.Equal(t, "pve7", o.NodeName)
	assert.Equal(t, "smtp", o.Transport)
	assert.Equal(t, "pve7", hostname(o))
}

func TestMissingAlertParams(t *testing.T) {
	assert.Empty(t, missingAlertParams(alertOptions{Dest: []string{"ops@example.com"}, Transport: "smtp"}))
	assert.Empty(t, missingAlertParams(alertOptions{Dest: []string{"ops@example.com"}, Transport: "sendmail"}))

	missing := missingAlertParams(alertOptions{Transport: "pigeon"})
	assert.Len(t, missing, 2)
	assert.Contains(t, missing[0], "PVE_DEST")
	assert.Contains(t, missing[1], "pigeon")
}
