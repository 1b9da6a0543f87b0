// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package zfshealth

const DefaultPercentUsed = 80

type ZFSHealthConfig struct {
	PercentUsed    float64  // capacity threshold, 0-100
	Pools          []string // empty means every imported pool
	CheckMounts    bool
	IgnoreDatasets []string
	NodeName       string
}
