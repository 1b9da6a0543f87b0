// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package config

import (
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/backupfresh"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/hoststatus"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/smarthealth"
	"github.com/cobaltcore-dev/pvewarden/pkg/checks/zfshealth"
)

const (
	TypeZFS     = "zfs"
	TypeSmart   = "smart"
	TypeBackups = "backups"
	TypeStatus  = "status"
)

var checkTypes = map[string]struct{}{
	TypeZFS:     {},
	TypeSmart:   {},
	TypeBackups: {},
	TypeStatus:  {},
}

func ZFSHealth(c CheckConfig, g GlobalConfig) zfshealth.ZFSHealthConfig {
	return zfshealth.ZFSHealthConfig{
		PercentUsed:    GetFloat64Setting(c.Settings, "percent_used", zfshealth.DefaultPercentUsed),
		Pools:          GetStringSliceSetting(c.Settings, "pools", nil),
		CheckMounts:    GetBoolSetting(c.Settings, "check_mounts", true),
		IgnoreDatasets: GetStringSliceSetting(c.Settings, "ignore_datasets", nil),
		NodeName:       GetStringSetting(c.Settings, "node_name", g.NodeName),
	}
}

func SmartHealth(c CheckConfig, g GlobalConfig) smarthealth.SmartHealthConfig {
	return smarthealth.SmartHealthConfig{
		Disks:                       GetStringSliceSetting(c.Settings, "disks", nil),
		NodeName:                    GetStringSetting(c.Settings, "node_name", g.NodeName),
		WearPercent:                 GetFloat64Setting(c.Settings, "wear_percent", smarthealth.DefaultWearPercent),
		TemperatureCelsius:          GetFloat64Setting(c.Settings, "temperature_celsius", smarthealth.DefaultTemperatureCelsius),
		ReallocatedSectorsThreshold: int64(GetIntSetting(c.Settings, "reallocated_sectors", 0)),
		PendingSectorsThreshold:     int64(GetIntSetting(c.Settings, "pending_sectors", 0)),
		GrownDefectsThreshold:       int64(GetIntSetting(c.Settings, "grown_defects", smarthealth.DefaultGrownDefectsThreshold)),
	}
}

func BackupFresh(c CheckConfig, g GlobalConfig) backupfresh.BackupFreshConfig {
	return backupfresh.BackupFreshConfig{
		Dataset:        GetStringSetting(c.Settings, "dataset", ""),
		RemoteHost:     GetStringSetting(c.Settings, "remote_host", ""),
		RemoteDataset:  GetStringSetting(c.Settings, "remote_dataset", ""),
		SSHPort:        GetIntSetting(c.Settings, "ssh_port", 0),
		ConnectTimeout: GetIntSetting(c.Settings, "connect_timeout", backupfresh.DefaultConnectTimeout),
		NodeName:       GetStringSetting(c.Settings, "node_name", g.NodeName),
	}
}

func HostStatus(c CheckConfig, g GlobalConfig) hoststatus.HostStatusConfig {
	return hoststatus.HostStatusConfig{
		Services:          GetStringSliceSetting(c.Settings, "services", hoststatus.DefaultServices),
		MinServiceUptime:  GetDurationSetting(c.Settings, "min_service_uptime", hoststatus.DefaultMinServiceUptime),
		RootPercentUsed:   GetFloat64Setting(c.Settings, "root_percent_used", hoststatus.DefaultRootPercentUsed),
		MemoryPercentUsed: GetFloat64Setting(c.Settings, "memory_percent_used", 0),
		NodeName:          GetStringSetting(c.Settings, "node_name", g.NodeName),
	}
}

// Always reports whether a status check mails a report without warnings.
func Always(c CheckConfig) bool {
	return GetBoolSetting(c.Settings, "always", false)
}
