// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smarthealth

import (
	"context"
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/checks"
	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

// DiskReport is the typed view of one smartctl run.
type DiskReport struct {
	Device       string
	Model        string
	Serial       string
	Protocol     string
	Passed       *bool // nil when smartctl could not assess overall health
	Wear         checks.Reading
	Temperature  checks.Reading
	Reallocated  checks.Reading
	Pending      checks.Reading
	GrownDefects checks.Reading
	PowerOnHours checks.Reading
	MediaErrors  checks.Reading
	// NVMe critical warning bitmap, 0 when clear or not NVMe
	CriticalWarning int64
	FailingNow      []string
}

type Result struct {
	Reports  []DiskReport
	Warnings checks.Warnings
}

// BuildReport extracts the values the checks compare against thresholds.
func BuildReport(device string, data *SmartCtlOutput) DiskReport {
	rep := DiskReport{
		Device:       device,
		Model:        data.model(),
		Serial:       data.SerialNumber,
		Protocol:     data.Device.Protocol,
		Wear:         ssdWear(data),
		Temperature:  checks.Unavailable(),
		Reallocated:  rawAttribute(data, 5),
		Pending:      rawAttribute(data, 197),
		GrownDefects: checks.Unavailable(),
		PowerOnHours: checks.Unavailable(),
		MediaErrors:  checks.Unavailable(),
	}

	if data.SmartStatus != nil {
		passed := data.SmartStatus.Passed
		rep.Passed = &passed
	}
	if data.Temperature != nil && data.Temperature.Current != 0 {
		rep.Temperature = checks.Known(float64(data.Temperature.Current))
	}
	if data.PowerOnTime != nil {
		rep.PowerOnHours = checks.Known(float64(data.PowerOnTime.Hours))
	}
	if data.SCSIGrownDefectList != nil {
		rep.GrownDefects = checks.Known(float64(*data.SCSIGrownDefectList))
	}
	if nvme := data.NVMeSmartHealthInfoLog; nvme != nil {
		rep.MediaErrors = checks.Known(float64(nvme.MediaErrors))
		rep.CriticalWarning = nvme.CriticalWarning
		if !rep.Temperature.Valid && nvme.Temperature != 0 {
			rep.Temperature = checks.Known(float64(nvme.Temperature))
		}
	}
	if data.ATASMARTAttributes != nil {
		for _, entry := range data.ATASMARTAttributes.Table {
			if entry.WhenFailed == "now" {
				rep.FailingNow = append(rep.FailingNow, entry.Name)
			}
		}
	}
	return rep
}

// Evaluate appends the warnings one disk raises.
func Evaluate(rep DiskReport, cfg SmartHealthConfig, w *checks.Warnings) {
	name := fmt.Sprintf("%s (%s, serial %s)", rep.Device, rep.Model, rep.Serial)

	if rep.Passed != nil && !*rep.Passed {
		w.Add("disk %s: SMART overall-health self-assessment FAILED", name)
	}
	for _, attr := range rep.FailingNow {
		w.Add("disk %s: attribute %s is failing now", name, attr)
	}
	if rep.CriticalWarning != 0 {
		w.Add("disk %s: NVMe critical warning 0x%02x", name, rep.CriticalWarning)
	}
	if checks.Exceeds(rep.Wear, cfg.WearPercent) {
		w.Add("disk %s: SSD wear %s%% exceeds %s%%", name, rep.Wear, checks.Known(cfg.WearPercent))
	}
	if cfg.TemperatureCelsius > 0 && checks.Exceeds(rep.Temperature, cfg.TemperatureCelsius) {
		w.Add("disk %s: temperature %s°C exceeds %s°C", name, rep.Temperature, checks.Known(cfg.TemperatureCelsius))
	}
	if checks.Exceeds(rep.Reallocated, float64(cfg.ReallocatedSectorsThreshold)) {
		w.Add("disk %s: %s reallocated sectors (threshold %d)", name, rep.Reallocated, cfg.ReallocatedSectorsThreshold)
	}
	if checks.Exceeds(rep.Pending, float64(cfg.PendingSectorsThreshold)) {
		w.Add("disk %s: %s pending sectors (threshold %d)", name, rep.Pending, cfg.PendingSectorsThreshold)
	}
	if checks.Exceeds(rep.GrownDefects, float64(cfg.GrownDefectsThreshold)) {
		w.Add("disk %s: %s grown defects (threshold %d)", name, rep.GrownDefects, cfg.GrownDefectsThreshold)
	}
	if checks.Exceeds(rep.MediaErrors, 0) {
		w.Add("disk %s: %s media and data integrity errors", name, rep.MediaErrors)
	}
}

// Check reads SMART data for every configured disk. A disk that cannot be
// read becomes a warning; only a missing smartctl is fatal.
func Check(ctx context.Context, r hostexec.Runner, cfg SmartHealthConfig) (*Result, error) {
	if err := hostexec.Require(r, "smartctl"); err != nil {
		return nil, fmt.Errorf("%w (install the smartmontools package)", err)
	}

	disks := cfg.Disks
	if len(disks) == 0 || (len(disks) == 1 && disks[0] == "*") {
		found, err := discoverDevices(ctx, r)
		if err != nil {
			return nil, err
		}
		disks = found
	}

	res := &Result{}
	if len(disks) == 0 {
		res.Warnings.Add("no SMART capable disks found")
		return res, nil
	}

	log.Info().Strs("devices", disks).Msg("devices for monitoring")

	for _, disk := range disks {
		data, err := collectSmartData(ctx, r, disk)
		if errors.Is(err, ErrStandby) {
			log.Info().Str("disk", disk).Msg("disk in standby, skipped")
			continue
		}
		if err != nil {
			log.Error().Err(err).Str("disk", disk).Msg("error running smartctl")
			res.Warnings.Add("disk %s: cannot read SMART data: %v", disk, err)
			continue
		}

		rep := BuildReport(disk, data)
		res.Reports = append(res.Reports, rep)
		Evaluate(rep, cfg, &res.Warnings)
	}

	PublishToPrometheus(res.Reports, cfg)
	return res, nil
}
