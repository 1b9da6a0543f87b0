// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smarthealth

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

// ErrStandby is returned for devices that were not woken up to be read.
var ErrStandby = errors.New("device is in standby")

var smartctlArgs = []string{"--json", "--info", "--health", "--attributes", "--tolerance=verypermissive", "--nocheck=standby", "--format=brief"}

// smartctl exit status bits 0 and 1: command line did not parse, device open failed
const smartctlFatalBits = 0x3

// discoverDevices lists every device smartctl can open
func discoverDevices(ctx context.Context, r hostexec.Runner) ([]string, error) {
	out, err := r.Run(ctx, "smartctl", "--scan-open", "-j")
	if err != nil && len(out) == 0 {
		return nil, fmt.Errorf("error running smartctl --scan-open: %w", err)
	}

	var scan SmartCtlScanOutput
	if err := json.Unmarshal(out, &scan); err != nil {
		return nil, fmt.Errorf("error parsing smartctl scan output: %w", err)
	}

	devices := make([]string, 0, len(scan.Devices))
	for _, d := range scan.Devices {
		devices = append(devices, d.Name)
	}
	return devices, nil
}

// collectSmartData runs smartctl for one device. smartctl sets exit status bits
// for failing disks while still printing a complete document, so the output
// is parsed before the error is considered.
func collectSmartData(ctx context.Context, r hostexec.Runner, device string) (*SmartCtlOutput, error) {
	args := append(append([]string{}, smartctlArgs...), device)
	out, runErr := r.Run(ctx, "smartctl", args...)

	data, err := ParseSmartData(out)
	if err != nil {
		if runErr != nil {
			return nil, runErr
		}
		return nil, err
	}

	if data.Smartctl.ExitStatus&smartctlFatalBits != 0 {
		msg := data.firstMessage()
		if strings.Contains(strings.ToUpper(msg), "STANDBY") {
			return nil, fmt.Errorf("%s: %w", device, ErrStandby)
		}
		if msg == "" && runErr != nil {
			msg = runErr.Error()
		}
		return nil, fmt.Errorf("smartctl %s: exit status %d: %s", device, data.Smartctl.ExitStatus, msg)
	}
	return data, nil
}

func ParseSmartData(out []byte) (*SmartCtlOutput, error) {
	if len(out) == 0 {
		return nil, errors.New("empty smartctl output")
	}
	var data SmartCtlOutput
	if err := json.Unmarshal(out, &data); err != nil {
		return nil, fmt.Errorf("error parsing smartctl JSON: %w", err)
	}
	return &data, nil
}

func (o *SmartCtlOutput) firstMessage() string {
	for _, m := range o.Smartctl.Messages {
		if m.String != "" {
			return m.String
		}
	}
	return ""
}

func (o *SmartCtlOutput) model() string {
	for _, s := range []string{o.ModelName, o.DeviceModel, o.SCSIProduct, o.ModelFamily} {
		if s != "" {
			return s
		}
	}
	return "unknown model"
}
