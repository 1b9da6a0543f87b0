// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package smarthealth

// SmartCtlScanOutput is the JSON output of smartctl --scan-open -j
type SmartCtlScanOutput struct {
	Devices []SmartCtlDevice `json:"devices"`
}

// SmartCtlOutput holds the parts of smartctl --json --info --health --attributes
// the checks look at.
type SmartCtlOutput struct {
	Smartctl                SmartCtlDetails                 `json:"smartctl"`
	Device                  SmartCtlDevice                  `json:"device"`
	ModelFamily             string                          `json:"model_family,omitempty"`
	ModelName               string                          `json:"model_name"`
	DeviceModel             string                          `json:"device_model,omitempty"`
	SCSIProduct             string                          `json:"scsi_product,omitempty"`
	SerialNumber            string                          `json:"serial_number"`
	FirmwareVersion         string                          `json:"firmware_version"`
	UserCapacity            *SmartCtlUserCapacity           `json:"user_capacity,omitempty"`
	RotationRate            *int64                          `json:"rotation_rate,omitempty"`
	SmartStatus             *SmartCtlSmartStatus            `json:"smart_status,omitempty"`
	Temperature             *SmartCtlTemperature            `json:"temperature,omitempty"`
	PowerOnTime             *SmartCtlPowerOnTime            `json:"power_on_time,omitempty"`
	ATASMARTAttributes      *SmartCtlATASMARTAttributes     `json:"ata_smart_attributes,omitempty"`
	NVMeSmartHealthInfoLog  *SmartCtlNVMeSmartHealthInfoLog `json:"nvme_smart_health_information_log,omitempty"`
	SCSIGrownDefectList     *int64                          `json:"scsi_grown_defect_list,omitempty"`
	SCSIPercentageUsedIndic *int64                          `json:"scsi_percentage_used_endurance_indicator,omitempty"`
}

// SmartCtlDetails describes the smartctl run itself
type SmartCtlDetails struct {
	ExitStatus int64             `json:"exit_status"`
	Messages   []SmartCtlMessage `json:"messages,omitempty"`
}

type SmartCtlMessage struct {
	String   string `json:"string"`
	Severity string `json:"severity"`
}

// SmartCtlDevice represents the device details
type SmartCtlDevice struct {
	InfoName string `json:"info_name"`
	Name     string `json:"name"`
	Protocol string `json:"protocol"`
	Type     string `json:"type"`
}

type SmartCtlUserCapacity struct {
	Blocks int64 `json:"blocks"`
	Bytes  int64 `json:"bytes"`
}

type SmartCtlSmartStatus struct {
	Passed bool `json:"passed"`
}

type SmartCtlTemperature struct {
	Current int64 `json:"current"`
}

type SmartCtlPowerOnTime struct {
	Hours int64 `json:"hours"`
}

// SmartCtlATASMARTAttributes represents the ATA SMART attributes
type SmartCtlATASMARTAttributes struct {
	Table []SmartCtlATASMARTEntry `json:"table"`
}

// SmartCtlATASMARTEntry represents a single ATA SMART attribute entry
type SmartCtlATASMARTEntry struct {
	ID         int64               `json:"id"`
	Name       string              `json:"name"`
	Value      int64               `json:"value"`
	Worst      int64               `json:"worst"`
	Thresh     int64               `json:"thresh"`
	WhenFailed string              `json:"when_failed,omitempty"`
	Raw        SmartCtlATASMARTRaw `json:"raw"`
}

type SmartCtlATASMARTRaw struct {
	Value  int64  `json:"value"`
	String string `json:"string"`
}

// SmartCtlNVMeSmartHealthInfoLog represents the NVMe SMART health information log
type SmartCtlNVMeSmartHealthInfoLog struct {
	CriticalWarning int64 `json:"critical_warning"`
	Temperature     int64 `json:"temperature"`
	AvailableSpare  int64 `json:"available_spare"`
	PercentageUsed  int64 `json:"percentage_used"`
	MediaErrors     int64 `json:"media_errors"`
	PowerOnHours    int64 `json:"power_on_hours"`
	UnsafeShutdowns int64 `json:"unsafe_shutdowns"`
}
