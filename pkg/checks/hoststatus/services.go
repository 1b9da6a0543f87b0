// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package hoststatus

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

type ServiceState struct {
	Name        string
	ActiveState string
	SubState    string
	// time between boot and the last transition to active
	ActiveSinceBoot time.Duration
}

func (s ServiceState) Active() bool {
	return s.ActiveState == "active"
}

// Uptime of the service given the host uptime. It is unknown for inactive
// units and when systemd reports no activation timestamp.
func (s ServiceState) Uptime(hostUptime time.Duration) (time.Duration, bool) {
	if !s.Active() || s.ActiveSinceBoot <= 0 {
		return 0, false
	}
	up := hostUptime - s.ActiveSinceBoot
	if up < 0 {
		return 0, false
	}
	return up, true
}

var serviceProperties = "--property=ActiveState,SubState,ActiveEnterTimestampMonotonic"

// ParseServiceShow parses `systemctl show <unit> --property=...` output.
func ParseServiceShow(name string, out []byte) (ServiceState, error) {
	state := ServiceState{Name: name}
	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		key, value, ok := strings.Cut(strings.TrimSpace(scanner.Text()), "=")
		if !ok {
			continue
		}
		switch key {
		case "ActiveState":
			state.ActiveState = value
		case "SubState":
			state.SubState = value
		case "ActiveEnterTimestampMonotonic":
			usec, err := strconv.ParseInt(value, 10, 64)
			if err != nil {
				return state, fmt.Errorf("service %s: ActiveEnterTimestampMonotonic %q: %w", name, value, err)
			}
			state.ActiveSinceBoot = time.Duration(usec) * time.Microsecond
		}
	}
	if state.ActiveState == "" {
		return state, fmt.Errorf("service %s: no ActiveState in systemctl output", name)
	}
	return state, scanner.Err()
}

func serviceStates(ctx context.Context, r hostexec.Runner, services []string) ([]ServiceState, []error) {
	var states []ServiceState
	var errs []error
	for _, svc := range services {
		out, err := r.Run(ctx, "systemctl", "show", svc, serviceProperties)
		if err != nil {
			errs = append(errs, fmt.Errorf("service %s: %w", svc, err))
			continue
		}
		state, err := ParseServiceShow(svc, out)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		states = append(states, state)
	}
	return states, errs
}
