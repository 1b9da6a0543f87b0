// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

// Package setup holds what the setup subcommands share: the host they change
// and the record of what they changed.
package setup

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

// Env is the host a setup command operates on.
type Env struct {
	Runner    hostexec.Runner
	Writer    sysconf.Writer
	APT       sysconf.APT
	Systemctl sysconf.Systemctl
}

func NewEnv(r hostexec.Runner, w sysconf.Writer) Env {
	return Env{
		Runner:    r,
		Writer:    w,
		APT:       sysconf.APT{Runner: r},
		Systemctl: sysconf.Systemctl{Runner: r},
	}
}

// Result lists the files a setup command rewrote and the units it restarted.
type Result struct {
	Changed   []string
	Restarted []string
}

func (r *Result) Changes() bool {
	return len(r.Changed) > 0
}

// Write writes a file and records it when the content changed.
func (e Env) Write(res *Result, path string, data []byte, perm os.FileMode) (bool, error) {
	changed, err := e.Writer.WriteFile(path, data, perm)
	if err != nil {
		return false, err
	}
	if changed {
		res.Changed = append(res.Changed, path)
	}
	return changed, nil
}

// Restart restarts unit and records it.
func (e Env) Restart(ctx context.Context, res *Result, unit string) error {
	if err := e.Systemctl.Restart(ctx, unit); err != nil {
		return err
	}
	res.Restarted = append(res.Restarted, unit)
	return nil
}

// ReadFile returns the current content of path; a missing file is empty.
func ReadFile(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return data, nil
}
