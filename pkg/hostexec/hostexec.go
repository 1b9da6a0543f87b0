// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package hostexec

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"github.com/rs/zerolog/log"
)

// ErrMissingBinary is returned when a required system utility is not on PATH.
var ErrMissingBinary = errors.New("required binary not found")

// Runner executes system utilities. Every check and setup step shells out
// through a Runner so tests can replace the host.
type Runner interface {
	Run(ctx context.Context, name string, args ...string) ([]byte, error)
	RunInput(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error)
	LookPath(name string) (string, error)
}

// System runs commands on the local host.
type System struct {
	// Env is appended to the inherited environment.
	Env []string
	// DryRun logs commands instead of executing them.
	DryRun bool
}

func (s System) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return s.RunInput(ctx, nil, name, args...)
}

func (s System) RunInput(ctx context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	cmdline := CommandLine(name, args...)
	if s.DryRun {
		log.Info().Str("cmd", cmdline).Msg("dry run, command not executed")
		return nil, nil
	}

	cmd := exec.CommandContext(ctx, name, args...)
	if len(s.Env) > 0 {
		cmd.Env = append(os.Environ(), s.Env...)
	}
	if stdin != nil {
		cmd.Stdin = bytes.NewReader(stdin)
	}
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	log.Debug().Str("cmd", cmdline).Msg("running command")
	out, err := cmd.Output()
	if err != nil {
		msg := strings.TrimSpace(stderr.String())
		if msg == "" {
			return out, fmt.Errorf("%s: %w", cmdline, err)
		}
		return out, fmt.Errorf("%s: %w: %s", cmdline, err, msg)
	}
	return out, nil
}

func (s System) LookPath(name string) (string, error) {
	return exec.LookPath(name)
}

// Require fails with ErrMissingBinary for the first binary not found on PATH.
func Require(r Runner, names ...string) error {
	for _, name := range names {
		if _, err := r.LookPath(name); err != nil {
			return fmt.Errorf("%w: %s", ErrMissingBinary, name)
		}
	}
	return nil
}

// CommandLine renders a command the way it is logged and matched by Fake.
func CommandLine(name string, args ...string) string {
	if len(args) == 0 {
		return name
	}
	return name + " " + strings.Join(args, " ")
}
