// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package sysconf

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

type Systemctl struct {
	Runner hostexec.Runner
}

func (s Systemctl) run(ctx context.Context, args ...string) error {
	if _, err := s.Runner.Run(ctx, "systemctl", args...); err != nil {
		return fmt.Errorf("systemctl %v: %w", args, err)
	}
	return nil
}

// Enable enables the unit and starts it.
func (s Systemctl) Enable(ctx context.Context, unit string) error {
	log.Info().Str("unit", unit).Msg("enabling unit")
	return s.run(ctx, "enable", "--now", unit)
}

func (s Systemctl) Restart(ctx context.Context, unit string) error {
	log.Info().Str("unit", unit).Msg("restarting unit")
	return s.run(ctx, "restart", unit)
}

func (s Systemctl) Reload(ctx context.Context, unit string) error {
	log.Info().Str("unit", unit).Msg("reloading unit")
	return s.run(ctx, "reload", unit)
}

func (s Systemctl) IsActive(ctx context.Context, unit string) bool {
	return s.run(ctx, "is-active", "--quiet", unit) == nil
}
