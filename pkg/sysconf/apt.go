// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package sysconf

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

// APT drives apt-get without prompting.
type APT struct {
	Runner hostexec.Runner
}

func (a APT) aptGet(ctx context.Context, args ...string) error {
	argv := append([]string{"DEBIAN_FRONTEND=noninteractive", "apt-get", "-q", "-y"}, args...)
	if _, err := a.Runner.Run(ctx, "env", argv...); err != nil {
		return fmt.Errorf("apt-get %s: %w", strings.Join(args, " "), err)
	}
	return nil
}

func (a APT) Update(ctx context.Context) error {
	return a.aptGet(ctx, "update")
}

func (a APT) DistUpgrade(ctx context.Context) error {
	return a.aptGet(ctx, "-o", "Dpkg::Options::=--force-confold", "dist-upgrade")
}

// Installed reports whether a package is installed according to dpkg.
func (a APT) Installed(ctx context.Context, pkg string) bool {
	out, err := a.Runner.Run(ctx, "dpkg-query", "-W", "-f=${Status}", pkg)
	return err == nil && strings.Contains(string(out), "install ok installed")
}

// Install installs the packages that are not installed yet.
func (a APT) Install(ctx context.Context, pkgs ...string) error {
	var missing []string
	for _, p := range pkgs {
		if !a.Installed(ctx, p) {
			missing = append(missing, p)
		}
	}
	if len(missing) == 0 {
		log.Debug().Strs("packages", pkgs).Msg("packages already installed")
		return nil
	}

	log.Info().Strs("packages", missing).Msg("installing packages")
	return a.aptGet(ctx, append([]string{"install", "--no-install-recommends"}, missing...)...)
}
