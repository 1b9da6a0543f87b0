// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package harden

import (
	"bufio"
	"bytes"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/cobaltcore-dev/pvewarden/pkg/setup"
)

// Codename reads VERSION_CODENAME from an os-release file.
func Codename(osRelease string) (string, error) {
	data, err := os.ReadFile(osRelease)
	if err != nil {
		return "", err
	}
	scanner := bufio.NewScanner(bytes.NewReader(data))
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), "=")
		if ok && key == "VERSION_CODENAME" {
			return strings.Trim(value, `"'`), nil
		}
	}
	return "", fmt.Errorf("no VERSION_CODENAME in %s", osRelease)
}

// DisableDebLines comments out every active deb line.
func DisableDebLines(content []byte) []byte {
	lines := strings.Split(string(content), "\n")
	for i, l := range lines {
		if strings.HasPrefix(strings.TrimSpace(l), "deb") {
			lines[i] = "# " + l
		}
	}
	return []byte(strings.Join(lines, "\n"))
}

func noSubscriptionList(codename string) []byte {
	return []byte(fmt.Sprintf("deb http://download.proxmox.com/debian/pve %s pve-no-subscription\n", codename))
}

func configureRepos(env setup.Env, cfg HardenConfig, res *setup.Result) error {
	codename, err := Codename(cfg.OSReleasePath)
	if err != nil {
		return err
	}

	for _, name := range []string{"pve-enterprise.list", "ceph.list"} {
		path := filepath.Join(cfg.AptSourcesDir, name)
		current, err := setup.ReadFile(path)
		if err != nil {
			return err
		}
		if current == nil || name == "ceph.list" && !bytes.Contains(current, []byte("enterprise")) {
			continue
		}
		if _, err := env.Write(res, path, DisableDebLines(current), 0644); err != nil {
			return err
		}
	}

	_, err = env.Write(res, filepath.Join(cfg.AptSourcesDir, "pve-no-subscription.list"), noSubscriptionList(codename), 0644)
	return err
}
