// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package configbackup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
)

// Target stores archives somewhere off the node.
type Target interface {
	Name() string
	Upload(ctx context.Context, file, name string) error
	List(ctx context.Context) ([]string, error)
	Delete(ctx context.Context, names []string) error
}

// RsyncTarget copies archives to a directory on another host over ssh.
type RsyncTarget struct {
	Runner hostexec.Runner
	Remote RemoteConfig
}

func (t RsyncTarget) Name() string { return "rsync" }

func (t RsyncTarget) sshArgs() []string {
	args := []string{"-o", "BatchMode=yes", "-o", "ConnectTimeout=10"}
	if t.Remote.SSHPort > 0 {
		args = append(args, "-p", strconv.Itoa(t.Remote.SSHPort))
	}
	return args
}

func (t RsyncTarget) ssh(ctx context.Context, remote ...string) ([]byte, error) {
	args := append(t.sshArgs(), t.Remote.Host)
	return t.Runner.Run(ctx, "ssh", append(args, remote...)...)
}

func (t RsyncTarget) Upload(ctx context.Context, file, name string) error {
	if err := hostexec.Require(t.Runner, "rsync", "ssh"); err != nil {
		return err
	}
	if _, err := t.ssh(ctx, "mkdir", "-p", t.Remote.Dir); err != nil {
		return fmt.Errorf("creating %s on %s: %w", t.Remote.Dir, t.Remote.Host, err)
	}
	dest := fmt.Sprintf("%s:%s/%s", t.Remote.Host, strings.TrimSuffix(t.Remote.Dir, "/"), name)
	_, err := t.Runner.Run(ctx, "rsync", "-a", "--chmod=F600",
		"-e", "ssh "+strings.Join(t.sshArgs(), " "), file, dest)
	if err != nil {
		return fmt.Errorf("rsync to %s: %w", dest, err)
	}
	return nil
}

func (t RsyncTarget) List(ctx context.Context) ([]string, error) {
	out, err := t.ssh(ctx, "ls", "-1", t.Remote.Dir)
	if err != nil {
		return nil, fmt.Errorf("listing %s on %s: %w", t.Remote.Dir, t.Remote.Host, err)
	}
	return strings.Fields(string(out)), nil
}

func (t RsyncTarget) Delete(ctx context.Context, names []string) error {
	if len(names) == 0 {
		return nil
	}
	args := []string{"rm", "-f", "--"}
	for _, n := range names {
		args = append(args, strings.TrimSuffix(t.Remote.Dir, "/")+"/"+n)
	}
	if _, err := t.ssh(ctx, args...); err != nil {
		return fmt.Errorf("deleting old archives on %s: %w", t.Remote.Host, err)
	}
	return nil
}

// LocalTarget keeps archives in a local directory, typically a mounted
// NFS share or a second pool.
type LocalTarget struct {
	Dir string
}

func (t LocalTarget) Name() string { return "local" }

func (t LocalTarget) Upload(_ context.Context, file, name string) error {
	if err := os.MkdirAll(t.Dir, 0700); err != nil {
		return err
	}
	src, err := os.Open(file)
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(filepath.Join(t.Dir, name), os.O_CREATE|os.O_TRUNC|os.O_WRONLY, 0600)
	if err != nil {
		return err
	}
	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		return err
	}
	return dst.Close()
}

func (t LocalTarget) List(_ context.Context) ([]string, error) {
	entries, err := os.ReadDir(t.Dir)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.Type().IsRegular() {
			names = append(names, e.Name())
		}
	}
	return names, nil
}

func (t LocalTarget) Delete(_ context.Context, names []string) error {
	var errs []error
	for _, n := range names {
		if err := os.Remove(filepath.Join(t.Dir, n)); err != nil && !errors.Is(err, os.ErrNotExist) {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
