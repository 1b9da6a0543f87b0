// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package installer

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rs/zerolog/log"

	"github.com/cobaltcore-dev/pvewarden/pkg/hostexec"
	"github.com/cobaltcore-dev/pvewarden/pkg/sysconf"
)

var ErrNoCrontab = errors.New("no crontab")

// Entry is one scheduled command.
type Entry struct {
	Schedule string // five fields or an @keyword
	Command  string
}

func (e Entry) String() string {
	return e.Schedule + " " + e.Command
}

func (e Entry) Validate() error {
	if strings.TrimSpace(e.Command) == "" {
		return errors.New("cron entry without command")
	}
	if strings.HasPrefix(e.Schedule, "@") {
		if len(strings.Fields(e.Schedule)) != 1 {
			return fmt.Errorf("invalid cron schedule %q", e.Schedule)
		}
		return nil
	}
	if len(strings.Fields(e.Schedule)) != 5 {
		return fmt.Errorf("cron schedule %q needs five fields", e.Schedule)
	}
	return nil
}

// commandOf returns the command part of a crontab line, or false for
// comments, blank lines and environment assignments.
func commandOf(line string) (string, bool) {
	trimmed := strings.TrimSpace(line)
	if trimmed == "" || strings.HasPrefix(trimmed, "#") {
		return "", false
	}
	fields := strings.Fields(trimmed)
	n := 5
	if strings.HasPrefix(fields[0], "@") {
		n = 1
	} else if strings.Contains(fields[0], "=") {
		return "", false
	}
	if len(fields) <= n {
		return "", false
	}
	return strings.Join(fields[n:], " "), true
}

// Upsert replaces the line running exactly entry's command, drops any
// further duplicates of it and appends the entry when none exists.
func Upsert(lines []string, entry Entry) []string {
	want := strings.Join(strings.Fields(entry.Command), " ")
	out := make([]string, 0, len(lines)+1)
	found := false
	for _, l := range lines {
		cmd, ok := commandOf(l)
		if !ok || cmd != want {
			out = append(out, l)
			continue
		}
		if found {
			continue
		}
		found = true
		out = append(out, entry.String())
	}
	if !found {
		out = append(out, entry.String())
	}
	return out
}

// Remove drops every line running exactly command.
func Remove(lines []string, command string) []string {
	want := strings.Join(strings.Fields(command), " ")
	out := make([]string, 0, len(lines))
	for _, l := range lines {
		if cmd, ok := commandOf(l); ok && cmd == want {
			continue
		}
		out = append(out, l)
	}
	return out
}

// Crontab edits the invoking user's crontab through the crontab command.
type Crontab struct {
	Runner  hostexec.Runner
	LockDir string
	DryRun  bool
}

func (c Crontab) Read(ctx context.Context) ([]string, error) {
	out, err := c.Runner.Run(ctx, "crontab", "-l")
	if err != nil {
		if strings.Contains(string(out), "no crontab for") || strings.Contains(err.Error(), "no crontab for") {
			return nil, ErrNoCrontab
		}
		return nil, fmt.Errorf("reading crontab: %w", err)
	}
	text := strings.TrimRight(string(out), "\n")
	if text == "" {
		return nil, nil
	}
	return strings.Split(text, "\n"), nil
}

func (c Crontab) Write(ctx context.Context, lines []string) error {
	data := []byte(strings.Join(lines, "\n") + "\n")
	if c.DryRun {
		log.Info().Strs("crontab", lines).Msg("dry-run: would install crontab")
		return nil
	}
	if _, err := c.Runner.RunInput(ctx, data, "crontab", "-"); err != nil {
		return fmt.Errorf("writing crontab: %w", err)
	}
	return nil
}

// Apply upserts the entries in one locked read-modify-write cycle and
// reports whether the crontab changed.
func (c Crontab) Apply(ctx context.Context, entries ...Entry) (bool, error) {
	for _, e := range entries {
		if err := e.Validate(); err != nil {
			return false, err
		}
	}
	if err := hostexec.Require(c.Runner, "crontab"); err != nil {
		return false, err
	}

	lock := sysconf.NewFileLock(c.LockDir, "crontab")
	if err := lock.Lock(); err != nil {
		return false, err
	}
	defer lock.Unlock()

	current, err := c.Read(ctx)
	if err != nil && !errors.Is(err, ErrNoCrontab) {
		return false, err
	}

	updated := current
	for _, e := range entries {
		updated = Upsert(updated, e)
	}
	if strings.Join(updated, "\n") == strings.Join(current, "\n") {
		log.Debug().Msg("crontab already up to date")
		return false, nil
	}

	if err := c.Write(ctx, updated); err != nil {
		return false, err
	}
	for _, e := range entries {
		log.Info().Str("entry", e.String()).Msg("installed cron entry")
	}
	return true, nil
}
