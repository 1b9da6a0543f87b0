// SPDX-FileCopyrightText: 2025 SAP SE or an SAP affiliate company and pvewarden contributors
//
// SPDX-License-Identifier: Apache-2.0

package hostexec

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Fake is a Runner for tests. Outputs and Errors are keyed by the full
// command line as rendered by CommandLine; unknown commands succeed with no
// output.
type Fake struct {
	mu      sync.Mutex
	Outputs map[string][]byte
	Errors  map[string]error
	Missing map[string]bool
	Calls   []string
	Inputs  map[string][]byte
}

func NewFake() *Fake {
	return &Fake{
		Outputs: map[string][]byte{},
		Errors:  map[string]error{},
		Missing: map[string]bool{},
		Inputs:  map[string][]byte{},
	}
}

// On registers the output of a command line.
func (f *Fake) On(cmdline, output string) *Fake {
	f.Outputs[cmdline] = []byte(output)
	return f
}

// Fail registers an error for a command line.
func (f *Fake) Fail(cmdline string, err error) *Fake {
	f.Errors[cmdline] = err
	return f
}

func (f *Fake) Run(ctx context.Context, name string, args ...string) ([]byte, error) {
	return f.RunInput(ctx, nil, name, args...)
}

func (f *Fake) RunInput(_ context.Context, stdin []byte, name string, args ...string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	key := CommandLine(name, args...)
	f.Calls = append(f.Calls, key)
	if stdin != nil {
		f.Inputs[key] = stdin
	}
	if err, ok := f.Errors[key]; ok {
		return f.Outputs[key], err
	}
	return f.Outputs[key], nil
}

func (f *Fake) LookPath(name string) (string, error) {
	if f.Missing[name] {
		return "", fmt.Errorf("exec: %q: executable file not found in $PATH", name)
	}
	return "/usr/bin/" + name, nil
}

// Called reports whether a command line starting with prefix was run.
func (f *Fake) Called(prefix string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.Calls {
		if strings.HasPrefix(c, prefix) {
			return true
		}
	}
	return false
}
