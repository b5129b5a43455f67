// Package procscan detects running processes by name.
package procscan

import (
	"context"
	"strings"

	"github.com/shirou/gopsutil/v4/process"
)

// Scanner reports whether a designated process is running and, if so, its
// name.
type Scanner interface {
	Scan() (string, bool)
}

// ScannerFunc adapts a function to Scanner.
type ScannerFunc func() (string, bool)

// Scan implements Scanner.
func (f ScannerFunc) Scan() (string, bool) {
	return f()
}

// named is the part of *process.Process a scan needs.
type named interface {
	NameWithContext(ctx context.Context) (string, error)
}

func listProcesses(ctx context.Context) ([]named, error) {
	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, err
	}
	out := make([]named, len(procs))
	for i, p := range procs {
		out[i] = p
	}
	return out, nil
}

// Names matches processes whose command name is in a fixed set, e.g.
// password prompts such as pinentry or ssh-askpass.
type Names struct {
	names map[string]struct{}
	list  func(ctx context.Context) ([]named, error)
}

// NewNames scans the process table for the given command names.
func NewNames(names []string) *Names {
	set := make(map[string]struct{}, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			set[n] = struct{}{}
		}
	}
	return &Names{names: set, list: listProcesses}
}

// Scan implements Scanner. Processes that vanish or cannot be read while
// scanning are skipped.
func (n *Names) Scan() (string, bool) {
	if len(n.names) == 0 {
		return "", false
	}
	ctx := context.Background()
	procs, err := n.list(ctx)
	if err != nil {
		return "", false
	}
	for _, p := range procs {
		name, err := p.NameWithContext(ctx)
		if err != nil {
			continue
		}
		if _, ok := n.names[name]; ok {
			return name, true
		}
	}
	return "", false
}
