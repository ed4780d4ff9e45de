// Package probe captures directory listings on the device so evaluators can
// diff a baseline against the current state.
package probe

import (
	"context"
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/boristopalov/droidbench/pkg/device"
)

var (
	PhotoExtensions = []string{".jpg", ".jpeg", ".png"}
	VideoExtensions = []string{".mp4", ".3gp", ".webm"}
)

// Snapshot is the set of entry names present in a directory at one point in time.
type Snapshot struct {
	Dir     string
	entries map[string]struct{}
}

// List issues one listing of dir. No filtering, recursion or metadata.
func List(ctx context.Context, d device.Device, dir string) (Snapshot, error) {
	names, err := device.ListDir(ctx, d, dir)
	if err != nil {
		return Snapshot{}, fmt.Errorf("probe %s: %w", dir, err)
	}
	return NewSnapshot(dir, names...), nil
}

func NewSnapshot(dir string, names ...string) Snapshot {
	s := Snapshot{Dir: dir, entries: make(map[string]struct{}, len(names))}
	for _, name := range names {
		s.entries[name] = struct{}{}
	}
	return s
}

func (s Snapshot) Len() int {
	return len(s.entries)
}

func (s Snapshot) Has(name string) bool {
	_, ok := s.entries[name]
	return ok
}

// Names returns the entries in lexical order.
func (s Snapshot) Names() []string {
	names := make([]string, 0, len(s.entries))
	for name := range s.entries {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// New returns the entries of after that are absent from s, sorted.
func (s Snapshot) New(after Snapshot) []string {
	var added []string
	for name := range after.entries {
		if !s.Has(name) {
			added = append(added, name)
		}
	}
	sort.Strings(added)
	return added
}

// Filter keeps the names whose extension matches one of exts, case-insensitively.
func Filter(names []string, exts ...string) []string {
	var out []string
	for _, name := range names {
		ext := strings.ToLower(path.Ext(name))
		for _, want := range exts {
			if ext == want {
				out = append(out, name)
				break
			}
		}
	}
	return out
}
