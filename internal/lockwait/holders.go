package lockwait

import (
	"context"
	"fmt"
	"path/filepath"
	"sort"

	"github.com/shirou/gopsutil/v4/process"
)

// Holder is a process that has a file open.
type Holder struct {
	PID  int32
	Name string
}

// Holders lists processes that currently have path open. It is best effort:
// processes whose open files cannot be inspected (usually for lack of
// permission) are skipped. The result is for diagnostics only.
func Holders(ctx context.Context, path string) ([]Holder, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve %s: %w", path, err)
	}
	want := map[string]struct{}{abs: {}}
	if resolved, err := filepath.EvalSymlinks(abs); err == nil {
		want[resolved] = struct{}{}
	}

	procs, err := process.ProcessesWithContext(ctx)
	if err != nil {
		return nil, fmt.Errorf("list processes: %w", err)
	}

	var holders []Holder
	for _, p := range procs {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		files, err := p.OpenFilesWithContext(ctx)
		if err != nil {
			continue
		}
		for _, f := range files {
			if _, ok := want[f.Path]; !ok {
				continue
			}
			name, err := p.NameWithContext(ctx)
			if err != nil {
				name = "?"
			}
			holders = append(holders, Holder{PID: p.Pid, Name: name})
			break
		}
	}

	sort.Slice(holders, func(i, j int) bool { return holders[i].PID < holders[j].PID })
	return holders, nil
}
