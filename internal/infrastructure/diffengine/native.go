package diffengine

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sergi/go-diff/diffmatchpatch"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// DefaultContext is the number of unchanged lines shown around each change.
const DefaultContext = 3

// Native computes whitespace-insensitive line diffs in process.
type Native struct {
	contextLines int
}

var _ ports.DiffEngine = (*Native)(nil)

// NewNative builds an engine emitting DefaultContext lines of context.
func NewNative() *Native {
	return &Native{contextLines: DefaultContext}
}

// Diff reads both files and returns their unified diff.
func (n *Native) Diff(ctx context.Context, basePath, targetPath string) (domain.DiffResult, error) {
	base, err := os.ReadFile(basePath)
	if err != nil {
		return domain.DiffResult{}, fmt.Errorf("%w: read base: %w", domain.ErrDiffTool, err)
	}
	target, err := os.ReadFile(targetPath)
	if err != nil {
		return domain.DiffResult{}, fmt.Errorf("%w: read target: %w", domain.ErrDiffTool, err)
	}

	text := Unified("a/"+filepath.Base(basePath), "b/"+filepath.Base(targetPath), string(base), string(target), n.contextLines)
	if err := ctx.Err(); err != nil {
		return domain.DiffResult{}, fmt.Errorf("%w: %w", domain.ErrDiffTool, err)
	}
	if text == "" {
		return domain.NoDifferences(), nil
	}
	return domain.DiffResult{Text: text, Changed: true}, nil
}

type lineOp struct {
	kind    diffmatchpatch.Operation
	text    string
	oldLine int
	newLine int
}

// Unified returns the unified diff turning base into target, or "" when they only
// differ in whitespace. Lines are compared with all whitespace removed.
func Unified(baseName, targetName, base, target string, contextLines int) string {
	oldLines := splitLines(base)
	newLines := splitLines(target)

	ops := lineOps(oldLines, newLines)
	changed := false
	for _, op := range ops {
		if op.kind != diffmatchpatch.DiffEqual {
			changed = true
			break
		}
	}
	if !changed {
		return ""
	}

	var b strings.Builder
	fmt.Fprintf(&b, "--- %s\n+++ %s\n", baseName, targetName)

	i := 0
	for i < len(ops) {
		for i < len(ops) && ops[i].kind == diffmatchpatch.DiffEqual {
			i++
		}
		if i == len(ops) {
			break
		}

		start := max(i-contextLines, 0)
		end := i
		for j := i; j < len(ops); {
			if ops[j].kind != diffmatchpatch.DiffEqual {
				j++
				end = j
				continue
			}
			k := j
			for k < len(ops) && ops[k].kind == diffmatchpatch.DiffEqual {
				k++
			}
			if k == len(ops) || k-j > 2*contextLines {
				break
			}
			j = k
		}
		stop := min(end+contextLines, len(ops))

		writeHunk(&b, ops[start:stop])
		i = stop
	}

	return b.String()
}

// lineOps diffs the two line slices by mapping every distinct whitespace-stripped
// line to one rune and diffing the rune strings.
func lineOps(oldLines, newLines []string) []lineOp {
	index := map[string]rune{}
	encode := func(lines []string) []rune {
		out := make([]rune, len(lines))
		for i, line := range lines {
			key := strings.Join(strings.Fields(line), "")
			r, ok := index[key]
			if !ok {
				r = lineRune(len(index))
				index[key] = r
			}
			out[i] = r
		}
		return out
	}
	a := encode(oldLines)
	b := encode(newLines)

	dmp := diffmatchpatch.New()
	dmp.DiffTimeout = 0
	diffs := dmp.DiffMainRunes(a, b, false)

	ops := make([]lineOp, 0, max(len(oldLines), len(newLines)))
	oi, ni := 0, 0
	for _, d := range diffs {
		count := len([]rune(d.Text))
		for k := 0; k < count; k++ {
			switch d.Type {
			case diffmatchpatch.DiffEqual:
				ops = append(ops, lineOp{kind: d.Type, text: newLines[ni], oldLine: oi, newLine: ni})
				oi++
				ni++
			case diffmatchpatch.DiffDelete:
				ops = append(ops, lineOp{kind: d.Type, text: oldLines[oi], oldLine: oi, newLine: ni})
				oi++
			case diffmatchpatch.DiffInsert:
				ops = append(ops, lineOp{kind: d.Type, text: newLines[ni], oldLine: oi, newLine: ni})
				ni++
			}
		}
	}
	return ops
}

// lineRune maps a line index to a rune outside the surrogate range.
func lineRune(i int) rune {
	r := rune(i + 1)
	if r >= 0xD800 {
		r += 0x800
	}
	return r
}

func writeHunk(b *strings.Builder, hunk []lineOp) {
	var oldCount, newCount int
	for _, op := range hunk {
		switch op.kind {
		case diffmatchpatch.DiffEqual:
			oldCount++
			newCount++
		case diffmatchpatch.DiffDelete:
			oldCount++
		case diffmatchpatch.DiffInsert:
			newCount++
		}
	}

	oldStart := hunk[0].oldLine + 1
	if oldCount == 0 {
		oldStart--
	}
	newStart := hunk[0].newLine + 1
	if newCount == 0 {
		newStart--
	}
	fmt.Fprintf(b, "@@ -%d,%d +%d,%d @@\n", oldStart, oldCount, newStart, newCount)

	for _, op := range hunk {
		switch op.kind {
		case diffmatchpatch.DiffEqual:
			b.WriteString(" ")
		case diffmatchpatch.DiffDelete:
			b.WriteString("-")
		case diffmatchpatch.DiffInsert:
			b.WriteString("+")
		}
		b.WriteString(op.text)
		b.WriteString("\n")
	}
}

func splitLines(s string) []string {
	s = strings.ReplaceAll(s, "\r\n", "\n")
	s = strings.TrimSuffix(s, "\n")
	if s == "" {
		return nil
	}
	return strings.Split(s, "\n")
}
