package diffengine

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// gitDiffFound is the exit status of `git diff --no-index` when the files differ.
const gitDiffFound = 1

// Git compares files with `git diff --no-index --ignore-all-space`.
type Git struct {
	path string
}

var _ ports.DiffEngine = (*Git)(nil)

// NewGit uses the git binary at path ("git" from PATH when empty).
func NewGit(path string) *Git {
	if path == "" {
		path = "git"
	}
	return &Git{path: path}
}

// Diff runs git on the two files. Exit status 1 means differences were found and
// is not an error, unless git also complained on stderr. git reports unreadable
// inputs with the same status, so both files are checked up front.
func (g *Git) Diff(ctx context.Context, basePath, targetPath string) (domain.DiffResult, error) {
	for _, p := range []string{basePath, targetPath} {
		if _, err := os.Stat(p); err != nil {
			return domain.DiffResult{}, fmt.Errorf("%w: git diff: %w", domain.ErrDiffTool, err)
		}
	}

	cmd := exec.CommandContext(ctx, g.path,
		"diff", "--no-index", "--no-color", "--no-ext-diff", "--ignore-all-space",
		"--", basePath, targetPath)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	err := cmd.Run()
	if err == nil {
		return domain.NoDifferences(), nil
	}

	var exitErr *exec.ExitError
	out := stdout.String()
	if ctx.Err() == nil && errors.As(err, &exitErr) && exitErr.ExitCode() == gitDiffFound &&
		stderr.Len() == 0 && (out == "" || strings.HasPrefix(out, "diff --git ")) {
		// whitespace-only changes can still exit 1 with a bare header or nothing at all
		if !strings.Contains(out, "\n@@ ") {
			return domain.NoDifferences(), nil
		}
		return domain.DiffResult{Text: out, Changed: true}, nil
	}

	if ctx.Err() != nil {
		err = ctx.Err()
	}
	return domain.DiffResult{}, fmt.Errorf("%w: git diff: %w (%s)", domain.ErrDiffTool, err, strings.TrimSpace(stderr.String()))
}
