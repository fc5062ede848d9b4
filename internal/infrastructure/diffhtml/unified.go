package diffhtml

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/sourcegraph/go-diff/diff"
)

// LineKind classifies a line inside a hunk.
type LineKind int

const (
	LineContext LineKind = iota
	LineInsert
	LineDelete
)

// Line is one line of a hunk with its position in the old and new files (0 when absent).
type Line struct {
	Kind      LineKind
	Content   string
	OldNumber int
	NewNumber int
}

// Block is a hunk.
type Block struct {
	Header string
	Lines  []Line
}

// File is the diff of one file pair.
type File struct {
	OldName string
	NewName string
	Blocks  []Block
	Added   int
	Deleted int
}

// Parse reads unified diff text as produced by git or the native engine.
func Parse(diffText string) ([]File, error) {
	if strings.TrimSpace(diffText) == "" {
		return nil, nil
	}
	parsed, err := diff.ParseMultiFileDiff([]byte(strings.ReplaceAll(diffText, "\r\n", "\n")))
	if err != nil {
		return nil, fmt.Errorf("parse unified diff: %w", err)
	}

	files := make([]File, 0, len(parsed))
	for _, fd := range parsed {
		f := File{OldName: fileName(fd.OrigName), NewName: fileName(fd.NewName)}
		for _, h := range fd.Hunks {
			f.Blocks = append(f.Blocks, toBlock(h, &f))
		}
		files = append(files, f)
	}
	return files, nil
}

func toBlock(h *diff.Hunk, f *File) Block {
	header := fmt.Sprintf("@@ -%d,%d +%d,%d @@", h.OrigStartLine, h.OrigLines, h.NewStartLine, h.NewLines)
	if h.Section != "" {
		header += " " + h.Section
	}
	b := Block{Header: header}

	oldNo, newNo := int(h.OrigStartLine), int(h.NewStartLine)
	if h.OrigLines == 0 {
		oldNo++
	}
	if h.NewLines == 0 {
		newNo++
	}

	body := bytes.TrimSuffix(h.Body, []byte("\n"))
	if len(body) == 0 {
		return b
	}
	for _, raw := range bytes.Split(body, []byte("\n")) {
		switch {
		case len(raw) == 0:
			b.Lines = append(b.Lines, Line{Kind: LineContext, OldNumber: oldNo, NewNumber: newNo})
			oldNo++
			newNo++
		case raw[0] == '+':
			b.Lines = append(b.Lines, Line{Kind: LineInsert, Content: string(raw[1:]), NewNumber: newNo})
			f.Added++
			newNo++
		case raw[0] == '-':
			b.Lines = append(b.Lines, Line{Kind: LineDelete, Content: string(raw[1:]), OldNumber: oldNo})
			f.Deleted++
			oldNo++
		case raw[0] == ' ':
			b.Lines = append(b.Lines, Line{Kind: LineContext, Content: string(raw[1:]), OldNumber: oldNo, NewNumber: newNo})
			oldNo++
			newNo++
		}
		// "\ No newline at end of file" markers carry no content
	}
	return b
}

func fileName(s string) string {
	s = strings.TrimSpace(s)
	if s == "/dev/null" {
		return s
	}
	if strings.HasPrefix(s, "a/") || strings.HasPrefix(s, "b/") {
		return s[2:]
	}
	return s
}
