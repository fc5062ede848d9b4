package diffhtml

import (
	"bytes"
	"embed"
	"fmt"
	"html/template"
	"path"
	"strconv"
	"strings"

	"EdgarWatcher/internal/domain"
	"EdgarWatcher/internal/ports"
)

// DefaultStaticPath is where artifacts expect the stylesheet and script, relative to themselves.
const DefaultStaticPath = "./diff-static"

const (
	stylesheetName = "edgar-diff.css"
	scriptName     = "edgar-diff.js"
)

//go:embed static/edgar-diff.css static/edgar-diff.js
var static embed.FS

// Options configure the artifact page.
type Options struct {
	StaticPath string
	// FileLabel replaces file names in headers; scratch buffer names mean nothing to readers.
	FileLabel string
	Footer    string
}

// Renderer produces line-by-line HTML pages from unified diffs.
type Renderer struct {
	staticPath string
	fileLabel  string
	footer     string
	page       *template.Template
}

var _ ports.ArtifactRenderer = (*Renderer)(nil)

// NewRenderer builds a renderer.
func NewRenderer(opts Options) *Renderer {
	staticPath := strings.TrimSuffix(opts.StaticPath, "/")
	if staticPath == "" {
		staticPath = DefaultStaticPath
	}
	return &Renderer{
		staticPath: staticPath,
		fileLabel:  opts.FileLabel,
		footer:     opts.Footer,
		page:       template.Must(template.New("page").Parse(pageTemplate)),
	}
}

type lineView struct {
	Class   string
	Prefix  string
	Old     string
	New     string
	Content string
}

type blockView struct {
	Header string
	Lines  []lineView
}

type fileView struct {
	Name    string
	Added   int
	Deleted int
	Blocks  []blockView
}

type pageView struct {
	Title      string
	Stylesheet string
	Script     string
	Files      []fileView
	Footer     string
}

// Render wraps the diff in the page header and footer.
func (r *Renderer) Render(title, diffText string) ([]byte, error) {
	view := pageView{
		Title:      title,
		Stylesheet: r.staticPath + "/" + stylesheetName,
		Script:     r.staticPath + "/" + scriptName,
		Footer:     r.footer,
	}
	files, err := Parse(diffText)
	if err != nil {
		return nil, err
	}
	for _, f := range files {
		view.Files = append(view.Files, r.fileView(f))
	}

	var buf bytes.Buffer
	if err := r.page.Execute(&buf, view); err != nil {
		return nil, fmt.Errorf("execute page template: %w", err)
	}
	return buf.Bytes(), nil
}

// Assets returns the files artifacts link to, keyed by their path relative to the
// artifacts. Nothing is returned when the static path is absolute (served elsewhere).
func (r *Renderer) Assets() ([]domain.StaticAsset, error) {
	if strings.Contains(r.staticPath, "://") || strings.HasPrefix(r.staticPath, "/") {
		return nil, nil
	}
	dir := path.Clean(r.staticPath)

	assets := make([]domain.StaticAsset, 0, 2)
	for _, item := range []struct{ name, contentType string }{
		{stylesheetName, "text/css"},
		{scriptName, "application/javascript"},
	} {
		body, err := static.ReadFile("static/" + item.name)
		if err != nil {
			return nil, fmt.Errorf("read embedded %s: %w", item.name, err)
		}
		assets = append(assets, domain.StaticAsset{
			Path:        path.Join(dir, item.name),
			ContentType: item.contentType,
			Body:        body,
		})
	}
	return assets, nil
}

func (r *Renderer) fileView(f File) fileView {
	name := f.NewName
	if name == "" || name == "/dev/null" {
		name = f.OldName
	}
	if r.fileLabel != "" {
		name = r.fileLabel
	}

	fv := fileView{Name: name, Added: f.Added, Deleted: f.Deleted}
	for _, b := range f.Blocks {
		bv := blockView{Header: b.Header}
		for _, l := range b.Lines {
			bv.Lines = append(bv.Lines, toLineView(l))
		}
		fv.Blocks = append(fv.Blocks, bv)
	}
	return fv
}

func toLineView(l Line) lineView {
	v := lineView{Content: l.Content, Old: number(l.OldNumber), New: number(l.NewNumber)}
	switch l.Kind {
	case LineInsert:
		v.Class, v.Prefix = "d2h-ins", "+"
	case LineDelete:
		v.Class, v.Prefix = "d2h-del", "-"
	default:
		v.Class, v.Prefix = "d2h-cntx", " "
	}
	return v
}

func number(n int) string {
	if n <= 0 {
		return ""
	}
	return strconv.Itoa(n)
}

const pageTemplate = `<!doctype html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<link rel="stylesheet" type="text/css" href="{{.Stylesheet}}">
<script type="text/javascript" src="{{.Script}}"></script>
</head>
<body style="text-align: center; font-family: 'Source Sans Pro',sans-serif;">
<h1 class="d2h-page-title">{{.Title}}</h1>
<div class="d2h-wrapper">
{{- range .Files}}
<div class="d2h-file-wrapper">
<div class="d2h-file-header">
<span class="d2h-file-name">{{.Name}}</span>
<span class="d2h-lines-added">+{{.Added}}</span>
<span class="d2h-lines-deleted">-{{.Deleted}}</span>
</div>
<div class="d2h-file-diff"><div class="d2h-code-wrapper">
<table class="d2h-diff-table"><tbody class="d2h-diff-tbody">
{{- range .Blocks}}
<tr><td class="d2h-code-linenumber d2h-info"></td><td class="d2h-info"><div class="d2h-code-line d2h-info">{{.Header}}</div></td></tr>
{{- range .Lines}}
<tr><td class="d2h-code-linenumber {{.Class}}"><div class="line-num1">{{.Old}}</div><div class="line-num2">{{.New}}</div></td><td class="{{.Class}}"><div class="d2h-code-line {{.Class}}"><span class="d2h-code-line-prefix">{{.Prefix}}</span><span class="d2h-code-line-ctn">{{.Content}}</span></div></td></tr>
{{- end}}
{{- end}}
</tbody></table>
</div></div>
</div>
{{- else}}
<p class="d2h-empty">No differences.</p>
{{- end}}
</div>
{{- with .Footer}}
<footer class="d2h-page-footer">{{.}}</footer>
{{- end}}
</body>
</html>
`
