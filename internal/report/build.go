package report

import (
	"fmt"
	"html/template"
	"io"
	"log/slog"
	"strconv"

	"github.com/robertej19/csvss"
)

// Builder renders a Spec plus its cells into one self-contained HTML page.
// Note HTML is run through the sanitizer and then embedded verbatim; the
// sanitizer output must be safe standalone, and the template engine
// escapes every other field.
type Builder struct {
	// Policy is the sanitizer policy for note fragments.
	Policy *csvss.Policy
	// Log receives build diagnostics; nil means slog.Default().
	Log *slog.Logger
}

// Build writes the report page to w.
func (b *Builder) Build(w io.Writer, spec *Spec, cells []Cell) error {
	log := b.Log
	if log == nil {
		log = slog.Default()
	}

	xs, ys := axes(cells)
	byPos := make(map[[2]string]*Cell, len(cells))
	for i := range cells {
		byPos[[2]string{cells[i].XID, cells[i].YID}] = &cells[i]
	}

	var changed int
	p := page{
		Title:      spec.Title,
		XLabel:     spec.XLabel,
		YLabel:     spec.YLabel,
		CSS:        template.CSS(buildCSS(spec)),
		ShowValues: spec.ShowValues,
		XHeaders:   xLabels(cells, xs),
	}
	for _, tag := range spec.Tags {
		if !safeCSSIdent.MatchString(tag.ID) {
			log.Warn("skipping tag with unsafe id", slog.String("tag_id", tag.ID))
			continue
		}
		p.Tags = append(p.Tags, tag)
	}

	for _, m := range spec.Metrics {
		if !safeCSSIdent.MatchString(m.ID) {
			log.Warn("skipping metric with unsafe id", slog.String("m_id", m.ID))
			continue
		}
		v := view{Metric: m, Checked: len(p.Views) == 0}
		for _, y := range ys {
			row := viewRow{YLabel: yLabel(cells, y)}
			for _, x := range xs {
				row.Cells = append(row.Cells, b.renderCell(byPos[[2]string{x, y}], m, spec, &changed))
			}
			v.Rows = append(v.Rows, row)
		}
		p.Views = append(p.Views, v)
	}

	if err := pageTmpl.Execute(w, p); err != nil {
		return fmt.Errorf("report: render: %w", err)
	}
	log.Info("report built",
		slog.Int("cells", len(cells)),
		slog.Int("metrics", len(p.Views)),
		slog.Int("notes_sanitized", changed))
	return nil
}

func (b *Builder) renderCell(c *Cell, m Metric, spec *Spec, changed *int) viewCell {
	if c == nil {
		return viewCell{Classes: "cell cell-empty"}
	}
	out := viewCell{Classes: "cell"}
	for _, t := range c.Tags {
		if safeCSSIdent.MatchString(t) {
			out.Classes += " tag-" + t
		}
	}
	if v, ok := c.Values[m.ID]; ok {
		out.Style = template.CSS("background: " + cellColor(v, m.Min, m.Max))
		if spec.ShowValues {
			out.Value = strconv.FormatFloat(v, 'f', 2, 64)
		}
	}
	out.Title = c.XLabel + " / " + c.YLabel
	if c.Note != "" {
		clean := csvss.Sanitize(c.Note, b.Policy)
		if clean != c.Note {
			*changed++
		}
		if clean != "" {
			// Sanitized fragments are the only unescaped content on the page.
			out.Note = template.HTML(clean)
		}
	}
	return out
}

func axes(cells []Cell) (xs, ys []string) {
	seenX := map[string]bool{}
	seenY := map[string]bool{}
	for _, c := range cells {
		if !seenX[c.XID] {
			seenX[c.XID] = true
			xs = append(xs, c.XID)
		}
		if !seenY[c.YID] {
			seenY[c.YID] = true
			ys = append(ys, c.YID)
		}
	}
	return xs, ys
}

func xLabels(cells []Cell, xs []string) []string {
	labels := make([]string, len(xs))
	for i, id := range xs {
		labels[i] = id
		for _, c := range cells {
			if c.XID == id {
				labels[i] = c.XLabel
				break
			}
		}
	}
	return labels
}

func yLabel(cells []Cell, y string) string {
	for i := range cells {
		if cells[i].YID == y {
			return cells[i].YLabel
		}
	}
	return y
}

type page struct {
	Title      string
	XLabel     string
	YLabel     string
	CSS        template.CSS
	ShowValues bool
	Tags       []Tag
	XHeaders   []string
	Views      []view
}

type view struct {
	Metric  Metric
	Checked bool
	Rows    []viewRow
}

type viewRow struct {
	YLabel string
	Cells  []viewCell
}

type viewCell struct {
	Classes string
	Style   template.CSS
	Value   string
	Title   string
	Note    template.HTML
}

var pageTmpl = template.Must(template.New("report").Parse(`<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
<style>{{.CSS}}</style>
</head>
<body>
<main class="report">
<h1>{{.Title}}</h1>
<div class="controls">
{{- range $i, $v := .Views}}
  <label><input type="radio" name="metric" id="metric-{{$v.Metric.ID}}"{{if $v.Checked}} checked{{end}}> {{$v.Metric.Label}}</label>
{{- end}}
</div>
<div class="controls">
{{- range .Tags}}
  <label><input type="checkbox" id="tag-{{.ID}}" checked> {{.Label}}</label>
{{- end}}
</div>
{{- range .Views}}
<div class="view" data-metric="{{.Metric.ID}}">
<table class="grid">
<tr><th>{{$.YLabel}} \ {{$.XLabel}}</th>{{range $.XHeaders}}<th>{{.}}</th>{{end}}</tr>
{{- range .Rows}}
<tr><th>{{.YLabel}}</th>
{{- range .Cells}}
<td class="{{.Classes}}"{{with .Style}} style="{{.}}"{{end}}>
{{- if .Value}}<div class="cell-value">{{.Value}}</div>{{end}}
{{- if .Note}}<div class="cell-note"><div class="cell-note-title">{{.Title}}</div>{{.Note}}</div>{{end}}
</td>
{{- end}}
</tr>
{{- end}}
</table>
</div>
{{- end}}
</main>
</body>
</html>
`))
