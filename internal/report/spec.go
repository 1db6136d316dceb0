// Package report assembles a static, script-free HTML heatmap report from
// a sectioned spec CSV and a data CSV. Sanitized note fragments are
// embedded verbatim as tooltips; everything else is escaped by the
// template engine. Interactivity (metric switching, tag filtering) is
// pure CSS over checkbox/radio state — the output contains no JavaScript.
package report

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Spec is the report description read from the sectioned spec CSV
// (sections: meta, layout, metrics, tags).
type Spec struct {
	Title            string
	XLabel           string
	YLabel           string
	ValueLabel       string
	TooltipHTMLField string
	TagsSeparator    string

	CellPx     int
	FontPx     int
	ShowValues bool

	Metrics []Metric
	Tags    []Tag
}

// Metric is one switchable heatmap view.
type Metric struct {
	ID    string
	Label string
	Min   float64
	Max   float64
}

// Tag is one filterable label attached to rows of the data CSV.
type Tag struct {
	ID    string
	Label string
}

// ReadSpec parses the sectioned spec CSV. Unknown sections and keys are
// ignored; missing keys fall back to defaults.
func ReadSpec(r io.Reader) (*Spec, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("report: read spec csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("report: spec csv has no header")
	}

	idx := headerIndex(records[0])
	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return strings.TrimSpace(row[i])
	}

	spec := &Spec{
		Title:            "Report",
		TooltipHTMLField: "note_html",
		TagsSeparator:    "|",
		CellPx:           28,
		FontPx:           14,
	}

	for _, row := range records[1:] {
		switch field(row, "section") {
		case "meta":
			switch field(row, "key") {
			case "title":
				spec.Title = field(row, "value")
			case "x_label":
				spec.XLabel = field(row, "value")
			case "y_label":
				spec.YLabel = field(row, "value")
			case "value_label":
				spec.ValueLabel = field(row, "value")
			case "tooltip_html_field":
				spec.TooltipHTMLField = field(row, "value")
			case "tags_separator":
				if v := field(row, "value"); v != "" {
					spec.TagsSeparator = v
				}
			}
		case "layout":
			switch field(row, "key") {
			case "cell_px":
				if n, err := strconv.Atoi(field(row, "value")); err == nil && n > 0 {
					spec.CellPx = n
				}
			case "font_px":
				if n, err := strconv.Atoi(field(row, "value")); err == nil && n > 0 {
					spec.FontPx = n
				}
			case "show_values":
				spec.ShowValues = field(row, "value") == "true"
			}
		case "metrics":
			m := Metric{
				ID:    field(row, "m_id"),
				Label: field(row, "label"),
				Max:   1,
			}
			if m.ID == "" {
				continue
			}
			if m.Label == "" {
				m.Label = m.ID
			}
			if v, err := strconv.ParseFloat(field(row, "min"), 64); err == nil {
				m.Min = v
			}
			if v, err := strconv.ParseFloat(field(row, "max"), 64); err == nil {
				m.Max = v
			}
			spec.Metrics = append(spec.Metrics, m)
		case "tags":
			tag := Tag{ID: field(row, "tag_id"), Label: field(row, "tag_label")}
			if tag.ID == "" {
				continue
			}
			if tag.Label == "" {
				tag.Label = tag.ID
			}
			spec.Tags = append(spec.Tags, tag)
		}
	}

	if len(spec.Metrics) == 0 {
		return nil, fmt.Errorf("report: spec defines no metrics")
	}
	return spec, nil
}

// Cell is one (x, y) data point with all metric values, its tags, and the
// raw tooltip HTML (sanitized later, at build time).
type Cell struct {
	XID    string
	XLabel string
	YID    string
	YLabel string
	Tags   []string
	Values map[string]float64
	Note   string
}

// ReadData parses the data CSV into cells, in row order. Metric columns
// that fail to parse are skipped for that cell; a missing note column
// leaves notes empty.
func ReadData(r io.Reader, spec *Spec) ([]Cell, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	records, err := cr.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("report: read data csv: %w", err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("report: data csv has no header")
	}

	idx := headerIndex(records[0])
	for _, required := range []string{"x_id", "y_id"} {
		if _, ok := idx[required]; !ok {
			return nil, fmt.Errorf("report: data csv missing column %q", required)
		}
	}
	field := func(row []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(row) {
			return ""
		}
		return row[i]
	}

	cells := make([]Cell, 0, len(records)-1)
	for _, row := range records[1:] {
		c := Cell{
			XID:    field(row, "x_id"),
			XLabel: field(row, "x_label"),
			YID:    field(row, "y_id"),
			YLabel: field(row, "y_label"),
			Note:   field(row, spec.TooltipHTMLField),
			Values: make(map[string]float64, len(spec.Metrics)),
		}
		if c.XLabel == "" {
			c.XLabel = c.XID
		}
		if c.YLabel == "" {
			c.YLabel = c.YID
		}
		if tags := strings.TrimSpace(field(row, "tags")); tags != "" {
			c.Tags = strings.Split(tags, spec.TagsSeparator)
		}
		for _, m := range spec.Metrics {
			if v, err := strconv.ParseFloat(strings.TrimSpace(field(row, m.ID)), 64); err == nil {
				c.Values[m.ID] = v
			}
		}
		cells = append(cells, c)
	}
	return cells, nil
}

func headerIndex(header []string) map[string]int {
	idx := make(map[string]int, len(header))
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	return idx
}
