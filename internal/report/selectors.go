package report

import (
	"fmt"
	"regexp"
	"strings"
)

// safeCSSIdent gates every identifier interpolated into generated CSS or
// into id/class attributes. Anything else is skipped at build time.
var safeCSSIdent = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// baseCSS is the static part of the stylesheet; %d slots are cell and
// font size from the spec's layout section.
const baseCSS = `
body { font-family: system-ui, sans-serif; margin: 24px; }
.report h1 { font-size: 1.3em; }
.controls { margin: 12px 0; }
.controls label { margin-right: 12px; cursor: pointer; }
.grid { border-collapse: collapse; }
.grid th { font-weight: normal; padding: 2px 6px; font-size: %dpx; }
.cell { position: relative; width: %dpx; height: %dpx; border: 1px solid #fff; }
.cell-value { font-size: %dpx; text-align: center; line-height: %dpx; color: #fff; }
.cell-note {
  display: none; position: absolute; z-index: 10; left: 100%%; top: 0;
  min-width: 180px; background: #fff; border: 1px solid #999;
  padding: 6px 8px; font-size: %dpx; box-shadow: 2px 2px 6px rgba(0,0,0,.25);
}
.cell:hover .cell-note { display: block; }
.view { display: none; }
`

// buildCSS produces the full stylesheet: the static base plus the
// generated selectors that drive metric switching and tag filtering off
// radio/checkbox state. No JavaScript, ever.
func buildCSS(spec *Spec) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, baseCSS,
		spec.FontPx, spec.CellPx, spec.CellPx, spec.FontPx, spec.CellPx, spec.FontPx)

	sb.WriteString("\n/* --- generated selectors (no JS) --- */\n")
	for _, m := range spec.Metrics {
		if !safeCSSIdent.MatchString(m.ID) {
			continue
		}
		fmt.Fprintf(&sb,
			".report:has(#metric-%s:checked) .view[data-metric=%q] { display: block; }\n",
			m.ID, m.ID)
	}
	for _, tag := range spec.Tags {
		if !safeCSSIdent.MatchString(tag.ID) {
			continue
		}
		fmt.Fprintf(&sb,
			".report:has(#tag-%s:not(:checked)) .cell.tag-%s { opacity: 0.15; }\n",
			tag.ID, tag.ID)
	}
	return sb.String()
}

// cellColor maps a metric value onto a background color: a linear ramp
// from near-white to a saturated blue across [min, max].
func cellColor(v, min, max float64) string {
	t := 0.0
	if max > min {
		t = (v - min) / (max - min)
	}
	if t < 0 {
		t = 0
	} else if t > 1 {
		t = 1
	}
	lerp := func(a, b float64) int { return int(a + (b-a)*t) }
	return fmt.Sprintf("#%02x%02x%02x", lerp(0xf2, 0x15), lerp(0xf6, 0x42), lerp(0xfa, 0x8a))
}
