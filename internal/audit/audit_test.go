package audit

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestScan_CleanPage(t *testing.T) {
	page := `<!DOCTYPE html><html><head><style>.x{}</style></head>
<body><div class="note"><b>ok</b></div></body></html>`
	findings, err := Scan(strings.NewReader(page))
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestScan_FlagsScriptElement(t *testing.T) {
	findings, err := Scan(strings.NewReader(`<body><script>alert(1)</script></body>`))
	require.NoError(t, err)
	require.Len(t, findings, 1)
	require.Equal(t, "script", findings[0].Tag)
}

func TestScan_FlagsEventHandlers(t *testing.T) {
	findings, err := Scan(strings.NewReader(`<div onclick="evil()" ONMOUSEOVER="x()">t</div>`))
	require.NoError(t, err)
	require.Len(t, findings, 2)
	for _, f := range findings {
		require.Equal(t, "div", f.Tag)
		require.True(t, strings.HasPrefix(f.Attr, "on"))
	}
}

func TestScan_FlagsActiveURLSchemes(t *testing.T) {
	page := `<a href="JavaScript:alert(1)">x</a><img src="data:text/html,boom">`
	findings, err := Scan(strings.NewReader(page))
	require.NoError(t, err)
	require.Len(t, findings, 2)
}

func TestScan_AllowsPlainLinks(t *testing.T) {
	findings, err := Scan(strings.NewReader(`<a href="https://example.com/x">x</a>`))
	require.NoError(t, err)
	require.Empty(t, findings)
}

func TestFinding_String(t *testing.T) {
	require.Equal(t, "<script>: boom", Finding{Tag: "script", Detail: "boom"}.String())
	require.Equal(t, "<div onclick>: boom", Finding{Tag: "div", Attr: "onclick", Detail: "boom"}.String())
}
