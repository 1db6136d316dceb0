package csvss_test

import (
	"regexp"
	"strings"
	"testing"

	"github.com/robertej19/csvss"
)

func TestSanitize_DropContentRemoved(t *testing.T) {
	got := csvss.Sanitize(`<script>alert(1)</script>safe`, nil)
	if got != "safe" {
		t.Errorf("script subtree should vanish, got %q", got)
	}
}

func TestSanitize_UnknownTagUnwrapped(t *testing.T) {
	got := csvss.Sanitize(`<marquee>hi</marquee>`, nil)
	if got != "hi" {
		t.Errorf("unknown tag should unwrap to its contents, got %q", got)
	}
}

func TestSanitize_AttributeFiltered(t *testing.T) {
	got := csvss.Sanitize(`<div class="ok" onclick="evil()">t</div>`, nil)
	if got != `<div class="ok">t</div>` {
		t.Errorf("onclick should be dropped, class kept, got %q", got)
	}
}

func TestSanitize_UnsafeClassRejectedTagKept(t *testing.T) {
	got := csvss.Sanitize(`<span class="x;y">t</span>`, nil)
	if got != `<span>t</span>` {
		t.Errorf("bad class drops the attribute, not the tag, got %q", got)
	}
}

func TestSanitize_ClassTrimmedAndEmptyDropped(t *testing.T) {
	if got := csvss.Sanitize(`<span class="  ok  ">t</span>`, nil); got != `<span class="ok">t</span>` {
		t.Errorf("class should be trimmed, got %q", got)
	}
	if got := csvss.Sanitize(`<span class="   ">t</span>`, nil); got != `<span>t</span>` {
		t.Errorf("whitespace-only class should be dropped, got %q", got)
	}
}

func TestSanitize_EmptyInput(t *testing.T) {
	if got := csvss.Sanitize("", nil); got != "" {
		t.Errorf("empty in, empty out, got %q", got)
	}
}

func TestSanitize_TextEscaped(t *testing.T) {
	got := csvss.Sanitize("5 < 3 & 2 > 1", nil)
	if got != "5 &lt; 3 &amp; 2 &gt; 1" {
		t.Errorf("text should be escaped, got %q", got)
	}
}

// Depth-2 nested identical drop tags: the inner <script> deepens the drop
// region, the first </script> only unwinds one level, so "b" is still
// inside the region and only "c" survives.
func TestSanitize_NestedIdenticalDropTags(t *testing.T) {
	got := csvss.Sanitize(`<script><script>a</script>b</script>c`, nil)
	if got != "c" {
		t.Errorf("depth-2 drop should eat a and b, got %q", got)
	}
}

// Interleaved distinct drop tags use strict top-of-stack popping: the
// </script> arriving while <style> is on top is ignored, so the script
// region never closes and everything after it is discarded.
func TestSanitize_InterleavedDropTagsStrictStack(t *testing.T) {
	got := csvss.Sanitize(`<script><style></script>text</style>after`, nil)
	if got != "" {
		t.Errorf("interleaved close tags should not unwind out of order, got %q", got)
	}
}

func TestSanitize_CommentsDropped(t *testing.T) {
	if got := csvss.Sanitize(`a<!-- hidden -->b`, nil); got != "ab" {
		t.Errorf("comments should never be emitted, got %q", got)
	}
	if got := csvss.Sanitize(`<script><!-- x --></script>y`, nil); got != "y" {
		t.Errorf("comments inside drop regions should be discarded, got %q", got)
	}
}

func TestSanitize_VoidBr(t *testing.T) {
	if got := csvss.Sanitize(`a<br/>b`, nil); got != "a<br>b" {
		t.Errorf("self-closing br emits <br> only, got %q", got)
	}
	if got := csvss.Sanitize(`a<br>b`, nil); got != "a<br>b" {
		t.Errorf("plain <br> kept, got %q", got)
	}
	if got := csvss.Sanitize(`a</br>b`, nil); got != "ab" {
		t.Errorf("closing tag for a void element is ignored, got %q", got)
	}
}

func TestSanitize_SelfClosingNonVoidSynthesizesClose(t *testing.T) {
	got := csvss.Sanitize(`<div/>x`, nil)
	if got != "<div></div>x" {
		t.Errorf("self-closing non-void gets a synthesized close, got %q", got)
	}
}

func TestSanitize_SelfClosingDropTagIsNoOp(t *testing.T) {
	got := csvss.Sanitize(`a<img/>b<img src="http://evil/x.gif"/>c`, nil)
	if got != "abc" {
		t.Errorf("self-closing drop tags vanish without opening a region, got %q", got)
	}
}

// A non-self-closed drop-content tag opens a region that, unclosed, runs
// to end of input. This is deliberate: erring toward dropping more is the
// safe direction.
func TestSanitize_UnclosedDropTagEatsRest(t *testing.T) {
	got := csvss.Sanitize(`x<img src="http://evil/t.gif">y`, nil)
	if got != "x" {
		t.Errorf("unclosed drop tag should suppress the rest, got %q", got)
	}
}

func TestSanitize_CaseNormalized(t *testing.T) {
	got := csvss.Sanitize(`<DIV CLASS="ok">t</DIV>`, nil)
	if got != `<div class="ok">t</div>` {
		t.Errorf("tag and attribute names should lowercase, got %q", got)
	}
}

func TestSanitize_UnquotedAttrValueQuoted(t *testing.T) {
	got := csvss.Sanitize(`<div class=ok>t</div>`, nil)
	if got != `<div class="ok">t</div>` {
		t.Errorf("unquoted attribute values come out quoted, got %q", got)
	}
}

// Entity-encoded markup decodes to text, never to tags: the decoded
// characters are re-escaped on the way out.
func TestSanitize_EntityEncodedMarkupStaysText(t *testing.T) {
	in := `&lt;script&gt;alert(1)&lt;/script&gt;`
	got := csvss.Sanitize(in, nil)
	if got != in {
		t.Errorf("decoded entities must be re-escaped, got %q", got)
	}
	if strings.Contains(got, "<script") {
		t.Errorf("entity smuggling produced a live tag: %q", got)
	}
}

func TestSanitize_UnbalancedCloseTagsIgnored(t *testing.T) {
	got := csvss.Sanitize(`</div>a</span></b>b`, nil)
	if got != "</div>a</span></b>b" {
		// Allowed close tags are emitted even unbalanced; the surrounding
		// document stays safe because only allowed names can appear.
		t.Errorf("unexpected handling of unbalanced close tags: %q", got)
	}
	if got := csvss.Sanitize(`</video>a`, nil); got != "a" {
		t.Errorf("close tag for a non-allowed tag is dropped, got %q", got)
	}
}

func TestSanitize_MalformedTrailingTag(t *testing.T) {
	got := csvss.Sanitize(`a<div`, nil)
	if strings.Contains(got, "<") {
		t.Errorf("malformed trailing tag must not emit raw markup: %q", got)
	}
	if !strings.HasPrefix(got, "a") {
		t.Errorf("leading text should survive: %q", got)
	}
}

func TestSanitize_NilPolicyUsesDefault(t *testing.T) {
	if got := csvss.Sanitize(`<b>x</b>`, nil); got != "<b>x</b>" {
		t.Errorf("nil policy should behave like DefaultPolicy, got %q", got)
	}
}

func TestSanitize_MaxInputBytesTruncates(t *testing.T) {
	p, err := csvss.NewPolicy(csvss.PolicyConfig{
		AllowedTags:   []string{"b"},
		MaxInputBytes: 8,
	})
	if err != nil {
		t.Fatal(err)
	}
	got := csvss.Sanitize(`<b>hi</b><script>alert(1)</script>`, p)
	if strings.Contains(got, "script") || strings.Contains(got, "<i") {
		t.Errorf("truncated input must stay safe: %q", got)
	}
}

var adversarialInputs = []string{
	``,
	`plain text`,
	`5 < 3 & 2 > 1`,
	`"quotes" and 'apostrophes'`,
	`<b>bold</b> <i>italic</i> <em>em</em> <strong>strong</strong>`,
	`<div class="note"><span class="pill">ok</span></div>`,
	`<script>alert(1)</script>safe`,
	`<SCRIPT SRC="http://evil/x.js"></SCRIPT>tail`,
	`<script><script>a</script>b</script>c`,
	`<script><style></script>text</style>after`,
	`<style>body{background:url(javascript:alert(1))}</style>x`,
	`<iframe src="http://evil"></iframe>y`,
	`<img src="x" onerror="alert(1)">z`,
	`<div onclick="evil()" class="ok">t</div>`,
	`<a href="javascript:alert(1)">click</a>`,
	`<marquee><blink>hi</blink></marquee>`,
	`&lt;script&gt;alert(1)&lt;/script&gt;`,
	`&amp;&lt;&gt;&quot;&#39;`,
	`a<!-- comment --><!-->b`,
	`<br/><br><div/>`,
	`broken <div class="unterminated`,
	`<div><div><div><div><div>deep</div></div></div>`,
	`<ul><li>one</li><li>two</li></ul>`,
	`<form><input value="x"><button>go</button></form>rest`,
	`<svg><circle onload="alert(1)"/></svg>done`,
	"text with unicode: caf\u00e9 \u2603 \u4e16\u754c",
}

// Fixed point: sanitizing sanitized output changes nothing.
func TestSanitize_Idempotent(t *testing.T) {
	for _, in := range adversarialInputs {
		once := csvss.Sanitize(in, nil)
		twice := csvss.Sanitize(once, nil)
		if once != twice {
			t.Errorf("not idempotent for %q:\n once: %q\ntwice: %q", in, once, twice)
		}
	}
}

// Allowlist containment: every tag name in output is an allowed tag. The
// output is re-tokenized with the package's own tokenizer.
func TestSanitize_AllowlistContainment(t *testing.T) {
	p := csvss.DefaultPolicy()
	for _, in := range adversarialInputs {
		out := csvss.Sanitize(in, p)
		tz := csvss.NewTokenizer(strings.NewReader(out))
		for {
			ev, ok := tz.Next()
			if !ok {
				break
			}
			switch ev.Kind {
			case csvss.StartTag, csvss.EndTag, csvss.SelfClosingTag:
				if !p.AllowsTag(ev.Name) {
					t.Errorf("input %q produced disallowed tag %q in %q", in, ev.Name, out)
				}
			}
		}
	}
}

var eventHandlerAttr = regexp.MustCompile(`(?i)<[^>]*\son[a-z]+\s*=`)

func TestSanitize_NoScriptStyleOrHandlersSurvive(t *testing.T) {
	for _, in := range adversarialInputs {
		out := strings.ToLower(csvss.Sanitize(in, nil))
		for _, bad := range []string{"<script", "<style", "<iframe"} {
			if strings.Contains(out, bad) {
				t.Errorf("input %q leaked %q: %q", in, bad, out)
			}
		}
		if eventHandlerAttr.MatchString(out) {
			t.Errorf("input %q leaked an event handler attribute: %q", in, out)
		}
	}
}

func TestSanitize_CustomPolicyNonClassAttrPassthrough(t *testing.T) {
	p, err := csvss.NewPolicy(csvss.PolicyConfig{
		AllowedTags:       []string{"span"},
		AllowedAttributes: map[string][]string{"span": {"title"}},
	})
	if err != nil {
		t.Fatal(err)
	}
	got := csvss.Sanitize(`<span title="a &amp; b" id="x">t</span>`, p)
	if got != `<span title="a &amp; b">t</span>` {
		t.Errorf("allowlisted attribute should be escaped and kept, got %q", got)
	}
	if csvss.Sanitize(got, p) != got {
		t.Errorf("attribute escaping broke idempotence: %q", got)
	}
}

// sliceTokenizer replays a fixed event stream; it stands in for platform
// tokenizers that surface references as separate events.
type sliceTokenizer struct {
	events []csvss.Event
	i      int
}

func (s *sliceTokenizer) Next() (csvss.Event, bool) {
	if s.i >= len(s.events) {
		return csvss.Event{}, false
	}
	ev := s.events[s.i]
	s.i++
	return ev, true
}

func TestSanitizeTokens_ReferenceEventsDecodedAndReescaped(t *testing.T) {
	tz := &sliceTokenizer{events: []csvss.Event{
		{Kind: csvss.Text, Data: "a"},
		{Kind: csvss.EntityRef, Name: "amp"},
		{Kind: csvss.CharRef, Code: '<'},
		{Kind: csvss.EntityRef, Name: "bogus"},
		{Kind: csvss.Comment, Data: "never"},
		{Kind: csvss.Text, Data: "b"},
	}}
	got := csvss.SanitizeTokens(tz, nil)
	if got != "a&amp;&lt;&amp;bogus;b" {
		t.Errorf("reference events should decode then re-escape, got %q", got)
	}
}

func TestSanitizeTokens_ReferencesDiscardedWhileDropping(t *testing.T) {
	tz := &sliceTokenizer{events: []csvss.Event{
		{Kind: csvss.StartTag, Name: "script"},
		{Kind: csvss.EntityRef, Name: "amp"},
		{Kind: csvss.CharRef, Code: 'x'},
		{Kind: csvss.Text, Data: "payload"},
		{Kind: csvss.EndTag, Name: "script"},
		{Kind: csvss.Text, Data: "ok"},
	}}
	if got := csvss.SanitizeTokens(tz, nil); got != "ok" {
		t.Errorf("references inside drop regions must vanish, got %q", got)
	}
}

func TestSanitize_ConcurrentSharedPolicy(t *testing.T) {
	p := csvss.DefaultPolicy()
	done := make(chan struct{})
	for i := 0; i < 8; i++ {
		go func() {
			defer func() { done <- struct{}{} }()
			for _, in := range adversarialInputs {
				_ = csvss.Sanitize(in, p)
			}
		}()
	}
	for i := 0; i < 8; i++ {
		<-done
	}
}

func BenchmarkSanitize(b *testing.B) {
	input := strings.Repeat(`<div class="note"><b>bold</b> <script>bad()</script> 5 < 3 &amp; more</div>`, 100)
	p := csvss.DefaultPolicy()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = csvss.Sanitize(input, p)
	}
}
