package csvss

import (
	"strings"

	"golang.org/x/net/html"
)

// Sanitize applies p to raw and returns markup that is safe to embed
// verbatim in a static HTML document. It is total: malformed input
// degrades to escaped text, disallowed markup is silently unwrapped or
// dropped, and no input value causes an error or panic. A nil policy
// means [DefaultPolicy]; empty input returns "".
//
// Sanitize is idempotent: feeding its output back in returns the same
// string.
func Sanitize(raw string, p *Policy) string {
	if p == nil {
		p = DefaultPolicy()
	}
	if raw == "" {
		return ""
	}
	if p.maxInput > 0 && len(raw) > p.maxInput {
		raw = raw[:p.maxInput]
	}
	return SanitizeTokens(NewTokenizer(strings.NewReader(raw)), p)
}

// SanitizeTokens drains tz through the sanitizing state machine under p.
// It exists so the tokenizing primitive can be swapped out — a custom
// [Tokenizer] gets identical sanitization semantics, including handling
// of standalone EntityRef and CharRef events that the default tokenizer
// decodes inline.
func SanitizeTokens(tz Tokenizer, p *Policy) string {
	if p == nil {
		p = DefaultPolicy()
	}
	m := machine{policy: p}
	for {
		ev, ok := tz.Next()
		if !ok {
			break
		}
		m.step(ev)
	}
	// Unterminated drop regions simply end here; leftover stack entries
	// are discarded without effect.
	return m.out.String()
}

// machine is the per-call sanitizer state: the policy (shared, read-only),
// the drop stack, and the output buffer. The machine is in the Dropping
// state exactly when the stack is non-empty; stack depth is the nesting
// depth of drop-content tags. The stack lives on the heap — nesting never
// recurses on the goroutine stack, so adversarial nesting depth costs
// memory linear in input size and nothing else.
type machine struct {
	policy *Policy
	drop   []string
	out    strings.Builder
}

func (m *machine) step(ev Event) {
	if len(m.drop) > 0 {
		m.stepDropping(ev)
		return
	}
	switch ev.Kind {
	case StartTag:
		switch {
		case m.policy.IsDropContent(ev.Name):
			m.drop = append(m.drop, ev.Name)
		case m.policy.AllowsTag(ev.Name):
			m.emitStart(ev.Name, ev.Attrs)
		default:
			// Unwrap: the tag markup is omitted, its contents keep
			// flowing through in the Normal state.
		}
	case EndTag:
		if m.policy.AllowsTag(ev.Name) && !isVoidElement(ev.Name) {
			m.emitEnd(ev.Name)
		}
	case SelfClosingTag:
		if m.policy.IsDropContent(ev.Name) {
			// Opens and closes in one event; there is no subtree to drop.
			return
		}
		if m.policy.AllowsTag(ev.Name) {
			m.emitStart(ev.Name, ev.Attrs)
			if !isVoidElement(ev.Name) {
				m.emitEnd(ev.Name)
			}
		}
	case Text:
		m.out.WriteString(html.EscapeString(ev.Data))
	case EntityRef:
		// Decode, then re-escape: an unknown entity stays literal text,
		// a known one cannot smuggle < > & past the escaper.
		m.out.WriteString(html.EscapeString(html.UnescapeString("&" + ev.Name + ";")))
	case CharRef:
		m.out.WriteString(html.EscapeString(string(ev.Code)))
	case Comment:
		// Comments are never emitted, in either state.
	}
}

// stepDropping handles events while inside a drop-content subtree. Only a
// close tag matching the top of the stack unwinds a level; a close tag for
// any other name is ignored, including other drop-content names. With
// interleaved close tags the region therefore stays open and keeps
// dropping, which errs in the safe direction.
func (m *machine) stepDropping(ev Event) {
	switch ev.Kind {
	case StartTag:
		if m.policy.IsDropContent(ev.Name) {
			m.drop = append(m.drop, ev.Name)
		}
	case EndTag:
		if ev.Name == m.drop[len(m.drop)-1] {
			m.drop = m.drop[:len(m.drop)-1]
		}
	}
	// Self-closing drop tags balance immediately (no net stack change);
	// text, references, and comments are discarded unconditionally.
}

func (m *machine) emitStart(name string, attrs []Attr) {
	m.out.WriteByte('<')
	m.out.WriteString(name)
	for _, a := range sanitizeAttrs(m.policy, name, attrs) {
		m.out.WriteByte(' ')
		m.out.WriteString(a.Key)
		m.out.WriteString(`="`)
		m.out.WriteString(html.EscapeString(a.Val))
		m.out.WriteByte('"')
	}
	m.out.WriteByte('>')
}

func (m *machine) emitEnd(name string) {
	m.out.WriteString("</")
	m.out.WriteString(name)
	m.out.WriteByte('>')
}

func isVoidElement(tag string) bool {
	switch tag {
	case "area", "base", "br", "col", "embed", "hr", "img", "input",
		"link", "meta", "param", "source", "track", "wbr":
		return true
	}
	return false
}
