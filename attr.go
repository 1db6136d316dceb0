package csvss

import "strings"

// sanitizeAttrs filters attrs down to the ones p allows on tag, in input
// order. Dropping an attribute never drops the owning tag.
//
// class gets special treatment: the value is trimmed, then dropped when
// empty or when it fails the policy's class validator. Any other
// allowlisted attribute passes through with its raw value — the value is
// still attribute-escaped at emission, but not otherwise examined, so
// policies that allowlist such attributes own that risk. The default
// policy allows none.
func sanitizeAttrs(p *Policy, tag string, attrs []Attr) []Attr {
	var kept []Attr
	for _, a := range attrs {
		key := strings.ToLower(a.Key)
		if !p.AllowsAttr(tag, key) {
			continue
		}
		if key == "class" {
			v := strings.TrimSpace(a.Val)
			if v == "" || !p.ValidClass(v) {
				continue
			}
			kept = append(kept, Attr{Key: key, Val: v})
			continue
		}
		kept = append(kept, Attr{Key: key, Val: a.Val})
	}
	return kept
}
