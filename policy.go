package csvss

import (
	"fmt"
	"regexp"
	"strings"
)

// ClassValidator reports whether a trimmed class attribute value may be
// emitted. It is consulted only for the "class" attribute.
type ClassValidator func(string) bool

// classProbe is a plainly safe class name used to detect self-defeating
// validators at construction time.
const classProbe = "note"

// defaultClassPattern accepts letters, digits, underscore, hyphen, and
// space — enough for any sane class list, nothing that can break out of a
// quoted attribute or smuggle a URL.
var defaultClassPattern = regexp.MustCompile(`^[A-Za-z0-9_\- ]*$`)

// PolicyConfig describes an allowlist before compilation. Tag and
// attribute names are case-insensitive; NewPolicy lowercases them.
type PolicyConfig struct {
	// AllowedTags lists tag names that are kept in output. Anything not
	// listed here or in DropContentTags is unwrapped: the tag is removed
	// but its contents still flow through.
	AllowedTags []string

	// AllowedAttributes maps a tag name to the attribute names permitted
	// on it. The key "*" applies to every allowed tag; the effective set
	// for a tag is the union of its own entry and the "*" entry.
	AllowedAttributes map[string][]string

	// DropContentTags lists tags whose entire subtree — descendant markup
	// and text included — is discarded.
	DropContentTags []string

	// ClassValidator gates class attribute values after trimming. Nil
	// selects the default pattern [A-Za-z0-9_- ]*.
	ClassValidator ClassValidator

	// MaxInputBytes, when positive, truncates sanitizer input to this many
	// bytes before tokenizing. Truncation can only degrade output toward
	// escaped text, never toward unsafe markup. Zero means unlimited.
	MaxInputBytes int
}

// Policy is a compiled, immutable allowlist. Construct one with
// [NewPolicy] (or use [DefaultPolicy]) and share it freely; a Policy is
// safe for concurrent use and is never mutated by sanitization.
type Policy struct {
	allowedTags  map[string]bool
	allowedAttrs map[string]map[string]bool
	dropContent  map[string]bool
	classValid   ClassValidator
	maxInput     int
}

// NewPolicy compiles cfg into an immutable Policy. Contradictory
// configuration fails here, once, rather than surfacing per sanitize call:
// a tag listed as both allowed and drop-content, or a class validator that
// rejects even a plain class name, is a construction error.
func NewPolicy(cfg PolicyConfig) (*Policy, error) {
	p := &Policy{
		allowedTags:  make(map[string]bool, len(cfg.AllowedTags)),
		allowedAttrs: make(map[string]map[string]bool, len(cfg.AllowedAttributes)),
		dropContent:  make(map[string]bool, len(cfg.DropContentTags)),
		classValid:   cfg.ClassValidator,
		maxInput:     cfg.MaxInputBytes,
	}

	for _, t := range cfg.DropContentTags {
		p.dropContent[strings.ToLower(t)] = true
	}
	for _, t := range cfg.AllowedTags {
		lt := strings.ToLower(t)
		if p.dropContent[lt] {
			return nil, fmt.Errorf("csvss: tag %q is both allowed and drop-content", lt)
		}
		p.allowedTags[lt] = true
	}

	for tag, attrs := range cfg.AllowedAttributes {
		set := make(map[string]bool, len(attrs))
		for _, a := range attrs {
			set[strings.ToLower(a)] = true
		}
		p.allowedAttrs[strings.ToLower(tag)] = set
	}

	if p.classValid == nil {
		p.classValid = defaultClassPattern.MatchString
	}
	if !p.classValid(classProbe) {
		return nil, fmt.Errorf("csvss: class validator rejects %q; every class attribute would be stripped", classProbe)
	}

	return p, nil
}

// AllowsTag reports whether name survives sanitization as a tag.
func (p *Policy) AllowsTag(name string) bool { return p.allowedTags[name] }

// IsDropContent reports whether name removes its entire subtree.
func (p *Policy) IsDropContent(name string) bool { return p.dropContent[name] }

// AllowsAttr reports whether key is permitted on tag: the union of the
// tag-specific entry and the "*" wildcard entry.
func (p *Policy) AllowsAttr(tag, key string) bool {
	if set, ok := p.allowedAttrs["*"]; ok && set[key] {
		return true
	}
	if set, ok := p.allowedAttrs[tag]; ok && set[key] {
		return true
	}
	return false
}

// ValidClass reports whether a trimmed class value passes the policy's
// class validator.
func (p *Policy) ValidClass(v string) bool { return p.classValid(v) }

// DefaultPolicyConfig returns a fresh copy of the configuration behind
// [DefaultPolicy], as a starting point for variations.
func DefaultPolicyConfig() PolicyConfig {
	return PolicyConfig{
		AllowedTags: []string{
			"div", "span",
			"b", "strong", "i", "em",
			"code", "pre",
			"ul", "ol", "li",
			"br",
		},
		AllowedAttributes: map[string][]string{
			"*": {"class"},
		},
		DropContentTags: []string{
			"script", "style", "iframe", "object", "embed", "svg", "math",
			"form", "input", "button", "select", "option", "textarea",
			"meta", "link", "base",
			"audio", "video", "source",
			// img drops content too: tracking beacons / exfil via URL
			"img",
		},
	}
}

// defaultPolicy is compiled once at init and shared, read-only, by every
// caller that passes a nil policy.
var defaultPolicy = func() *Policy {
	p, err := NewPolicy(DefaultPolicyConfig())
	if err != nil {
		panic(err)
	}
	return p
}()

// DefaultPolicy returns the shared built-in policy: a small inline
// formatting subset (div, span, b, strong, i, em, code, pre, ul, ol, li,
// br), class as the only attribute, and an aggressive drop-content list
// covering script, style, media, and form elements.
func DefaultPolicy() *Policy { return defaultPolicy }
