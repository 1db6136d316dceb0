package csvss

import (
	"errors"
	"io"

	"golang.org/x/net/html"
)

// EventKind discriminates the variants of [Event].
type EventKind int

const (
	// StartTag is an opening tag with its attributes: <div class="x">.
	StartTag EventKind = iota
	// EndTag is a closing tag: </div>.
	EndTag
	// SelfClosingTag is syntactic self-closing, void or not: <br/>, <div/>.
	SelfClosingTag
	// Text is character data. The default tokenizer delivers it with
	// entity and character references already decoded.
	Text
	// EntityRef is a named reference such as &amp; surfaced on its own,
	// by tokenizers that do not decode references inline.
	EntityRef
	// CharRef is a numeric reference such as &#60; surfaced on its own.
	CharRef
	// Comment is <!-- ... --> (and anything comment-like, e.g. doctype).
	Comment
)

// Attr is a single attribute as it appeared in the input. Order is
// significant: output attributes are emitted in input order.
type Attr struct {
	Key string
	Val string
}

// Event is one markup event. Which fields are meaningful depends on Kind:
// Name for tags and entity references, Attrs for start and self-closing
// tags, Data for text and comments, Code for character references.
type Event struct {
	Kind  EventKind
	Name  string
	Attrs []Attr
	Data  string
	Code  rune
}

// Tokenizer turns a character stream into an ordered sequence of markup
// events. Next returns false when the stream is exhausted. Implementations
// must lowercase tag and attribute names and must never fail on malformed
// markup — unparsable spans are surfaced as Text events instead.
type Tokenizer interface {
	Next() (Event, bool)
}

// NewTokenizer returns the default streaming tokenizer, backed by
// golang.org/x/net/html. Raw-text mode is disabled after every start tag,
// so markup nested inside script/style/textarea still surfaces as tag
// events rather than being swallowed as one opaque text blob — the
// sanitizer needs to see the nesting to track drop depth correctly.
func NewTokenizer(r io.Reader) Tokenizer {
	return &htmlTokenizer{z: html.NewTokenizer(r)}
}

type htmlTokenizer struct {
	z    *html.Tokenizer
	done bool
}

func (t *htmlTokenizer) Next() (Event, bool) {
	for !t.done {
		switch t.z.Next() {
		case html.ErrorToken:
			t.done = true
			// EOF in the middle of a tag leaves a partial token behind.
			// Surface it as text so it degrades to escaped output instead
			// of disappearing.
			if errors.Is(t.z.Err(), io.EOF) {
				if raw := t.z.Raw(); len(raw) > 0 {
					return Event{Kind: Text, Data: string(raw)}, true
				}
			}
			return Event{}, false

		case html.TextToken:
			// Token() decodes entity and character references here.
			return Event{Kind: Text, Data: t.z.Token().Data}, true

		case html.StartTagToken:
			t.z.NextIsNotRawText()
			tok := t.z.Token()
			return Event{Kind: StartTag, Name: tok.Data, Attrs: convertAttrs(tok.Attr)}, true

		case html.EndTagToken:
			return Event{Kind: EndTag, Name: t.z.Token().Data}, true

		case html.SelfClosingTagToken:
			tok := t.z.Token()
			return Event{Kind: SelfClosingTag, Name: tok.Data, Attrs: convertAttrs(tok.Attr)}, true

		case html.CommentToken:
			return Event{Kind: Comment, Data: t.z.Token().Data}, true

		case html.DoctypeToken:
			// There is no safe interpretation of doctype content; treat it
			// like a comment so the state machine discards it.
			return Event{Kind: Comment, Data: t.z.Token().Data}, true
		}
	}
	return Event{}, false
}

func convertAttrs(attrs []html.Attribute) []Attr {
	if len(attrs) == 0 {
		return nil
	}
	out := make([]Attr, len(attrs))
	for i, a := range attrs {
		out[i] = Attr{Key: a.Key, Val: a.Val}
	}
	return out
}
