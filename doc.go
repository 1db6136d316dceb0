// Package csvss sanitizes untrusted HTML note fragments before they are
// embedded into static, script-free CSV-driven reports.
//
// # Overview
//
// Report tooltips and notes arrive as raw, possibly malformed HTML written
// by whoever filled in the source spreadsheet. csvss runs that markup
// through a single-pass, allowlist-driven state machine and returns a
// string that is safe to splice verbatim into an otherwise static HTML
// document: no surviving tag, attribute, or text sequence can execute
// script or load an external resource.
//
// The transform is built from four pieces:
//   - [Policy] — an immutable allowlist of tags, attributes, and
//     drop-content tags, compiled once by [NewPolicy]
//   - [Tokenizer] — a streaming markup tokenizer (backed by
//     golang.org/x/net/html) that never fails on malformed input
//   - an attribute validator that keeps or drops individual attributes
//     without ever dropping the owning tag
//   - the sanitizing state machine behind [Sanitize], which tracks
//     drop-content subtrees on an explicit heap-allocated stack
//
// # Behavior
//
// Three things can happen to a tag:
//   - allowed tags are re-emitted with only their allowed attributes
//   - drop-content tags (script, style, iframe, ...) vanish together with
//     everything inside them
//   - everything else is unwrapped: the tag goes away, its contents keep
//     flowing through the sanitizer
//
// Text is HTML-escaped, entity and character references are decoded and
// re-escaped (so nothing can be smuggled through entity encoding), and
// comments are always discarded.
//
// [Sanitize] is total: it never returns an error, no matter how adversarial
// or malformed the input is. Unparsable spans degrade to escaped text. The
// only way to get an error out of this package is to construct a
// contradictory [Policy].
//
// # Thread Safety
//
// A Policy is immutable after construction and safe to share across any
// number of concurrent Sanitize calls. Each call owns its own state.
//
// # Example
//
//	clean := csvss.Sanitize(noteHTML, csvss.DefaultPolicy())
package csvss
