// Package templates resolves operator-managed content templates and renders
// them into channel-shaped notification content.
//
// A template is uniquely keyed by its (kind, channel) derived key, e.g.
// "payment_failed_email". Rendering substitutes {{name}} tokens with the
// string form of caller-supplied variables in one linear pass per field —
// no conditionals, no loops, no nesting. Substitution is total: a missing
// variable renders as an empty string rather than failing the send.
//
// Resolution fails closed: if no active template matches (key, channel) the
// render returns ErrTemplateNotFound and nothing is sent. This is the
// opposite of the preference layer's fail-open policy, and intentionally so —
// sending an empty message is worse than sending none.
package templates
