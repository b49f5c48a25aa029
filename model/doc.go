// Package model defines the StreamSource contract: an ordered producer of
// text chunks consumed by the dispatcher. Provider adapters live in
// subpackages (openai, anthropic); MockSource supports tests and examples.
//
// The chunk stream is the only coupling between language model invocation and
// the parse loop: tags arrive in-band as text, so adapters simply forward
// content deltas without interpreting them.
package model
