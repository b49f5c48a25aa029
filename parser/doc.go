// Package parser implements the streaming tag scanner and the element
// sequencer that together turn incrementally produced model output into
// ordered structural updates.
//
// The Scanner consumes text chunks with arbitrary boundaries and emits
// start/text/end events for a caller-supplied tag set; partial tag syntax is
// buffered across chunk boundaries so every way of splitting a document
// yields identical events. The Sequencer folds those events into indexed,
// nested Elements with a done/not-done lifecycle and invokes a callback per
// update.
//
// Malformed input never produces an error: unterminated tags simply leave
// their element open until the input ends, and unrecognized markers pass
// through as ordinary text.
package parser
