package parser

import "strings"

// Scanner is a cooperative tag scanner over text chunks. It recognizes a
// fixed set of tag names supplied at construction and emits structural
// events; everything else, unrecognized markers included, surfaces as text.
//
// A Scanner belongs to exactly one parse session and is not safe for
// concurrent use.
type Scanner struct {
	tags  map[string]struct{}
	carry string // unresolved suffix that may still become a tag
}

// NewScanner creates a scanner recognizing the given tag names.
// There is no implicit default tag set.
func NewScanner(tags []string) *Scanner {
	set := make(map[string]struct{}, len(tags))
	for _, t := range tags {
		set[t] = struct{}{}
	}
	return &Scanner{tags: set}
}

// Write scans one chunk and returns the ordered events it completes. Partial
// tag syntax at the end of the chunk is buffered and resolved by a later
// Write or by Flush.
func (s *Scanner) Write(chunk string) []Event {
	data := s.carry + chunk
	s.carry = ""

	var events []Event
	for len(data) > 0 {
		lt := strings.IndexByte(data, '<')
		if lt < 0 {
			events = appendText(events, data)
			break
		}
		if lt > 0 {
			events = appendText(events, data[:lt])
			data = data[lt:]
		}

		consumed, evs, held := s.scanMarker(data)
		if held {
			s.carry = data
			break
		}
		events = append(events, evs...)
		data = data[consumed:]
	}
	return events
}

// Flush drains any buffered partial tag syntax as plain text. Call exactly
// once, at end of input.
func (s *Scanner) Flush() []Event {
	if s.carry == "" {
		return nil
	}
	text := s.carry
	s.carry = ""
	return []Event{TextEvent{Text: text}}
}

// scanMarker inspects data, which starts with '<'. It returns the number of
// bytes consumed plus the events they produced, or held=true when the data
// ends before the marker can be classified.
func (s *Scanner) scanMarker(data string) (consumed int, events []Event, held bool) {
	pos := 1
	closing := false
	if pos < len(data) && data[pos] == '/' {
		closing = true
		pos++
	}

	nameStart := pos
	for pos < len(data) && isNameChar(data[pos], pos == nameStart) {
		pos++
	}
	if pos == len(data) {
		// Name may continue in the next chunk.
		return 0, nil, true
	}
	if pos == nameStart {
		// '<' not followed by a name: plain text, resume after it.
		n := 1
		if closing {
			n = 2
		}
		return n, []Event{TextEvent{Text: data[:n]}}, false
	}
	name := data[nameStart:pos]

	gt, ok := findTagEnd(data, pos)
	if !ok {
		return 0, nil, true
	}
	token := data[:gt+1]

	if _, recognized := s.tags[name]; !recognized {
		return len(token), []Event{TextEvent{Text: token}}, false
	}

	if closing {
		return len(token), []Event{EndEvent{Name: name}}, false
	}

	body := data[pos:gt]
	selfClosing := strings.HasSuffix(strings.TrimSpace(body), "/")
	if selfClosing {
		trimmed := strings.TrimSpace(body)
		body = trimmed[:len(trimmed)-1]
	}

	events = []Event{StartEvent{Name: name, Attributes: parseAttributes(body)}}
	if selfClosing {
		events = append(events, EndEvent{Name: name})
	}
	return len(token), events, false
}

// findTagEnd locates the terminating '>' starting at pos, honoring quoted
// attribute values so embedded '>' characters do not end the tag.
func findTagEnd(data string, pos int) (int, bool) {
	var quote byte
	for i := pos; i < len(data); i++ {
		c := data[i]
		switch {
		case quote != 0:
			if c == quote {
				quote = 0
			}
		case c == '"' || c == '\'':
			quote = c
		case c == '>':
			return i, true
		}
	}
	return 0, false
}

// parseAttributes parses `key="value"` pairs from a tag body. Single and
// double quotes are accepted; unquoted values run to the next whitespace;
// bare keys map to the empty string. Never returns nil.
func parseAttributes(body string) map[string]string {
	attrs := map[string]string{}
	i := 0
	for i < len(body) {
		for i < len(body) && isSpace(body[i]) {
			i++
		}
		if i >= len(body) {
			break
		}

		keyStart := i
		for i < len(body) && body[i] != '=' && !isSpace(body[i]) {
			i++
		}
		key := body[keyStart:i]
		if key == "" {
			i++
			continue
		}

		if i >= len(body) || body[i] != '=' {
			attrs[key] = ""
			continue
		}
		i++ // consume '='

		if i < len(body) && (body[i] == '"' || body[i] == '\'') {
			quote := body[i]
			i++
			valStart := i
			for i < len(body) && body[i] != quote {
				i++
			}
			attrs[key] = body[valStart:i]
			if i < len(body) {
				i++ // consume closing quote
			}
			continue
		}

		valStart := i
		for i < len(body) && !isSpace(body[i]) {
			i++
		}
		attrs[key] = body[valStart:i]
	}
	return attrs
}

func appendText(events []Event, text string) []Event {
	if text == "" {
		return events
	}
	return append(events, TextEvent{Text: text})
}

func isNameChar(c byte, first bool) bool {
	switch {
	case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c == '_':
		return true
	case first:
		return false
	case c >= '0' && c <= '9', c == '-', c == '.', c == ':':
		return true
	}
	return false
}

func isSpace(c byte) bool {
	return c == ' ' || c == '\t' || c == '\n' || c == '\r'
}
