package testutil

import "github.com/hupe1980/tagflow/parser"

// ElementBuilder provides a fluent helper for constructing elements in tests.
// Example:
//
//	el := NewElementBuilder("action_call").Attr("name", "search").Text("query").Done().Build()
//
// Chain only the parts you need; sensible defaults are applied.
type ElementBuilder struct {
	index int
	tag   string
	attrs map[string]string
	text  []string
	done  bool
}

// NewElementBuilder creates a builder for the given tag with index 0.
func NewElementBuilder(tag string) *ElementBuilder {
	return &ElementBuilder{tag: tag, attrs: map[string]string{}}
}

// Index sets the element index (chainable).
func (b *ElementBuilder) Index(i int) *ElementBuilder { b.index = i; return b }

// Attr sets an attribute (chainable).
func (b *ElementBuilder) Attr(key, value string) *ElementBuilder { b.attrs[key] = value; return b }

// Text appends a content fragment (chainable).
func (b *ElementBuilder) Text(t string) *ElementBuilder { b.text = append(b.text, t); return b }

// Done marks the element as closed (chainable).
func (b *ElementBuilder) Done() *ElementBuilder { b.done = true; return b }

// Build constructs the parser.Element value.
func (b *ElementBuilder) Build() parser.Element {
	return parser.Element{
		Index:      b.index,
		Tag:        b.tag,
		Attributes: b.attrs,
		Content:    append([]string{}, b.text...),
		Done:       b.done,
	}
}
