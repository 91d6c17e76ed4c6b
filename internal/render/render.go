// Package render substitutes expression tags in page text.
//
// A tag runs from an opening marker ("<@=" by default) to the first closing
// marker (">" by default) after it. The text between the markers is handed
// to an Evaluator together with the render call's bindings, and the whole
// tag is replaced with the result. Tags do not nest and results are not
// scanned again.
package render

import (
	"fmt"
	"strings"

	fwerrors "fredwork/internal/errors"
)

const (
	DefaultOpen  = "<@="
	DefaultClose = ">"
)

// Binding is a named value visible to instructions during one render call.
type Binding struct {
	Name  string
	Value any
}

// Evaluator computes the textual result of an instruction. Bindings are
// applied in order; a later binding may shadow an earlier one.
type Evaluator interface {
	Evaluate(instruction string, bindings []Binding) (string, error)
}

// Preparer is implemented by evaluators that can convert bindings ahead of
// time, for values that are reused across many render calls.
type Preparer interface {
	Prepare(bindings []Binding) ([]Binding, error)
}

// EvaluatorFunc adapts a function to Evaluator.
type EvaluatorFunc func(instruction string, bindings []Binding) (string, error)

// Evaluate calls f.
func (f EvaluatorFunc) Evaluate(instruction string, bindings []Binding) (string, error) {
	return f(instruction, bindings)
}

// Tag is one tag span in a text. Start and End are byte offsets; End is
// exclusive and includes the closing marker.
type Tag struct {
	Start       int    `json:"start"`
	End         int    `json:"end"`
	Instruction string `json:"instruction"`
}

// TagError reports an opening marker with no closing marker after it.
type TagError struct {
	Pos int
}

func (e *TagError) Error() string {
	return fmt.Sprintf("no closing tag found for tag at offset %d", e.Pos)
}

// Engine renders texts with a fixed pair of markers and an evaluator. It
// holds no mutable state and may be shared.
type Engine struct {
	open      string
	close     string
	evaluator Evaluator
}

// Option configures an Engine.
type Option func(*Engine)

// WithDelimiters overrides the opening and closing markers. Empty values
// keep the defaults.
func WithDelimiters(open, close string) Option {
	return func(e *Engine) {
		if open != "" {
			e.open = open
		}
		if close != "" {
			e.close = close
		}
	}
}

// New creates an engine using ev for every tag.
func New(ev Evaluator, opts ...Option) *Engine {
	e := &Engine{
		open:      DefaultOpen,
		close:     DefaultClose,
		evaluator: ev,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Delimiters returns the opening and closing markers.
func (e *Engine) Delimiters() (open, close string) {
	return e.open, e.close
}

// Prepare converts bindings for repeated use when the evaluator supports
// it and returns them unchanged otherwise.
func (e *Engine) Prepare(bindings []Binding) ([]Binding, error) {
	if p, ok := e.evaluator.(Preparer); ok {
		return p.Prepare(bindings)
	}
	return bindings, nil
}

// Tags lists the tag spans of text from left to right.
func (e *Engine) Tags(text string) ([]Tag, error) {
	var tags []Tag
	pos := 0
	for {
		start := strings.Index(text[pos:], e.open)
		if start < 0 {
			return tags, nil
		}
		start += pos
		body := start + len(e.open)
		closeAt := strings.Index(text[body:], e.close)
		if closeAt < 0 {
			return tags, unterminated(start)
		}
		closeAt += body
		end := closeAt + len(e.close)
		tags = append(tags, Tag{
			Start:       start,
			End:         end,
			Instruction: text[body:closeAt],
		})
		pos = end
	}
}

// Check reports an unterminated tag without evaluating anything.
func (e *Engine) Check(text string) error {
	_, err := e.Tags(text)
	return err
}

// Render replaces every tag in text with the evaluated result of its
// instruction. An instruction that fails to evaluate is replaced by the
// error text and rendering continues. An unterminated tag fails the call.
func (e *Engine) Render(text string, bindings []Binding) (string, error) {
	tags, err := e.Tags(text)
	if err != nil {
		return "", err
	}
	if len(tags) == 0 {
		return text, nil
	}

	var b strings.Builder
	b.Grow(len(text))
	last := 0
	for _, tag := range tags {
		b.WriteString(text[last:tag.Start])
		b.WriteString(e.evaluate(tag.Instruction, bindings))
		last = tag.End
	}
	b.WriteString(text[last:])
	return b.String(), nil
}

func (e *Engine) evaluate(instruction string, bindings []Binding) string {
	out, err := e.evaluator.Evaluate(strings.TrimSpace(instruction), bindings)
	if err != nil {
		return err.Error()
	}
	return out
}

func unterminated(pos int) error {
	return fwerrors.New(fwerrors.UnterminatedTag, "template tag is never closed", &TagError{Pos: pos}).
		WithDetails(map[string]int{"pos": pos})
}
