package lexer

import "unicode/utf8"

// Cursor walks a source string one character at a time, tracking the byte offset.
// The offset only ever moves by whole UTF-8 sequences.
type Cursor struct {
	src string
	pos int
}

// NewCursor creates a cursor positioned at the start of src.
func NewCursor(src string) *Cursor {
	return &Cursor{src: src}
}

// Peek returns the next character without consuming it.
func (c *Cursor) Peek() (rune, bool) {
	if c.pos >= len(c.src) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(c.src[c.pos:])
	return r, true
}

// Advance consumes and returns the next character.
func (c *Cursor) Advance() (rune, bool) {
	if c.pos >= len(c.src) {
		return 0, false
	}
	// Invalid bytes decode as RuneError with width 1, so the cursor always progresses.
	r, width := utf8.DecodeRuneInString(c.src[c.pos:])
	c.pos += width
	return r, true
}

// Position returns the current byte offset.
func (c *Cursor) Position() int {
	return c.pos
}
