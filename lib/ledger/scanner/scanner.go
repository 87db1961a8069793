// Package scanner provides a rune scanner over ledger text which
// tracks source locations.
package scanner

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/padelt/beanquery/lib/model"
)

// EOF is a rune representing the end of the input.
const EOF = rune(0)

// Scanner is a scanner.
type Scanner struct {
	text string
	path string

	current    rune
	currentLen int
	pos        int
	line, col  int
}

// New creates a new scanner. Advance must be called once before use.
func New(text, path string) *Scanner {
	return &Scanner{
		text: text,
		path: path,
		line: 1,
		col:  0,
	}
}

// Path returns the path of the input.
func (s *Scanner) Path() string {
	return s.path
}

// Current returns the current rune.
func (s *Scanner) Current() rune {
	return s.current
}

// Location returns the location of the current rune.
func (s *Scanner) Location() model.Location {
	return model.Location{Line: s.line, Column: s.col}
}

// Range creates a range from the given location to the current one.
func (s *Scanner) Range(start model.Location) model.Range {
	return model.Range{Path: s.path, Start: start, End: s.Location()}
}

// Advance reads a rune.
func (s *Scanner) Advance() error {
	if s.current == '\n' {
		s.line++
		s.col = 0
	}
	s.pos += s.currentLen
	if s.pos == len(s.text) {
		s.current = EOF
		s.currentLen = 0
		return nil
	}
	s.current, s.currentLen = utf8.DecodeRuneInString(s.text[s.pos:])
	if s.current == utf8.RuneError && s.currentLen == 1 {
		return fmt.Errorf("invalid UTF-8 at %s", s.Location())
	}
	s.col++
	return nil
}

// ReadWhile reads a string while the predicate holds.
func (s *Scanner) ReadWhile(pred func(r rune) bool) (string, error) {
	var b strings.Builder
	for pred(s.current) && s.current != EOF {
		b.WriteRune(s.current)
		if err := s.Advance(); err != nil {
			return b.String(), err
		}
	}
	return b.String(), nil
}

// ReadWhile1 reads a string while the predicate holds. The predicate
// must hold at least once.
func (s *Scanner) ReadWhile1(desc string, pred func(r rune) bool) (string, error) {
	if !pred(s.current) || s.current == EOF {
		return "", fmt.Errorf("expected %s, got %q", desc, s.current)
	}
	return s.ReadWhile(pred)
}

// ReadCharacter consumes the given rune.
func (s *Scanner) ReadCharacter(r rune) error {
	if s.current != r {
		return fmt.Errorf("expected %q, got %q", r, s.current)
	}
	return s.Advance()
}

// ReadString consumes the given string.
func (s *Scanner) ReadString(str string) error {
	for _, ch := range str {
		if s.current != ch {
			return fmt.Errorf("expected %q, got %q", str, s.current)
		}
		if err := s.Advance(); err != nil {
			return err
		}
	}
	return nil
}
