package scanner

import (
	"testing"
	"unicode"

	"github.com/padelt/beanquery/lib/model"
)

func advance(t *testing.T, s *Scanner) {
	t.Helper()
	if err := s.Advance(); err != nil {
		t.Fatalf("Advance() = %v", err)
	}
}

func TestReadWhile(t *testing.T) {
	s := New("abc123", "test")
	advance(t, s)

	got, err := s.ReadWhile(unicode.IsLetter)
	if err != nil {
		t.Fatalf("ReadWhile() = %v", err)
	}
	if got != "abc" {
		t.Errorf("ReadWhile() = %q, want abc", got)
	}
	if s.Current() != '1' {
		t.Errorf("current = %q, want 1", s.Current())
	}
}

func TestReadWhile1RequiresMatch(t *testing.T) {
	s := New("123", "test")
	advance(t, s)

	if _, err := s.ReadWhile1("letter", unicode.IsLetter); err == nil {
		t.Error("ReadWhile1() succeeded on non-matching input")
	}
}

func TestReadCharacter(t *testing.T) {
	s := New("ab", "test")
	advance(t, s)

	if err := s.ReadCharacter('a'); err != nil {
		t.Errorf("ReadCharacter('a') = %v", err)
	}
	if err := s.ReadCharacter('x'); err == nil {
		t.Error("ReadCharacter('x') succeeded, want error")
	}
}

func TestLocationTracking(t *testing.T) {
	s := New("ab\ncd", "test")
	advance(t, s)

	for s.Current() != 'd' {
		advance(t, s)
	}
	if got, want := s.Location(), (model.Location{Line: 2, Column: 2}); got != want {
		t.Errorf("Location() = %v, want %v", got, want)
	}
}

func TestEOF(t *testing.T) {
	s := New("a", "test")
	advance(t, s)
	advance(t, s)

	if s.Current() != EOF {
		t.Errorf("current = %q, want EOF", s.Current())
	}
	// advancing at EOF is a no-op
	advance(t, s)
	if s.Current() != EOF {
		t.Errorf("current = %q, want EOF", s.Current())
	}
}
