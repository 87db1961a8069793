package bql

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

type tokenKind int

const (
	tokEOF tokenKind = iota
	tokIdent
	tokString
	tokInt
	tokDecimal
	tokDate
	tokLParen
	tokRParen
	tokComma
	tokAsterisk
	tokPlus
	tokMinus
	tokSlash
	tokEq
	tokNeq
	tokLt
	tokLte
	tokGt
	tokGte
	tokTilde
)

type token struct {
	kind tokenKind
	text string
	pos  int
}

func (t token) String() string {
	if t.kind == tokEOF {
		return "end of input"
	}
	return fmt.Sprintf("%q", t.text)
}

var dateRegex = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}`)

// tokenize splits the statement into tokens.
func tokenize(text string) ([]token, error) {
	var res []token
	pos := 0
	for pos < len(text) {
		r, size := utf8.DecodeRuneInString(text[pos:])
		switch {
		case unicode.IsSpace(r):
			pos += size
		case r == '\'' || r == '"':
			end := strings.IndexRune(text[pos+size:], r)
			if end < 0 {
				return nil, Error{Pos: pos, Message: "unterminated string"}
			}
			res = append(res, token{kind: tokString, text: text[pos+size : pos+size+end], pos: pos})
			pos += size + end + 1
		case unicode.IsDigit(r):
			if m := dateRegex.FindString(text[pos:]); m != "" {
				res = append(res, token{kind: tokDate, text: m, pos: pos})
				pos += len(m)
				continue
			}
			start := pos
			kind := tokInt
			for pos < len(text) && (isDigitByte(text[pos]) || text[pos] == '.') {
				if text[pos] == '.' {
					kind = tokDecimal
				}
				pos++
			}
			res = append(res, token{kind: kind, text: text[start:pos], pos: start})
		case unicode.IsLetter(r) || r == '_':
			start := pos
			for pos < len(text) {
				r, size := utf8.DecodeRuneInString(text[pos:])
				if !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '_' {
					break
				}
				pos += size
			}
			res = append(res, token{kind: tokIdent, text: text[start:pos], pos: start})
		default:
			kind := tokEOF
			size := 1
			switch r {
			case '(':
				kind = tokLParen
			case ')':
				kind = tokRParen
			case ',':
				kind = tokComma
			case '*':
				kind = tokAsterisk
			case '+':
				kind = tokPlus
			case '-':
				kind = tokMinus
			case '/':
				kind = tokSlash
			case '~':
				kind = tokTilde
			case '=':
				kind = tokEq
			case '!':
				if !strings.HasPrefix(text[pos+1:], "=") {
					return nil, Error{Pos: pos, Message: "expected != operator"}
				}
				kind, size = tokNeq, 2
			case '<':
				kind = tokLt
				if strings.HasPrefix(text[pos+1:], "=") {
					kind, size = tokLte, 2
				}
			case '>':
				kind = tokGt
				if strings.HasPrefix(text[pos+1:], "=") {
					kind, size = tokGte, 2
				}
			default:
				return nil, Error{Pos: pos, Message: fmt.Sprintf("unexpected character %q", r)}
			}
			res = append(res, token{kind: kind, text: text[pos : pos+size], pos: pos})
			pos += size
		}
	}
	return append(res, token{kind: tokEOF, pos: pos}), nil
}

func isDigitByte(b byte) bool {
	return '0' <= b && b <= '9'
}
