package parser

import (
	"bufio"
	"bytes"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding"
)

// Sentinel errors.
var (
	// ErrUnexpectedEOF is returned when the input ends inside a group pair
	// or before the EOF marker of a section.
	ErrUnexpectedEOF = errors.New("parser: unexpected end of input")

	// ErrBinaryDXF is returned for binary DXF files, which are not
	// supported.
	ErrBinaryDXF = errors.New("parser: binary DXF is not supported")
)

// SyntaxError reports a malformed group pair.
type SyntaxError struct {
	Line  int
	Code  int
	Value string
	Err   error
}

func (e *SyntaxError) Error() string {
	return fmt.Sprintf("parser: line %d: group %d value %q: %v", e.Line, e.Code, e.Value, e.Err)
}

func (e *SyntaxError) Unwrap() error { return e.Err }

// Tag is one DXF group: an integer code followed by its value.
type Tag struct {
	Code  int
	Value string
	Line  int // line of the code, 1-based
}

// Float parses the value as a float.
func (t Tag) Float() (float64, error) {
	v, err := strconv.ParseFloat(strings.TrimSpace(t.Value), 64)
	if err != nil {
		return 0, &SyntaxError{Line: t.Line + 1, Code: t.Code, Value: t.Value, Err: err}
	}
	return v, nil
}

// Int parses the value as an integer. Some writers emit integral groups
// with a decimal point, so "1.0" is accepted.
func (t Tag) Int() (int, error) {
	s := strings.TrimSpace(t.Value)
	v, err := strconv.Atoi(s)
	if err == nil {
		return v, nil
	}
	f, ferr := strconv.ParseFloat(s, 64)
	if ferr != nil || f != float64(int(f)) {
		return 0, &SyntaxError{Line: t.Line + 1, Code: t.Code, Value: t.Value, Err: err}
	}
	return int(f), nil
}

// Is reports whether the tag has the given code and value.
func (t Tag) Is(code int, value string) bool {
	return t.Code == code && strings.TrimSpace(t.Value) == value
}

var binarySentinel = []byte("AutoCAD Binary DXF")

// Scanner reads group pairs from ASCII DXF input.
type Scanner struct {
	r       *bufio.Reader
	line    int
	pending []Tag
	dec     *encoding.Decoder
	started bool
}

// NewScanner returns a scanner reading from r. Values are taken as UTF-8
// until SetEncoding is called.
func NewScanner(r io.Reader) *Scanner {
	return &Scanner{r: bufio.NewReaderSize(r, 64*1024)}
}

// SetEncoding sets the encoding of subsequent values. Nil means UTF-8.
func (s *Scanner) SetEncoding(e encoding.Encoding) {
	if e == nil {
		s.dec = nil
		return
	}
	s.dec = e.NewDecoder()
}

// Line returns the number of lines consumed so far.
func (s *Scanner) Line() int { return s.line }

// Unread pushes t back so the next call to Next returns it.
func (s *Scanner) Unread(t Tag) {
	s.pending = append(s.pending, t)
}

// Next returns the next group pair. It returns io.EOF at a clean end of
// input and ErrUnexpectedEOF when a code has no value line.
func (s *Scanner) Next() (Tag, error) {
	if n := len(s.pending); n > 0 {
		t := s.pending[n-1]
		s.pending = s.pending[:n-1]
		return t, nil
	}
	if !s.started {
		s.started = true
		if head, _ := s.r.Peek(len(binarySentinel)); bytes.Equal(head, binarySentinel) {
			return Tag{}, ErrBinaryDXF
		}
	}

	var codeLine []byte
	for {
		l, err := s.readLine()
		if err != nil {
			return Tag{}, err
		}
		codeLine = bytes.TrimSpace(l)
		// Tolerate blank lines between pairs, e.g. a trailing newline
		// after EOF.
		if len(codeLine) > 0 {
			break
		}
	}
	at := s.line
	code, err := strconv.Atoi(string(codeLine))
	if err != nil {
		return Tag{}, &SyntaxError{Line: at, Code: -1, Value: string(codeLine), Err: err}
	}

	raw, err := s.readLine()
	if err == io.EOF {
		return Tag{}, fmt.Errorf("%w: group %d at line %d has no value", ErrUnexpectedEOF, code, at)
	}
	if err != nil {
		return Tag{}, err
	}
	value, err := s.decode(raw)
	if err != nil {
		return Tag{}, &SyntaxError{Line: s.line, Code: code, Value: string(raw), Err: err}
	}
	return Tag{Code: code, Value: value, Line: at}, nil
}

func (s *Scanner) readLine() ([]byte, error) {
	l, err := s.r.ReadBytes('\n')
	if err == io.EOF && len(l) > 0 {
		err = nil
	}
	if err != nil {
		return nil, err
	}
	s.line++
	return bytes.TrimRight(l, "\r\n"), nil
}

func (s *Scanner) decode(raw []byte) (string, error) {
	if s.dec == nil || isASCII(raw) {
		v := string(raw)
		if !utf8.ValidString(v) {
			v = strings.ToValidUTF8(v, "�")
		}
		return unescapeUnicode(v), nil
	}
	b, err := s.dec.Bytes(raw)
	if err != nil {
		return "", err
	}
	return unescapeUnicode(string(b)), nil
}

func isASCII(b []byte) bool {
	for _, c := range b {
		if c >= utf8.RuneSelf {
			return false
		}
	}
	return true
}

// unescapeUnicode replaces \U+XXXX sequences with the rune they name.
func unescapeUnicode(s string) string {
	i := strings.Index(s, `\U+`)
	if i < 0 {
		return s
	}
	var b strings.Builder
	b.Grow(len(s))
	for i >= 0 {
		b.WriteString(s[:i])
		rest := s[i:]
		if len(rest) >= 7 {
			if v, err := strconv.ParseUint(rest[3:7], 16, 32); err == nil {
				b.WriteRune(rune(v))
				s = rest[7:]
				i = strings.Index(s, `\U+`)
				continue
			}
		}
		b.WriteString(`\U+`)
		s = rest[3:]
		i = strings.Index(s, `\U+`)
	}
	b.WriteString(s)
	return b.String()
}
