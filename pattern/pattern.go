package pattern

import (
	"bufio"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors.
var (
	// ErrNoHeader is returned when the text holds no pattern header at all.
	ErrNoHeader = errors.New("pattern: no pattern header")

	// ErrDataBeforeHeader is wrapped by FormatError for a record that
	// appears before the first header.
	ErrDataBeforeHeader = errors.New("pattern: data record before header")

	// ErrShortRecord is wrapped by FormatError for a record with fewer
	// than five numbers.
	ErrShortRecord = errors.New("pattern: record needs angle, base and offset")

	// ErrEmptyName is wrapped by FormatError for a header without a name.
	ErrEmptyName = errors.New("pattern: empty pattern name")

	// ErrNotFinite is wrapped by FormatError for NaN or infinite numbers.
	ErrNotFinite = errors.New("pattern: number is not finite")

	// ErrMultiplePatterns is wrapped by FormatError when ParsePAT meets a
	// second header.
	ErrMultiplePatterns = errors.New("pattern: more than one pattern")
)

// FormatError reports malformed pattern text.
type FormatError struct {
	Line  int    // 1-based line number
	Text  string // the offending line
	Token string // the offending token, if a single token is to blame
	Err   error
}

func (e *FormatError) Error() string {
	if e.Token != "" {
		return fmt.Sprintf("pattern: line %d: bad token %q: %v", e.Line, e.Token, e.Err)
	}
	return fmt.Sprintf("pattern: line %d: %q: %v", e.Line, e.Text, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

// Point is a 2D point or vector in pattern units.
type Point struct {
	X, Y float64
}

// Line is one family of parallel hatch lines.
type Line struct {
	// Angle of the lines in degrees, counter-clockwise from +X.
	Angle float64
	// Base is a point the first line passes through.
	Base Point
	// Offset is the displacement between successive lines, expressed in
	// the line's own frame: X along the line, Y perpendicular to it.
	Offset Point
	// Dashes alternates drawn (positive) and skipped (negative) lengths.
	// Zero is a dot. An empty list means a continuous line.
	Dashes []float64
}

// Period returns the length of one dash cycle, or 0 for continuous lines.
func (l *Line) Period() float64 {
	var sum float64
	for _, d := range l.Dashes {
		sum += math.Abs(d)
	}
	return sum
}

// Pattern is a named set of line families.
type Pattern struct {
	Name        string
	Description string
	Lines       []Line
}

// ParsePAT parses text holding exactly one pattern.
func ParsePAT(text string) (*Pattern, error) {
	var p *Pattern
	err := parse(text, func(line int, raw string, next *Pattern) error {
		if p != nil {
			return &FormatError{Line: line, Text: raw, Err: ErrMultiplePatterns}
		}
		p = next
		return nil
	})
	if err != nil {
		return nil, err
	}
	if p == nil {
		return nil, ErrNoHeader
	}
	return p, nil
}

// ParsePATFile parses text holding any number of patterns, as found in
// acad.pat and similar files.
func ParsePATFile(text string) ([]*Pattern, error) {
	var out []*Pattern
	err := parse(text, func(_ int, _ string, p *Pattern) error {
		out = append(out, p)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if len(out) == 0 {
		return nil, ErrNoHeader
	}
	return out, nil
}

// parse walks text and calls onHeader for every new pattern. Records are
// appended to the most recent pattern in place.
func parse(text string, onHeader func(line int, raw string, p *Pattern) error) error {
	var cur *Pattern
	sc := bufio.NewScanner(strings.NewReader(text))
	sc.Buffer(make([]byte, 0, 4096), 1<<20)
	n := 0
	for sc.Scan() {
		n++
		raw := sc.Text()
		s := strings.TrimSpace(raw)
		switch {
		case s == "", s[0] == ';':
			continue
		case s[0] == '*':
			p, err := parseHeader(n, raw, s[1:])
			if err != nil {
				return err
			}
			if err := onHeader(n, raw, p); err != nil {
				return err
			}
			cur = p
		default:
			if cur == nil {
				return &FormatError{Line: n, Text: raw, Err: ErrDataBeforeHeader}
			}
			l, err := parseRecord(n, raw, s)
			if err != nil {
				return err
			}
			cur.Lines = append(cur.Lines, l)
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("pattern: read: %w", err)
	}
	return nil
}

func parseHeader(n int, raw, s string) (*Pattern, error) {
	name, desc, _ := strings.Cut(s, ",")
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, &FormatError{Line: n, Text: raw, Err: ErrEmptyName}
	}
	return &Pattern{Name: name, Description: strings.TrimSpace(desc)}, nil
}

func parseRecord(n int, raw, s string) (Line, error) {
	fields := strings.Split(s, ",")
	if len(fields) < 5 {
		return Line{}, &FormatError{Line: n, Text: raw, Err: ErrShortRecord}
	}
	nums := make([]float64, len(fields))
	for i, f := range fields {
		tok := strings.TrimSpace(f)
		v, err := strconv.ParseFloat(tok, 64)
		if err != nil {
			return Line{}, &FormatError{Line: n, Text: raw, Token: tok, Err: err}
		}
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return Line{}, &FormatError{Line: n, Text: raw, Token: tok, Err: ErrNotFinite}
		}
		nums[i] = v
	}
	l := Line{
		Angle:  nums[0],
		Base:   Point{X: nums[1], Y: nums[2]},
		Offset: Point{X: nums[3], Y: nums[4]},
	}
	if len(nums) > 5 {
		l.Dashes = nums[5:]
	}
	return l, nil
}
