package parser

import (
	"errors"
	"fmt"
	"io"
	"strings"
	"unicode/utf8"
)

// ErrEmptyRow is returned for a row that has no fields at all (a blank line).
var ErrEmptyRow = errors.New("row has no fields")

// FieldSizeLimit is the maximum number of characters in one field.
const FieldSizeLimit = 131072

// ParseError reports a row that could not be read, with its 1-indexed line number.
type ParseError struct {
	Line   int
	Reason string
	Err    error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("line %d: %s", e.Line, e.Reason)
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

type state int

const (
	startRecord state = iota
	startField
	inField
	inQuotedField
	quoteInQuotedField
	eatCRNL
)

// eol marks the end of a physical line.
const eol rune = -1

// CSVProcessor reads comma-delimited rows from a fully buffered document.
//
// Rows follow the lenient "excel" dialect: a quote may only open a field, a
// quote that follows a closing quote is kept as text, and a bare \r ends a row
// just like \n. Line breaks inside quoted fields are kept byte for byte,
// including the \r of \r\n.
type CSVProcessor struct {
	lines []string
	next  int // index of the next physical line

	state    state
	fields   []string
	field    strings.Builder
	fieldLen int
}

// NewCSVProcessor reads r to the end and prepares it for parsing.
// Input that is not valid UTF-8 is rejected.
func NewCSVProcessor(r io.Reader) (*CSVProcessor, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("reading CSV: %w", err)
	}
	if !utf8.Valid(data) {
		return nil, fmt.Errorf("CSV input is not valid UTF-8")
	}

	return &CSVProcessor{lines: splitLines(string(data))}, nil
}

// Next reads and returns the next record along with the line it starts on.
// Returns io.EOF when there are no more records.
func (p *CSVProcessor) Next() ([]string, int, error) {
	start := p.next + 1
	p.fields = nil
	p.field.Reset()
	p.fieldLen = 0
	p.state = startRecord

	for {
		if p.next >= len(p.lines) {
			// An unterminated quoted field runs to the end of the input
			if p.state == inQuotedField || p.fieldLen != 0 {
				p.saveField()
				return p.fields, start, nil
			}
			return nil, start, io.EOF
		}

		line := p.lines[p.next]
		p.next++

		for _, c := range line {
			if err := p.process(c); err != nil {
				return nil, p.next, &ParseError{Line: p.next, Reason: err.Error(), Err: err}
			}
		}
		if err := p.process(eol); err != nil {
			return nil, p.next, &ParseError{Line: p.next, Reason: err.Error(), Err: err}
		}

		if p.state == startRecord {
			if len(p.fields) == 0 {
				return nil, start, &ParseError{Line: start, Reason: "empty row", Err: ErrEmptyRow}
			}
			return p.fields, start, nil
		}
	}
}

func (p *CSVProcessor) process(c rune) error {
	switch p.state {
	case startRecord:
		if c == eol {
			return nil
		}
		if c == '\n' || c == '\r' {
			p.state = eatCRNL
			return nil
		}
		p.state = startField
		fallthrough

	case startField:
		switch {
		case isLineEnd(c):
			p.saveField()
			p.state = afterLineEnd(c)
		case c == '"':
			p.state = inQuotedField
		case c == ',':
			p.saveField()
		default:
			p.state = inField
			return p.addChar(c)
		}

	case inField:
		switch {
		case isLineEnd(c):
			p.saveField()
			p.state = afterLineEnd(c)
		case c == ',':
			p.saveField()
			p.state = startField
		default:
			return p.addChar(c)
		}

	case inQuotedField:
		switch c {
		case eol:
		case '"':
			p.state = quoteInQuotedField
		default:
			return p.addChar(c)
		}

	case quoteInQuotedField:
		switch {
		case c == '"':
			// Doubled quote
			p.state = inQuotedField
			return p.addChar(c)
		case c == ',':
			p.saveField()
			p.state = startField
		case isLineEnd(c):
			p.saveField()
			p.state = afterLineEnd(c)
		default:
			p.state = inField
			return p.addChar(c)
		}

	case eatCRNL:
		switch c {
		case '\n', '\r':
		case eol:
			p.state = startRecord
		default:
			return fmt.Errorf("new-line character seen in unquoted field")
		}
	}

	return nil
}

func (p *CSVProcessor) addChar(c rune) error {
	if p.fieldLen >= FieldSizeLimit {
		return fmt.Errorf("field larger than field limit (%d)", FieldSizeLimit)
	}
	p.field.WriteRune(c)
	p.fieldLen++
	return nil
}

func (p *CSVProcessor) saveField() {
	p.fields = append(p.fields, p.field.String())
	p.field.Reset()
	p.fieldLen = 0
}

func isLineEnd(c rune) bool {
	return c == '\n' || c == '\r' || c == eol
}

func afterLineEnd(c rune) state {
	if c == eol {
		return startRecord
	}
	return eatCRNL
}

// splitLines splits s after every line boundary, keeping the boundary.
// Besides \n, \r and \r\n, the Unicode line and paragraph separators, NEL,
// vertical tab, form feed and the file/group/record separators end a line.
func splitLines(s string) []string {
	var lines []string
	start := 0
	for i := 0; i < len(s); {
		r, size := utf8.DecodeRuneInString(s[i:])
		end := i + size
		switch r {
		case '\r':
			if end < len(s) && s[end] == '\n' {
				end++
			}
		case '\n', '\v', '\f', 0x1c, 0x1d, 0x1e, 0x85, 0x2028, 0x2029:
		default:
			i = end
			continue
		}
		lines = append(lines, s[start:end])
		start, i = end, end
	}
	if start < len(s) {
		lines = append(lines, s[start:])
	}
	return lines
}

// ReadRows parses every row of r in order.
func ReadRows(r io.Reader) ([][]string, error) {
	p, err := NewCSVProcessor(r)
	if err != nil {
		return nil, err
	}

	var rows [][]string
	for {
		record, _, err := p.Next()
		if err == io.EOF {
			return rows, nil
		}
		if err != nil {
			return nil, err
		}
		rows = append(rows, record)
	}
}
