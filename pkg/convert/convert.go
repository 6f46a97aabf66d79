// Package convert turns a CSV file of questions into SQL INSERT statements.
package convert

import (
	"bufio"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/controlplane-com/questions-sqlgen/pkg/generator"
	"github.com/controlplane-com/questions-sqlgen/pkg/parser"
)

const (
	DefaultTable  = "questions"
	DefaultColumn = "question"
)

// Options controls the shape of the generated SQL.
type Options struct {
	Table     string
	Column    string
	BatchSize int // rows per INSERT; 0 means one statement for all rows
}

// DefaultOptions returns options that produce a single
// INSERT INTO questions (question) statement.
func DefaultOptions() Options {
	return Options{Table: DefaultTable, Column: DefaultColumn}
}

// Result summarizes a conversion.
type Result struct {
	Rows       int
	Statements int
}

// InputError marks failures to open or parse the input, as opposed to output
// failures.
type InputError struct {
	Path string
	Err  error
}

func (e *InputError) Error() string {
	return fmt.Sprintf("reading %s: %v", e.Path, e.Err)
}

func (e *InputError) Unwrap() error {
	return e.Err
}

// Statements converts parsed rows to INSERT statements, keeping row order.
// The first field of every row is the question; a row without fields is an error.
func Statements(rows [][]string, opts Options) ([]string, error) {
	gen := generator.NewInsertGenerator(opts.Table, opts.Column, opts.BatchSize)

	var stmts []string
	for i, row := range rows {
		if len(row) == 0 {
			return nil, fmt.Errorf("row %d: %w", i+1, parser.ErrEmptyRow)
		}
		if stmt := gen.AddRow(row[0]); stmt != "" {
			stmts = append(stmts, stmt)
		}
	}
	if stmt := gen.Finish(); stmt != "" {
		stmts = append(stmts, stmt)
	}

	return stmts, nil
}

// Convert reads all of in, then writes the generated statements to out,
// one per line.
func Convert(in io.Reader, out io.Writer, opts Options) (Result, error) {
	rows, err := parser.ReadRows(in)
	if err != nil {
		return Result{}, err
	}

	stmts, err := Statements(rows, opts)
	if err != nil {
		return Result{}, err
	}

	if err := writeStatements(out, stmts); err != nil {
		return Result{}, err
	}

	return Result{Rows: len(rows), Statements: len(stmts)}, nil
}

// ConvertFile converts the CSV at inPath and writes the SQL to outPath,
// replacing any existing file. The output file is only created once the whole
// input has been parsed. Progress lines are written to progress.
func ConvertFile(inPath, outPath string, opts Options, progress io.Writer) (Result, error) {
	_, _ = fmt.Fprintln(progress, "Starting SQL Generation")

	rows, err := ReadFile(inPath)
	if err != nil {
		return Result{}, err
	}

	stmts, err := Statements(rows, opts)
	if err != nil {
		return Result{}, &InputError{Path: inPath, Err: err}
	}
	slog.Debug("parsed CSV", "path", inPath, "rows", len(rows), "statements", len(stmts))

	_, _ = fmt.Fprintf(progress, "Parsed %d questions\n", len(rows))

	if err := writeFile(outPath, stmts); err != nil {
		return Result{}, err
	}

	_, _ = fmt.Fprintf(progress, "Saved output to %s\n", outPath)

	return Result{Rows: len(rows), Statements: len(stmts)}, nil
}

// ReadFile parses every row of the CSV file at path.
func ReadFile(path string) ([][]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	defer func(f *os.File) {
		_ = f.Close()
	}(f)

	rows, err := parser.ReadRows(f)
	if err != nil {
		return nil, &InputError{Path: path, Err: err}
	}
	return rows, nil
}

func writeFile(path string, stmts []string) error {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}

	w := bufio.NewWriter(f)
	if err := writeStatements(w, stmts); err != nil {
		_ = f.Close()
		return err
	}
	if err := w.Flush(); err != nil {
		_ = f.Close()
		return fmt.Errorf("write error: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	return nil
}

func writeStatements(w io.Writer, stmts []string) error {
	for _, stmt := range stmts {
		if _, err := fmt.Fprintln(w, stmt); err != nil {
			return fmt.Errorf("write error: %w", err)
		}
	}
	return nil
}
