package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/controlplane-com/questions-sqlgen/pkg/convert"
	"github.com/controlplane-com/questions-sqlgen/pkg/loader"
	"github.com/controlplane-com/questions-sqlgen/pkg/parser"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// setupDir runs the test in a fresh working directory without environment
// overrides and optionally writes questions.csv.
func setupDir(t *testing.T, csv string) string {
	t.Helper()
	dir := t.TempDir()
	wd, err := os.Getwd()
	require.NoError(t, err)
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { _ = os.Chdir(wd) })
	for _, key := range []string{
		"QSQL_INPUT", "QSQL_OUTPUT", "QSQL_TABLE", "QSQL_COLUMN", "QSQL_BATCH_SIZE", "QSQL_LOG_LEVEL",
		"RDS_HOSTNAME", "RDS_PORT", "RDS_USERNAME", "RDS_PASSWORD", "RDS_DATABASE",
	} {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
	if csv != "" {
		require.NoError(t, os.WriteFile(filepath.Join(dir, "questions.csv"), []byte(csv), 0644))
	}
	return dir
}

func execute(t *testing.T, a *app, args ...string) (string, string, error) {
	t.Helper()
	cmd := newRootCmd(a)
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return stdout.String(), stderr.String(), err
}

func TestRoot_DefaultRun(t *testing.T) {
	dir := setupDir(t, "What is 2+2?\n\"It's a test\nwith a newline\"\n")

	stdout, _, err := execute(t, newApp())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "questions.sql"))
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO questions (question) VALUES (\"What is 2+2?\"), (\"It\\'s a test\\nwith a newline\");\n",
		string(got))

	assert.Contains(t, stdout, "Starting SQL Generation")
	assert.Contains(t, stdout, "Parsed 2 questions")
	assert.Contains(t, stdout, "Saved output to questions.sql")
}

func TestRoot_EmptyInput(t *testing.T) {
	dir := setupDir(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "questions.csv"), nil, 0644))

	_, _, err := execute(t, newApp())
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "questions.sql"))
	require.NoError(t, err)
	assert.Equal(t, "INSERT INTO questions (question) VALUES ;\n", string(got))
}

func TestRoot_Flags(t *testing.T) {
	dir := setupDir(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "in.csv"), []byte("a\nb\nc\n"), 0644))

	_, _, err := execute(t, newApp(), "-i", "in.csv", "-o", "out.sql", "-t", "trivia", "--column", "prompt", "-b", "2")
	require.NoError(t, err)

	got, err := os.ReadFile(filepath.Join(dir, "out.sql"))
	require.NoError(t, err)
	assert.Equal(t,
		"INSERT INTO trivia (prompt) VALUES (\"a\"), (\"b\");\nINSERT INTO trivia (prompt) VALUES (\"c\");\n",
		string(got))
}

func TestRoot_MissingInput(t *testing.T) {
	dir := setupDir(t, "")

	_, _, err := execute(t, newApp())
	require.Error(t, err)
	assert.Equal(t, 1, exitCode(err))

	_, statErr := os.Stat(filepath.Join(dir, "questions.sql"))
	assert.True(t, errors.Is(statErr, os.ErrNotExist), "no output should be written")
}

func TestRoot_EmptyRow(t *testing.T) {
	setupDir(t, "q1\n\nq2\n")

	_, _, err := execute(t, newApp())
	require.Error(t, err)
	assert.ErrorIs(t, err, parser.ErrEmptyRow)
	assert.Equal(t, 1, exitCode(err))
}

func TestRoot_InvalidConfig(t *testing.T) {
	setupDir(t, "q1\n")

	_, _, err := execute(t, newApp(), "--table", "bad table")
	require.Error(t, err)
	assert.Equal(t, 2, exitCode(err))
}

func TestExitCode(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want int
	}{
		{"input error", &convert.InputError{Path: "x.csv", Err: os.ErrNotExist}, 1},
		{"parse error", &parser.ParseError{Line: 2, Reason: "empty row", Err: parser.ErrEmptyRow}, 1},
		{"wrapped parse error", fmt.Errorf("loading: %w", &parser.ParseError{Line: 1}), 1},
		{"other error", errors.New("permission denied"), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, exitCode(tt.err))
		})
	}
}

func TestConfigCommand(t *testing.T) {
	setupDir(t, "")

	stdout, _, err := execute(t, newApp(), "config", "--batch-size", "25")
	require.NoError(t, err)
	assert.Contains(t, stdout, "input: questions.csv")
	assert.Contains(t, stdout, "batch_size: 25")
	assert.NotContains(t, stdout, "password: password")
}

func TestVersionCommand(t *testing.T) {
	setupDir(t, "")

	stdout, _, err := execute(t, newApp(), "version")
	require.NoError(t, err)
	assert.Equal(t, "questions-sqlgen version "+version+"\n", stdout)
}

func mockApp(t *testing.T) (*app, sqlmock.Sqlmock, *string) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	var gotDSN string
	a := newApp()
	a.open = func(_ context.Context, dsn string) (*loader.Loader, error) {
		gotDSN = dsn
		return loader.New(db), nil
	}
	return a, mock, &gotDSN
}

func TestLoadCommand(t *testing.T) {
	setupDir(t, "q1\nq2\n")
	t.Setenv("RDS_HOSTNAME", "db.example")
	t.Setenv("RDS_DATABASE", "trivia_game")

	a, mock, dsn := mockApp(t)
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS questions")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO questions (question) VALUES ("q1"), ("q2");`)).
		WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectCommit()
	mock.ExpectClose()

	stdout, _, err := execute(t, a, "load", "--create-table")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Parsed 2 questions")
	assert.Contains(t, stdout, "Loaded 2 questions into questions")
	assert.Contains(t, *dsn, "tcp(db.example:3306)/trivia_game")
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCommand_Rollback(t *testing.T) {
	setupDir(t, "q1\nq2\nq3\n")

	a, mock, _ := mockApp(t)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta(`VALUES ("q1"), ("q2");`)).WillReturnResult(sqlmock.NewResult(2, 2))
	mock.ExpectExec(regexp.QuoteMeta(`VALUES ("q3");`)).WillReturnError(assert.AnError)
	mock.ExpectRollback()
	mock.ExpectClose()

	_, _, err := execute(t, a, "load", "-b", "2")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "loading questions")
	assert.Equal(t, 2, exitCode(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestLoadCommand_NothingToLoad(t *testing.T) {
	dir := setupDir(t, "")
	require.NoError(t, os.WriteFile(filepath.Join(dir, "questions.csv"), nil, 0644))

	a := newApp()
	a.open = func(context.Context, string) (*loader.Loader, error) {
		t.Fatal("database should not be opened for empty input")
		return nil, nil
	}

	stdout, _, err := execute(t, a, "load")
	require.NoError(t, err)
	assert.Contains(t, stdout, "Nothing to load")
}

func TestLoadCommand_ConnectError(t *testing.T) {
	setupDir(t, "q1\n")

	a := newApp()
	a.open = func(context.Context, string) (*loader.Loader, error) {
		return nil, errors.New("connection refused")
	}

	_, _, err := execute(t, a, "load")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "connecting to questions_game")
	assert.Equal(t, 2, exitCode(err))
}
