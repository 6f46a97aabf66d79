package generator

import (
	"strings"
)

// InsertGenerator generates INSERT statements for a single text column with
// optional batching.
type InsertGenerator struct {
	table     string
	column    string
	batchSize int
	batch     []string
	emitted   int
}

// NewInsertGenerator creates a new INSERT statement generator.
// A batchSize of 0 or less puts every row into one statement. A positive
// batchSize starts a new statement every batchSize rows.
func NewInsertGenerator(table, column string, batchSize int) *InsertGenerator {
	if batchSize < 0 {
		batchSize = 0
	}

	return &InsertGenerator{
		table:     table,
		column:    column,
		batchSize: batchSize,
	}
}

// AddRow escapes a question and adds it to the current batch.
// Returns an INSERT statement if the batch is full, otherwise returns empty string.
func (g *InsertGenerator) AddRow(question string) string {
	g.batch = append(g.batch, ValueTuple(question))

	if g.batchSize > 0 && len(g.batch) >= g.batchSize {
		return g.flushBatch()
	}

	return ""
}

// Finish returns the pending rows as an INSERT statement.
// If no statement has been produced yet, it returns a statement with an empty
// VALUES list, so every run yields at least one statement.
// Returns empty string once everything has been emitted.
func (g *InsertGenerator) Finish() string {
	if len(g.batch) == 0 && g.emitted > 0 {
		return ""
	}
	return g.flushBatch()
}

func (g *InsertGenerator) flushBatch() string {
	stmt := GenerateSingle(g.table, g.column, g.batch)

	// Clear the batch
	g.batch = g.batch[:0]
	g.emitted++

	return stmt
}

// GenerateSingle generates one INSERT statement from prepared value tuples.
func GenerateSingle(table, column string, tuples []string) string {
	var sb strings.Builder

	// INSERT INTO table (column) VALUES
	sb.WriteString("INSERT INTO ")
	sb.WriteString(table)
	sb.WriteString(" (")
	sb.WriteString(column)
	sb.WriteString(") VALUES ")
	sb.WriteString(strings.Join(tuples, ", "))
	sb.WriteString(";")

	return sb.String()
}
