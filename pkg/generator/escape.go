package generator

import "strings"

// questionReplacer escapes single quotes with a backslash and turns a literal
// newline into the two characters \n. Nothing else is touched.
var questionReplacer = strings.NewReplacer(
	"'", `\'`,
	"\n", `\n`,
)

// EscapeQuestion escapes a question for embedding in a generated INSERT.
// Backslashes and double quotes pass through unchanged, so the result is only
// safe for trusted input.
func EscapeQuestion(s string) string {
	return questionReplacer.Replace(s)
}

// ValueTuple wraps an escaped question as ("...").
func ValueTuple(s string) string {
	return `("` + EscapeQuestion(s) + `")`
}
