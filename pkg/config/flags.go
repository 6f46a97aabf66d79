package config

import "github.com/spf13/pflag"

// RegisterFlags adds the configuration flags to fs. Flag names map to config
// keys with dashes replaced by underscores.
func RegisterFlags(fs *pflag.FlagSet) {
	fs.String("config", "", "config file (default: ./"+DefaultFileName+" if present)")
	fs.StringP("input", "i", "", "Path to the questions CSV file (default: "+DefaultInput+")")
	fs.StringP("output", "o", "", "Path to the generated SQL file (default: "+DefaultOutput+")")
	fs.StringP("table", "t", "", "Target table name (default: "+DefaultTable+")")
	fs.String("column", "", "Target column name (default: "+DefaultColumn+")")
	fs.IntP("batch-size", "b", 0, "Rows per INSERT statement, 0 for a single statement")
	fs.String("log-level", "", "Log level (debug|info|warn|error)")
}
