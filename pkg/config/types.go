package config

import (
	"net"
	"strconv"

	"github.com/go-sql-driver/mysql"
)

// Default configuration values.
const (
	DefaultInput     = "questions.csv"
	DefaultOutput    = "questions.sql"
	DefaultTable     = "questions"
	DefaultColumn    = "question"
	DefaultLogLevel  = "info"
	DefaultDBHost    = "localhost"
	DefaultDBPort    = 3306
	DefaultDBUser    = "questions"
	DefaultDBPass    = "password"
	DefaultDBName    = "questions_game"
	DefaultFileName  = "questions-sqlgen.yaml"
	redactedPassword = "********"
)

// Config holds the effective configuration for a run.
type Config struct {
	Input     string   `koanf:"input" yaml:"input"`
	Output    string   `koanf:"output" yaml:"output"`
	Table     string   `koanf:"table" yaml:"table"`
	Column    string   `koanf:"column" yaml:"column"`
	BatchSize int      `koanf:"batch_size" yaml:"batch_size"`
	LogLevel  string   `koanf:"log_level" yaml:"log_level"`
	Database  Database `koanf:"database" yaml:"database"`
}

// Database holds the MySQL connection settings used by the load command.
type Database struct {
	Host     string `koanf:"host" yaml:"host"`
	Port     int    `koanf:"port" yaml:"port"`
	User     string `koanf:"user" yaml:"user"`
	Password string `koanf:"password" yaml:"password"`
	Name     string `koanf:"name" yaml:"name"`
}

// DSN returns a go-sql-driver/mysql data source name for the database.
func (d Database) DSN() string {
	cfg := mysql.NewConfig()
	cfg.Net = "tcp"
	cfg.Addr = net.JoinHostPort(d.Host, strconv.Itoa(d.Port))
	cfg.User = d.User
	cfg.Passwd = d.Password
	cfg.DBName = d.Name
	return cfg.FormatDSN()
}
