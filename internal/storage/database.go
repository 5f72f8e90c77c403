// Package storage keeps the recipe dataset in SQLite or MySQL.
package storage

import (
	"database/sql"
	"fmt"
	"net"
	"net/url"
	"strconv"
	"strings"

	"recipechat/internal/config"

	"github.com/go-sql-driver/mysql"
	_ "github.com/mattn/go-sqlite3"
)

// Open connects to the database configured under dbType.
func Open(dbType string, cfg *config.Config) (*sql.DB, error) {
	dbCfg, ok := cfg.Databases[dbType]
	if !ok {
		return nil, fmt.Errorf("database config for %s not found", dbType)
	}

	var (
		db  *sql.DB
		err error
	)

	switch driverName(dbType) {
	case "sqlite3":
		if dbCfg.DSN == "" {
			return nil, fmt.Errorf("sqlite dsn must be provided")
		}
		db, err = sql.Open("sqlite3", dbCfg.DSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite database: %w", err)
		}
	case "mysql":
		dsn, err := mysqlDSN(dbCfg)
		if err != nil {
			return nil, err
		}
		db, err = sql.Open("mysql", dsn)
		if err != nil {
			return nil, fmt.Errorf("open mysql database: %w", err)
		}
	default:
		return nil, fmt.Errorf("unsupported driver: %s", dbType)
	}

	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database: %w", err)
	}
	return db, nil
}

func driverName(dbType string) string {
	switch strings.ToLower(dbType) {
	case "sqlite", "sqlite3":
		return "sqlite3"
	case "mysql":
		return "mysql"
	default:
		return ""
	}
}

// mysqlDSN prefers an explicit dsn and otherwise assembles one from the split fields.
func mysqlDSN(dbCfg config.DatabaseConfig) (string, error) {
	if dbCfg.DSN != "" {
		return dbCfg.DSN, nil
	}
	mc := mysql.NewConfig()
	mc.User = dbCfg.Username
	mc.Passwd = dbCfg.Password
	mc.Net = "tcp"
	mc.Addr = net.JoinHostPort(dbCfg.Host, strconv.Itoa(dbCfg.Port))
	mc.DBName = dbCfg.DBName
	if dbCfg.Params != "" {
		values, err := url.ParseQuery(dbCfg.Params)
		if err != nil {
			return "", fmt.Errorf("parse mysql params: %w", err)
		}
		mc.Params = make(map[string]string, len(values))
		for k := range values {
			mc.Params[k] = values.Get(k)
		}
	}
	return mc.FormatDSN(), nil
}

// Migrate ensures the required tables are present.
func Migrate(db *sql.DB, driver string) error {
	var stmts []string
	switch driverName(driver) {
	case "sqlite3":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS recipes (
				id INTEGER PRIMARY KEY,
				cuisine TEXT NOT NULL,
				ingredients TEXT NOT NULL
			)`,
			`CREATE INDEX IF NOT EXISTS idx_recipes_cuisine ON recipes(cuisine)`,
		}
	case "mysql":
		stmts = []string{
			`CREATE TABLE IF NOT EXISTS recipes (
				id BIGINT NOT NULL,
				cuisine VARCHAR(100) NOT NULL,
				ingredients MEDIUMTEXT NOT NULL,
				PRIMARY KEY (id),
				INDEX idx_recipes_cuisine (cuisine)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}
	default:
		return fmt.Errorf("unsupported driver for migration: %s", driver)
	}

	for _, stmt := range stmts {
		if _, err := db.Exec(stmt); err != nil {
			return fmt.Errorf("migrate (%s): %w", driver, err)
		}
	}
	return nil
}
