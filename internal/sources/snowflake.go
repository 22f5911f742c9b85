package sources

import (
	"database/sql"
	"fmt"
	"strings"
	"time"

	sf "github.com/snowflakedb/gosnowflake"

	"github.com/ignite/marketpulse/internal/config"
)

// SnowflakeDSN builds a gosnowflake DSN from the warehouse configuration.
func SnowflakeDSN(cfg config.SnowflakeConfig) (string, error) {
	if cfg.Account == "" || cfg.User == "" {
		return "", fmt.Errorf("snowflake account and user are required")
	}
	return sf.DSN(&sf.Config{
		Account:   cfg.Account,
		User:      cfg.User,
		Password:  cfg.Password,
		Database:  cfg.Database,
		Schema:    cfg.Schema,
		Warehouse: cfg.Warehouse,
	})
}

// OpenSnowflake opens a pooled connection to the warehouse. Exports are read
// with a handful of concurrent queries, so the pool stays small.
func OpenSnowflake(cfg config.SnowflakeConfig) (*sql.DB, error) {
	dsn, err := SnowflakeDSN(cfg)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open snowflake connection: %w", err)
	}
	db.SetMaxOpenConns(5)
	db.SetMaxIdleConns(2)
	db.SetConnMaxLifetime(5 * time.Minute)
	return db, nil
}

// ParseSnowflakeConnectionString reads the semicolon-separated connection
// string format used by warehouse admin consoles:
//
//	ACCOUNT=xxx;USER=yyy;PASSWORD=zzz;DB=database.schema;WAREHOUSE=wh
//
// Unknown keys are ignored.
func ParseSnowflakeConnectionString(conn string) config.SnowflakeConfig {
	parts := make(map[string]string)
	for _, field := range strings.Split(conn, ";") {
		key, value, ok := strings.Cut(field, "=")
		if !ok || key == "" {
			continue
		}
		parts[strings.ToUpper(strings.TrimSpace(key))] = strings.TrimSpace(value)
	}

	database, schema, _ := strings.Cut(parts["DB"], ".")
	return config.SnowflakeConfig{
		Account:   parts["ACCOUNT"],
		User:      parts["USER"],
		Password:  parts["PASSWORD"],
		Database:  database,
		Schema:    schema,
		Warehouse: parts["WAREHOUSE"],
		Enabled:   parts["ACCOUNT"] != "",
	}
}
