package config

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/godror/godror"
)

// OracleConfig locates the database holding generated document records and
// serial counters. Either host/port/service or wallet/TNS alias is used.
type OracleConfig struct {
	Host     string
	Port     string
	Service  string
	User     string
	Password string

	WalletPath string
	TNSAlias   string

	MaxOpenConns    int
	MaxIdleConns    int
	ConnMaxLifetime time.Duration
	PingTimeout     time.Duration
}

// Enabled reports whether a database is configured. Without one the service
// keeps documents and serial counters in memory.
func (c OracleConfig) Enabled() bool {
	return c.User != ""
}

func (c OracleConfig) connectString() string {
	if c.usesWallet() {
		return c.TNSAlias
	}
	return fmt.Sprintf("%s:%s/%s", c.Host, c.Port, c.Service)
}

func (c OracleConfig) usesWallet() bool {
	return c.WalletPath != "" && c.TNSAlias != ""
}

// DSN renders the godror logfmt connection string. Values are quoted so a
// password cannot inject further parameters.
func (c OracleConfig) DSN() string {
	params := [][2]string{
		{"user", c.User},
		{"password", c.Password},
		{"connectString", c.connectString()},
	}
	if c.usesWallet() {
		params = append(params,
			[2]string{"configDir", c.WalletPath},
			[2]string{"walletLocation", c.WalletPath},
		)
	}

	quote := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	parts := make([]string, len(params))
	for i, p := range params {
		parts[i] = fmt.Sprintf(`%s="%s"`, p[0], quote.Replace(p[1]))
	}
	return strings.Join(parts, " ")
}

// OpenOracle opens the pool and waits for the first ping.
func OpenOracle(ctx context.Context, cfg OracleConfig) (*sql.DB, error) {
	db, err := sql.Open("godror", cfg.DSN())
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)

	timeout := cfg.PingTimeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	pingCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}
	return db, nil
}
