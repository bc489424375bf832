// Package testutil provides helpers for tests that need a real backend
// database.
package testutil

import (
	"database/sql"
	"fmt"
	"net/url"
	"os"
	"testing"
	"time"

	_ "github.com/lib/pq"
	"github.com/stretchr/testify/require"
)

// Session parameters for test database configuration
const (
	defaultStatementTimeout = "5s"
	defaultLockTimeout      = "1s"
)

// backendSchema is the subset of the backend's tables the daemon reads
const backendSchema = `
CREATE TABLE panel (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	layout_type VARCHAR(20) NOT NULL DEFAULT 'layout_1',
	fixed_url VARCHAR(100) NOT NULL UNIQUE
);

CREATE TABLE action (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	start_date TIMESTAMP NOT NULL,
	end_date TIMESTAMP NOT NULL,
	has_border BOOLEAN DEFAULT FALSE,
	created_at TIMESTAMP DEFAULT NOW()
);

CREATE TABLE action_panel (
	action_id VARCHAR(36) REFERENCES action(id),
	panel_id VARCHAR(36) REFERENCES panel(id),
	PRIMARY KEY (action_id, panel_id)
);

CREATE TABLE action_image (
	id VARCHAR(36) PRIMARY KEY,
	filename VARCHAR(255) NOT NULL,
	action_id VARCHAR(36) NOT NULL REFERENCES action(id),
	created_at TIMESTAMP DEFAULT NOW()
);

CREATE TABLE department (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(100) NOT NULL UNIQUE,
	code VARCHAR(20) NOT NULL UNIQUE,
	keywords TEXT,
	active BOOLEAN DEFAULT TRUE
);

CREATE TABLE department_panel (
	id VARCHAR(36) PRIMARY KEY,
	name VARCHAR(100) NOT NULL,
	department_id VARCHAR(36) NOT NULL REFERENCES department(id),
	title VARCHAR(100),
	subtitle VARCHAR(100),
	footer_text VARCHAR(255),
	polling_interval INTEGER DEFAULT 10,
	active BOOLEAN DEFAULT TRUE
);

CREATE TABLE butcher_product (
	id VARCHAR(36) PRIMARY KEY,
	codigo VARCHAR(10) NOT NULL UNIQUE,
	nome VARCHAR(100) NOT NULL,
	preco NUMERIC(10, 2) NOT NULL,
	posicao INTEGER NOT NULL,
	ativo BOOLEAN DEFAULT TRUE
);

CREATE TABLE product_panel_association (
	id VARCHAR(36) PRIMARY KEY,
	product_id VARCHAR(36) NOT NULL REFERENCES butcher_product(id),
	panel_id VARCHAR(36) NOT NULL REFERENCES department_panel(id),
	position_override INTEGER,
	active_in_panel BOOLEAN DEFAULT TRUE,
	CONSTRAINT unique_product_panel UNIQUE (product_id, panel_id)
);
`

// SetupTestDB creates a scratch database with the backend schema. The test
// is skipped unless TEST_DATABASE_URL points at a reachable server.
func SetupTestDB(t *testing.T) *sql.DB {
	t.Helper()

	baseURL := os.Getenv("TEST_DATABASE_URL")
	if baseURL == "" {
		t.Skip("TEST_DATABASE_URL not set")
	}

	adminDB, err := tryConnect(t, baseURL)
	require.NoError(t, err, "failed to connect to postgres")
	defer adminDB.Close()

	dbName := fmt.Sprintf("wpanel_test_%d", time.Now().UnixNano())
	_, err = adminDB.Exec(fmt.Sprintf("CREATE DATABASE %s", dbName))
	require.NoError(t, err)

	u, err := url.Parse(baseURL)
	require.NoError(t, err)
	u.Path = "/" + dbName

	db, err := tryConnect(t, u.String())
	require.NoError(t, err)

	for _, stmt := range []string{
		"SET SESSION statement_timeout = '" + defaultStatementTimeout + "'",
		"SET SESSION lock_timeout = '" + defaultLockTimeout + "'",
	} {
		_, err = db.Exec(stmt)
		require.NoError(t, err)
	}

	_, err = db.Exec(backendSchema)
	require.NoError(t, err)

	t.Cleanup(func() {
		if cerr := db.Close(); cerr != nil {
			t.Logf("error closing test database connection: %v", cerr)
		}

		adminDB, err := sql.Open("postgres", baseURL)
		if err != nil {
			t.Logf("error connecting to drop test database: %v", err)
			return
		}
		defer adminDB.Close()

		_, err = adminDB.Exec(fmt.Sprintf("SELECT pg_terminate_backend(pid) FROM pg_stat_activity WHERE datname = '%s'", dbName))
		if err != nil {
			t.Logf("error terminating connections to test database: %v", err)
		}
		if _, err = adminDB.Exec(fmt.Sprintf("DROP DATABASE IF EXISTS %s", dbName)); err != nil {
			t.Logf("error dropping test database: %v", err)
		}
	})

	return db
}

// tryConnect attempts to connect to database with retries
func tryConnect(t *testing.T, dbURL string) (*sql.DB, error) {
	t.Helper()

	var db *sql.DB
	var err error
	maxRetries := 5
	retryDelay := time.Second

	for i := 0; i < maxRetries; i++ {
		db, err = sql.Open("postgres", dbURL)
		if err != nil {
			t.Logf("failed to open database connection (attempt %d/%d): %v", i+1, maxRetries, err)
			time.Sleep(retryDelay)
			continue
		}

		err = db.Ping()
		if err == nil {
			break
		}
		t.Logf("failed to ping database (attempt %d/%d): %v", i+1, maxRetries, err)
		if cerr := db.Close(); cerr != nil {
			t.Logf("error closing failed connection: %v", cerr)
		}
		time.Sleep(retryDelay)
	}

	if err != nil {
		return nil, fmt.Errorf("failed to connect after %d attempts: %w", maxRetries, err)
	}

	return db, nil
}
