// Package testdb provides helpers for tests that run against a real
// PostgreSQL database. Tests call Open, which skips the test unless
// LADDER_TEST_DB_URL or DATABASE_URL is set, applies the embedded
// migrations, and truncates every table on cleanup.
package testdb
