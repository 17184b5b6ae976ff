// Package postgres implements the store interfaces on PostgreSQL through
// database/sql and the pgx stdlib driver. Stores accept a store.DBTX so the
// same code runs against a pool or a transaction, and every query maps
// driver errors onto the store error taxonomy with MapError.
//
// The schema lives in the embedded migrations directory and is applied with
// goose.
package postgres
