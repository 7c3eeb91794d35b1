// Package history keeps a SQLite log of pronunciation requests.
//
// The store is fed from player events and only records the terminal event of
// each request, so one row describes how a request ended: which source played,
// or which error the caller saw.
package history
