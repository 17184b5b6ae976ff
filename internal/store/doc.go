// Package store defines the persistence interfaces the progression engine
// depends on: exercises, lessons, per-user progress rows, users and the
// leaderboard read model.
//
// Implementations live in internal/platform/postgres and, for tests, in
// internal/store/memory. Multi-step writes run through a Transactor so the
// services never see *sql.Tx directly.
package store
