// Package domain contains the core learning entities of the application:
// exercises and their answer variants, lessons, per-user progress rows,
// users, and the value types the leaderboard is built from.
//
// The package also owns the pure calculations that sit on top of those
// entities (lesson summaries, the level curve, streak detection and
// competition ranking) so they can be tested without any storage.
package domain
