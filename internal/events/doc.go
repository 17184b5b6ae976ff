// Package events carries progress notifications from the progress engine to
// interested components such as the leaderboard cache.
//
// Events are emitted after the transaction that caused them commits, so a
// handler never observes state that may still roll back.
package events
