// Package leaderboard builds ranked XP snapshots per time frame.
//
// A snapshot holds the top entries of a frame with their level, streak and
// rank change against the previous period. Snapshots are shared between
// callers and may be cached; the caller's own entry is resolved on every
// request and is never part of a cached snapshot.
package leaderboard
