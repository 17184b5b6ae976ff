// Package service groups the application services of the engine.
//
// Each subpackage owns one use case area and depends only on the store
// interfaces and domain types:
//
//   - progress grades submissions, awards XP and cascades unlocks.
//   - leaderboard ranks learners per time frame and caches snapshots.
//   - auth validates bearer tokens issued by the identity provider.
package service
