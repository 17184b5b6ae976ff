// Package progress is the scoring and progression engine. It grades answer
// submissions, credits XP at most once per exercise, summarizes lesson
// progress and cascades unlocks from one exercise or lesson to the next.
//
// All state lives in the stores. A submission's progress row and the user's
// XP total are written in one transaction; unlocks and events follow after
// commit.
package progress
