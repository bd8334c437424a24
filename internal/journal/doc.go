// Package journal persists voice journal entries and their processing
// lifecycle in SQLite. Status transitions use conditional updates so
// concurrent workers and duplicate queue deliveries cannot clobber each
// other's progress.
package journal
