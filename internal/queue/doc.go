// Package queue persists batch transcription jobs in SQLite.
//
// Each item tracks one media file through the lifecycle pending ->
// extracting -> transcribing -> completed, with failed and review as
// terminal error states. The store applies WAL journaling and retries
// busy errors so the CLI and a running batch can share the database.
package queue
