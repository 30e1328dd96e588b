// Package task provides background task processing: an in-memory queue
// with a worker pool, plus the syllabus generation task that turns a
// subject's syllabus into flashcards and a study plan. Task state is
// tracked on the subject row, so interrupted work is recovered from the
// database on startup.
package task
