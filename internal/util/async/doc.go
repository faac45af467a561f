// Package async provides bounded parallel task execution with per-task
// error collection.
//
// [RunOrdered] keeps results in task order so callers can report the first
// failure deterministically regardless of completion order.
package async
