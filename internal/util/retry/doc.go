// Package retry provides exponential backoff retry logic for transient failures.
//
// The [Do] function retries an operation with configurable max attempts,
// initial delay, and maximum delay. Provider adapters use it for throttled
// or temporarily locked API calls; errors marked with [Fatal] stop the loop.
package retry
