// Package hcloud is the "hcloud" provider backend, built on the Hetzner
// Cloud API.
//
// Hetzner locations (fsn1, nbg1, hel1, ...) play the role of regions and
// inventory instance ids are numeric server ids. A server that lives in a
// different location than the one it is addressed in is treated as
// missing, so cohorts stay scoped the same way EC2 regions are.
//
// The API has no dry-run mode. A dry run resolves every server and
// reports success without issuing the power or delete request.
//
// Calls are retried for locked resources, conflicts, rate limiting and
// connection errors. Timeouts and retry parameters come from
// config.LoadTimeouts:
//
//   - SHEPHERD_TIMEOUT_API: per-request timeout (default: 30s)
//   - SHEPHERD_RETRY_MAX_ATTEMPTS: maximum retry attempts (default: 3)
//   - SHEPHERD_RETRY_INITIAL_DELAY: initial retry delay (default: 1s)
package hcloud
