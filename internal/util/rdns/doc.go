// Package rdns resolves the host name behind a public address when a
// provider reports the address but no DNS name for it.
package rdns
