// Package config loads shepherd settings.
//
// Settings come from built-in defaults, then an optional YAML or TOML
// file, then environment variables. Command-line flags are applied last by
// the caller. The merged result is validated before use.
//
// # File format
//
//	inventory: /etc/ansible/hosts.yaml
//	poll_interval: 10s
//	max_poll: 30
//	aws:
//	  profile: ops
//	hcloud:
//	  token: ...
//	s3:
//	  endpoint: https://fsn1.your-objectstorage.com
//	  region: fsn1
//
// API timeouts and retry parameters are read separately by [LoadTimeouts].
package config
