// Package main is the entry point for the shepherd CLI.
//
// shepherd starts, stops, restarts, terminates and reports on cloud
// instances selected from an Ansible inventory. Hosts carry the
// cloud_provider, cloud_region and cloud_instance_id variables; every
// matched host is handled through its provider, region by region.
//
// For detailed usage information, run:
//
//	shepherd --help
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/imamik/shepherd/cmd/shepherd/commands"
)

// Version information set by goreleaser at build time.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	commands.SetVersionInfo(version, commit, date)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := commands.Execute(ctx, os.Args[1:], os.Stdout, os.Stderr)
	stop()
	os.Exit(code)
}
